package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

const (
	// TokenKey is the persisted key holding the raw bearer token.
	TokenKey = "repair_shop_auth_token"
	// UserKey is the persisted key holding the JSON-encoded [Profile].
	UserKey = "repair_shop_auth_user"
)

// ErrStorage is matched (via errors.Is) by every [*StorageError].
var ErrStorage = errors.New("credential storage failed")

// StorageError reports a failed credential write. It is the only storage failure
// surfaced to callers.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return "unable to store " + e.Key + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Message returns the user-facing text for the failed write.
func (e *StorageError) Message() string {
	if e.Key == UserKey {
		return "Unable to store user data"
	}
	return "Unable to store authentication token"
}

// Store persists the bearer token and user profile through a [Backend].
type Store struct {
	backend   Backend
	namespace string
	logger    *slog.Logger
}

// NewStore creates a credential store. A nil backend selects a fresh
// [MemoryBackend]; a nil logger selects slog.Default().
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// WithNamespace returns a store sharing the same backend whose keys are
// prefixed by namespace. Used to hold one credential pair per browser session.
func (s *Store) WithNamespace(namespace string) *Store {
	return &Store{
		backend:   s.backend,
		namespace: namespace,
		logger:    s.logger.With(slog.String("namespace", namespace)),
	}
}

// Namespace returns the key namespace, or "" for the root store.
func (s *Store) Namespace() string {
	return s.namespace
}

func (s *Store) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

// SetToken persists the bearer token. Failures are returned as [*StorageError].
func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.backend.Set(ctx, s.key(TokenKey), token); err != nil {
		s.logger.Error("failed to store auth token", slog.Any("err", err))
		return &StorageError{Key: TokenKey, Err: err}
	}
	return nil
}

// Token returns the stored token. Backend faults degrade to "absent".
func (s *Store) Token(ctx context.Context) (string, bool) {
	token, ok, err := s.backend.Get(ctx, s.key(TokenKey))
	if err != nil {
		s.logger.Warn("failed to retrieve auth token", slog.Any("err", err))
		return "", false
	}
	return token, ok
}

// RemoveToken deletes the stored token, logging but not returning failures.
func (s *Store) RemoveToken(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.key(TokenKey)); err != nil {
		s.logger.Warn("failed to remove auth token", slog.Any("err", err))
	}
}

// HasValidToken reports whether a non-blank token is stored. It is a presence
// check only; expiry is decided by package jwt.
func (s *Store) HasValidToken(ctx context.Context) bool {
	token, ok := s.Token(ctx)
	return ok && strings.TrimSpace(token) != ""
}

// SetUser persists the profile. Failures are returned as [*StorageError].
func (s *Store) SetUser(ctx context.Context, p Profile) error {
	data, err := EncodeProfile(p)
	if err != nil {
		s.logger.Error("failed to encode user data", slog.Any("err", err))
		return &StorageError{Key: UserKey, Err: err}
	}
	if err := s.backend.Set(ctx, s.key(UserKey), data); err != nil {
		s.logger.Error("failed to store user data", slog.Any("err", err))
		return &StorageError{Key: UserKey, Err: err}
	}
	return nil
}

// User returns the stored profile, or nil when absent, unreadable or corrupt.
func (s *Store) User(ctx context.Context) *Profile {
	data, ok, err := s.backend.Get(ctx, s.key(UserKey))
	if err != nil {
		s.logger.Warn("failed to retrieve user data", slog.Any("err", err))
		return nil
	}
	if !ok || data == "" {
		return nil
	}

	p, err := DecodeProfile(data)
	if err != nil {
		s.logger.Warn("failed to decode user data", slog.Any("err", err))
		return nil
	}
	return p
}

// RemoveUser deletes the stored profile, logging but not returning failures.
func (s *Store) RemoveUser(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.key(UserKey)); err != nil {
		s.logger.Warn("failed to remove user data", slog.Any("err", err))
	}
}

// Clear removes both the token and the profile.
func (s *Store) Clear(ctx context.Context) {
	s.RemoveToken(ctx)
	s.RemoveUser(ctx)
}
