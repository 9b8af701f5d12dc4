package authstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/route"
)

//go:generate mockgen -destination=mocks/mock_authstate.go -package=mocks github.com/MrEthical07/dashauth/authstate Authenticator,Navigator

// Authenticator is the auth service the container drives. *dashauth.Engine
// satisfies it.
type Authenticator interface {
	HandleLogin(ctx context.Context, email, password string) dashauth.LoginResult
	Logout(ctx context.Context)
	Status(ctx context.Context) dashauth.Status
	IsAuthenticated(ctx context.Context) bool
}

// Navigator performs client-side navigation.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type subscription struct {
	id uint64
	fn func(State)
}

// Container owns one [State]. Dispatch is serialized; subscribers run after
// the state lock is released, in subscription order.
type Container struct {
	mu    sync.Mutex
	state State

	auth      Authenticator
	navigator Navigator
	loginPath string
	logger    *slog.Logger

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64
}

// Option configures a [Container].
type Option func(*Container)

// WithNavigator sets where logout and expiry redirects are sent. Without one,
// redirects are skipped.
func WithNavigator(n Navigator) Option {
	return func(c *Container) { c.navigator = n }
}

// WithLoginPath overrides the redirect target for logout and expiry.
func WithLoginPath(path string) Option {
	return func(c *Container) {
		if path != "" {
			c.loginPath = path
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContainer returns a container in the [Initial] state.
func NewContainer(auth Authenticator, opts ...Option) *Container {
	c := &Container{
		state:     Initial(),
		auth:      auth,
		loginPath: route.LoginPath,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive every state produced by Dispatch. The
// returned function removes it and may be called more than once.
func (c *Container) Subscribe(fn func(State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	c.subMu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispatch applies a and notifies subscribers.
func (c *Container) Dispatch(a Action) {
	c.mu.Lock()
	c.state = Reduce(c.state, a)
	next := c.state.clone()
	c.mu.Unlock()

	c.notify(next)
}

// dispatchIfAuthenticated applies a only while the session is still
// authenticated, so a logout that raced the caller is not overwritten.
func (c *Container) dispatchIfAuthenticated(a Action) bool {
	c.mu.Lock()
	if !c.state.Authenticated {
		c.mu.Unlock()
		return false
	}
	c.state = Reduce(c.state, a)
	next := c.state.clone()
	c.mu.Unlock()

	c.notify(next)
	return true
}

func (c *Container) notify(next State) {
	c.subMu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()

	for _, s := range subs {
		s.fn(next.clone())
	}
}

// LoginPath returns the redirect target used for logout and expiry.
func (c *Container) LoginPath() string {
	return c.loginPath
}

// Login authenticates and records the outcome. It reports whether the session
// is now authenticated and never panics.
func (c *Container) Login(ctx context.Context, email, password string) bool {
	c.Dispatch(BeginAuth{})

	result, err := c.handleLogin(ctx, email, password)
	if err != nil {
		c.logger.Error("login raised unexpectedly", slog.Any("err", err))
		c.Dispatch(Fail{Message: err.Error()})
		return false
	}
	if result.Success && result.User != nil {
		c.Dispatch(Succeed{Profile: result.User})
		return true
	}

	msg := result.Error
	if msg == "" {
		msg = LoginFailedMessage
	}
	c.Dispatch(Fail{Message: msg})
	return false
}

func (c *Container) handleLogin(ctx context.Context, email, password string) (result dashauth.LoginResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return c.auth.HandleLogin(ctx, email, password), nil
}

// Logout clears stored credentials and the session. The state is cleared even
// when the authenticator fails. With redirect, navigates to the login path.
func (c *Container) Logout(ctx context.Context, redirect bool) {
	if err := c.logoutAuth(ctx); err != nil {
		c.logger.Error("logout cleanup failed", slog.Any("err", err))
	}
	c.Dispatch(Logout{})
	if redirect {
		c.redirectToLogin()
	}
}

func (c *Container) logoutAuth(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	c.auth.Logout(ctx)
	return nil
}

// ClearError dismisses the current error.
func (c *Container) ClearError() {
	c.Dispatch(ClearError{})
}

// CheckAuthStatus settles the state from stored credentials: Succeed for a
// valid session, TokenExpired when a stored token has lapsed, Logout when
// nothing usable is stored. A failing authenticator yields
// Fail([CheckFailedMessage]) rather than Logout.
func (c *Container) CheckAuthStatus(ctx context.Context) {
	status, err := c.status(ctx)
	if err != nil {
		c.logger.Error("auth status check failed", slog.Any("err", err))
		c.Dispatch(Fail{Message: CheckFailedMessage})
		return
	}

	switch {
	case status.Authenticated && status.Profile != nil:
		c.Dispatch(Succeed{Profile: status.Profile})
	case status.Reason.TokenLapsed():
		c.Dispatch(TokenExpired{})
	default:
		c.Dispatch(Logout{})
	}
}

func (c *Container) status(ctx context.Context) (status dashauth.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return c.auth.Status(ctx), nil
}

func (c *Container) redirectToLogin() {
	if c.navigator == nil {
		return
	}
	c.navigator.Navigate(c.loginPath)
}

func recovered(r any) error {
	switch v := r.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%s: %v", UnexpectedMessage, v)
	}
}
