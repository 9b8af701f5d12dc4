package stub

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/password"
)

var (
	ErrInvalidCredentials = errors.New("invalid identifier or password")
	ErrBlocked            = errors.New("account blocked")
	ErrUserExists         = errors.New("user already exists")
)

// User is a directory entry.
type User struct {
	ID           int64
	Username     string
	Email        string
	Confirmed    bool
	Blocked      bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Wire returns the user as the login endpoint serializes it.
func (u User) Wire() dashauth.LoginUser {
	return dashauth.LoginUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Confirmed: u.Confirmed,
		Blocked:   u.Blocked,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Directory is an in-memory user list keyed by lower-cased email and
// username. It is safe for concurrent use.
type Directory struct {
	hasher *password.Hasher
	now    func() time.Time

	mu     sync.RWMutex
	byName map[string]*User
	byID   map[int64]*User
	nextID int64
}

func NewDirectory(hasher *password.Hasher, now func() time.Time) *Directory {
	if now == nil {
		now = time.Now
	}
	return &Directory{
		hasher: hasher,
		now:    now,
		byName: make(map[string]*User),
		byID:   make(map[int64]*User),
	}
}

// Add registers a confirmed user with a hashed password.
func (d *Directory) Add(username, email, plain string) (User, error) {
	hash, err := d.hasher.Hash(plain)
	if err != nil {
		return User{}, fmt.Errorf("hash password for %q: %w", email, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	emailKey, nameKey := normalize(email), normalize(username)
	if _, ok := d.byName[emailKey]; ok {
		return User{}, ErrUserExists
	}
	if _, ok := d.byName[nameKey]; ok {
		return User{}, ErrUserExists
	}

	d.nextID++
	now := d.now()
	u := &User{
		ID:           d.nextID,
		Username:     username,
		Email:        email,
		Confirmed:    true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.byName[emailKey] = u
	d.byName[nameKey] = u
	d.byID[u.ID] = u
	return *u, nil
}

// Block marks a user as blocked. Blocked users cannot log in.
func (d *Directory) Block(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if ok {
		u.Blocked = true
		u.UpdatedAt = d.now()
	}
	return ok
}

// Authenticate matches identifier against email or username.
func (d *Directory) Authenticate(identifier, plain string) (User, error) {
	d.mu.RLock()
	u, ok := d.byName[normalize(identifier)]
	var snapshot User
	if ok {
		snapshot = *u
	}
	d.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}
	match, err := d.hasher.Verify(plain, snapshot.PasswordHash)
	if err != nil || !match {
		return User{}, ErrInvalidCredentials
	}
	if snapshot.Blocked {
		return User{}, ErrBlocked
	}
	return snapshot, nil
}

// ByID looks up a user.
func (d *Directory) ByID(id int64) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DemoPassword is the password of every user added by [SeedDemo].
const DemoPassword = "password123"

// SeedDemo adds the development accounts.
func SeedDemo(d *Directory) error {
	for _, u := range []struct{ username, email string }{
		{"admin", "test@example.com"},
		{"clerk", "clerk@example.com"},
	} {
		if _, err := d.Add(u.username, u.email, DemoPassword); err != nil {
			return err
		}
	}
	return nil
}
