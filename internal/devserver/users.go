package devserver

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is an account with a bcrypt password hash.
type User struct {
	ID       int64
	Username string
	Admin    bool
	hash     []byte
}

// Users authenticates accounts. It is read-only after construction.
type Users struct {
	byName map[string]*User
	// dummy is compared against for unknown names so that both failure
	// paths cost one bcrypt comparison.
	dummy []byte
}

// NewUsers hashes the configured passwords with cost.
func NewUsers(entries []UserEntry, cost int) (*Users, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("unused"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	u := &Users{byName: make(map[string]*User, len(entries)), dummy: dummy}
	for i, e := range entries {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password of %q: %w", e.Username, err)
		}
		u.byName[e.Username] = &User{ID: int64(i + 1), Username: e.Username, Admin: e.Admin, hash: hash}
	}
	return u, nil
}

// Authenticate returns the user when password matches.
func (u *Users) Authenticate(username, password string) (*User, error) {
	user, ok := u.byName[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(u.dummy, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Lookup returns the user named username.
func (u *Users) Lookup(username string) (*User, bool) {
	user, ok := u.byName[username]
	return user, ok
}

// Len returns the number of accounts.
func (u *Users) Len() int {
	return len(u.byName)
}
