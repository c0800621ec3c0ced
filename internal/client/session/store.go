// Package session persists the access credential across runs.
//
// The Store is the single source of truth for "is a user authenticated":
// a session is active iff a non-empty access token is stored. Expiry is not
// tracked here; it is discovered when a protected call is rejected.
package session

import (
	"context"
	"errors"

	"github.com/yndnr/minipay-go/internal/storage"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
)

// Storage keys. Both are removed together by Clear.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// ErrEmptyToken is returned by Set for an empty token.
var ErrEmptyToken = errors.New("session: empty access token")

// TokenSource is the read-only view of a Store.
type TokenSource interface {
	// Get returns the stored access token, if any.
	Get() (token string, ok bool)
}

// Store reads and writes the access credential in durable storage.
//
// Only the auth manager holds a *Store; everything else receives a
// TokenSource. Calls never perform network I/O.
type Store struct {
	kv     storage.KV
	logger logger.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv storage.KV, log logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{kv: kv, logger: log.With("component", "session")}
}

// Get returns the stored access token. Storage read errors are logged and
// reported as an absent token.
func (s *Store) Get() (string, bool) {
	v, err := s.kv.Get(context.Background(), AccessTokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.Warn("reading session failed", "error", err)
		}
		return "", false
	}
	if len(v) == 0 {
		return "", false
	}
	return string(v), true
}

// Set stores token as the access credential.
func (s *Store) Set(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	return s.kv.Set(context.Background(), AccessTokenKey, []byte(token))
}

// Clear removes the access and refresh credentials together. When the
// delete fails it falls back to blanking the access token, which Get already
// reports as absent.
func (s *Store) Clear() error {
	ctx := context.Background()
	err := s.kv.Delete(ctx, AccessTokenKey, RefreshTokenKey)
	if err == nil {
		return nil
	}
	if blankErr := s.kv.Set(ctx, AccessTokenKey, nil); blankErr != nil {
		return errors.Join(err, blankErr)
	}
	s.logger.Warn("deleting session failed, access token blanked", "error", err)
	return nil
}

// ReadOnly returns a TokenSource view of the store.
func (s *Store) ReadOnly() TokenSource {
	return readOnly{s: s}
}

type readOnly struct {
	s *Store
}

func (r readOnly) Get() (string, bool) {
	return r.s.Get()
}
