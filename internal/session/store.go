// Package session holds the in-process store for QR login handshake
// sessions.  Sessions are transient by design: they live for five
// minutes, are consumed exactly once, and are lost on restart.  The
// store is constructed once in main and injected into handlers so
// tests can run isolated instances with deterministic clocks.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/creation-fund/internal/model"
)

// DefaultTTL is the fixed validity window of a handshake session.
const DefaultTTL = 5 * time.Minute

// Sentinel errors returned by store operations.  Handlers translate
// these into specific HTTP responses; none of them is fatal.
var (
	// ErrNotFound is returned when a token does not exist in the store,
	// either because it never did or because it was evicted or redeemed.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when a token is found but its validity
	// window has passed.  The entry is evicted as a side effect.
	ErrExpired = errors.New("session expired")
	// ErrNotAuthenticated is returned by Redeem while the companion app
	// has not yet completed the signature step.  Callers keep polling.
	ErrNotAuthenticated = errors.New("session not yet authenticated")
)

// Store maps handshake tokens to their sessions.  A single mutex
// serializes all access; sessions are few and short-lived, so the
// coarse lock and the linear expiry sweep are deliberate.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*model.AuthSession
}

// New returns an empty store.  When ttl is zero DefaultTTL is used;
// when now is nil the store reads the system clock in UTC.
func New(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*model.AuthSession),
	}
}

// Create inserts a fresh unauthenticated session and returns its token
// and absolute expiry.  The token is 32 bytes of crypto/rand output,
// hex encoded.  The only failure mode is an entropy-source error.
func (s *Store) Create() (string, time.Time, error) {
	token, err := randomToken(32)
	if err != nil {
		return "", time.Time{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	created := s.now()
	sess := &model.AuthSession{
		Token:     token,
		CreatedAt: created,
		ExpiresAt: created.Add(s.ttl),
	}
	s.sessions[token] = sess
	return token, sess.ExpiresAt, nil
}

// Get returns a copy of the session for token.  Expired entries are
// evicted and reported as ErrExpired; unknown tokens yield ErrNotFound.
// The requested token is inspected before the sweep runs, otherwise an
// expired-but-known token would be indistinguishable from an unknown
// one.  Callers never observe a stale record.
func (s *Store) Get(token string) (model.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.sweepLocked()
	sess, ok := s.sessions[token]
	if !ok {
		return model.AuthSession{}, ErrNotFound
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, token)
		return model.AuthSession{}, ErrExpired
	}
	return *sess, nil
}

// MarkAuthenticated applies the single false→true transition, binding
// the resolved user to the session.  It fails with ErrNotFound when the
// token does not exist and ErrExpired (evicting the entry) when the
// validity window has passed.
func (s *Store) MarkAuthenticated(token, userID, username, accountAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.sweepLocked()
	sess, ok := s.sessions[token]
	if !ok {
		return ErrNotFound
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, token)
		return ErrExpired
	}
	sess.Authenticated = true
	sess.UserID = userID
	sess.Username = username
	sess.AccountAddress = accountAddress
	return nil
}

// Redeem consumes an authenticated session: the entry is removed from
// the store before its data is returned, so no two callers can both
// succeed for the same token.  An unexpired session that has not been
// authenticated yet yields ErrNotAuthenticated and stays in the store.
func (s *Store) Redeem(token string) (model.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.sweepLocked()
	sess, ok := s.sessions[token]
	if !ok {
		return model.AuthSession{}, ErrNotFound
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, token)
		return model.AuthSession{}, ErrExpired
	}
	if !sess.Authenticated {
		return model.AuthSession{}, ErrNotAuthenticated
	}
	delete(s.sessions, token)
	return *sess, nil
}

// sweepLocked evicts every expired session.  Lookup operations run it
// after resolving their own token so expiry stays observable; Create
// runs it up front.  The scan is O(current session count), which stays
// in the tens, so no index or background timer is needed.  Callers must
// hold s.mu.
func (s *Store) sweepLocked() {
	now := s.now()
	for token, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, token)
		}
	}
}

// randomToken returns n bytes of cryptographically secure randomness as
// a hex string of length n*2.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
