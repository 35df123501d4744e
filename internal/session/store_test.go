package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock shared with the store under
// test so expiry can be simulated without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCreateAndGet(t *testing.T) {
	clock := newFakeClock()
	st := New(DefaultTTL, clock.Now)

	token, expiresAt, err := st.Create()
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 random bytes, hex encoded
	assert.Equal(t, clock.Now().Add(5*time.Minute), expiresAt)

	sess, err := st.Get(token)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
	assert.Empty(t, sess.UserID)
	assert.Equal(t, expiresAt, sess.ExpiresAt)

	_, err = st.Get("no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokensAreUnique(t *testing.T) {
	st := New(0, nil)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, _, err := st.Create()
		require.NoError(t, err)
		require.False(t, seen[token])
		seen[token] = true
	}
}

func TestMarkAuthenticated(t *testing.T) {
	clock := newFakeClock()
	st := New(DefaultTTL, clock.Now)

	token, _, err := st.Create()
	require.NoError(t, err)

	require.NoError(t, st.MarkAuthenticated(token, "user-1", "ada", "0xAbC"))

	sess, err := st.Get(token)
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "ada", sess.Username)
	assert.Equal(t, "0xAbC", sess.AccountAddress)

	assert.ErrorIs(t, st.MarkAuthenticated("unknown", "user-1", "", ""), ErrNotFound)
}

func TestRedeemIsSingleUse(t *testing.T) {
	clock := newFakeClock()
	st := New(DefaultTTL, clock.Now)

	token, _, err := st.Create()
	require.NoError(t, err)

	// Polling before the companion app signs keeps the session alive.
	_, err = st.Redeem(token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, st.MarkAuthenticated(token, "user-1", "ada", "0xAbC"))

	sess, err := st.Redeem(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)

	// The second redemption must fail: the entry was removed before the
	// first one returned.
	_, err = st.Redeem(token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	st := New(DefaultTTL, clock.Now)

	token, _, err := st.Create()
	require.NoError(t, err)

	// One second before the deadline the session is still usable.
	clock.Advance(4*time.Minute + 59*time.Second)
	_, err = st.Get(token)
	require.NoError(t, err)
	require.NoError(t, st.MarkAuthenticated(token, "user-1", "", ""))

	// Past the deadline every operation reports expiry and the first
	// access evicts the entry.
	token2, _, err := st.Create()
	require.NoError(t, err)
	clock.Advance(5*time.Minute + time.Second)

	_, err = st.Redeem(token2)
	assert.ErrorIs(t, err, ErrExpired)
	_, err = st.Get(token2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiredKnownTokenReportsExpiredNotMissing(t *testing.T) {
	clock := newFakeClock()

	// Each operation gets its own store: the first access to an expired
	// entry evicts it, and the point here is that this first access must
	// say Expired, never NotFound.
	for name, op := range map[string]func(*Store, string) error{
		"get": func(st *Store, token string) error {
			_, err := st.Get(token)
			return err
		},
		"mark": func(st *Store, token string) error {
			return st.MarkAuthenticated(token, "user-1", "", "")
		},
		"redeem": func(st *Store, token string) error {
			_, err := st.Redeem(token)
			return err
		},
	} {
		st := New(DefaultTTL, clock.Now)
		token, _, err := st.Create()
		require.NoError(t, err)

		clock.Advance(5*time.Minute + time.Second)
		assert.ErrorIs(t, op(st, token), ErrExpired, "op %s", name)

		// The entry is gone after that first access.
		_, err = st.Get(token)
		assert.ErrorIs(t, err, ErrNotFound, "op %s", name)
		clock.Advance(-5*time.Minute - time.Second)
	}
}

func TestExpiredAuthenticatedSessionCannotBeRedeemed(t *testing.T) {
	clock := newFakeClock()
	st := New(DefaultTTL, clock.Now)

	token, _, err := st.Create()
	require.NoError(t, err)
	require.NoError(t, st.MarkAuthenticated(token, "user-1", "", ""))

	clock.Advance(6 * time.Minute)
	_, err = st.Redeem(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSweepEvictsOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	st := New(DefaultTTL, clock.Now)

	old, _, err := st.Create()
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	fresh, _, err := st.Create()
	require.NoError(t, err)

	// Another two minutes kills the first session but not the second.
	clock.Advance(2 * time.Minute)
	_, _, err = st.Create() // triggers the sweep
	require.NoError(t, err)

	_, err = st.Get(old)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(fresh)
	assert.NoError(t, err)
}

func TestConcurrentRedeemSingleWinner(t *testing.T) {
	st := New(DefaultTTL, nil)
	token, _, err := st.Create()
	require.NoError(t, err)
	require.NoError(t, st.MarkAuthenticated(token, "user-1", "", ""))

	const redeemers = 16
	var wg sync.WaitGroup
	successes := make(chan struct{}, redeemers)
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.Redeem(token); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count)
}
