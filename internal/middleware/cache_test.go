package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/creation-fund/internal/config"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		SkipPrefixes: []string{"/v1/auth", "/v1/me"},
	}
}

func newCtx(e *echo.Echo, method, target, routePattern string) echo.Context {
	req := httptest.NewRequest(method, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(routePattern)
	return c
}

func TestCacheKeyDistinguishesPathParams(t *testing.T) {
	e := echo.New()
	cfg := testCacheConfig()

	// Both requests resolve to the same registered route pattern; the
	// cache key must still tell them apart.
	c1 := newCtx(e, http.MethodGet, "/v1/events/event-1", "/v1/events/:id")
	c2 := newCtx(e, http.MethodGet, "/v1/events/event-2", "/v1/events/:id")
	assert.NotEqual(t, cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c2))

	// Same URL yields the same key, and the query participates.
	c3 := newCtx(e, http.MethodGet, "/v1/events/event-1", "/v1/events/:id")
	assert.Equal(t, cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c3))
	c4 := newCtx(e, http.MethodGet, "/v1/events?past=true", "/v1/events")
	c5 := newCtx(e, http.MethodGet, "/v1/events", "/v1/events")
	assert.NotEqual(t, cacheKeyFrom(cfg, c4), cacheKeyFrom(cfg, c5))
}

func TestSkipCacheRules(t *testing.T) {
	e := echo.New()
	cfg := testCacheConfig()

	// Public browse GETs are cacheable.
	assert.False(t, skipCache(cfg, newCtx(e, http.MethodGet, "/v1/cycles", "/v1/cycles")))
	assert.False(t, skipCache(cfg, newCtx(e, http.MethodGet, "/v1/events/event-1", "/v1/events/:id")))

	// Non-cached methods bypass.
	assert.True(t, skipCache(cfg, newCtx(e, http.MethodPost, "/v1/events/event-1/tickets", "/v1/events/:id/tickets")))

	// The handshake and identity surfaces bypass: polling a token must
	// always hit the store, and /v1/me answers are per-user.
	assert.True(t, skipCache(cfg, newCtx(e, http.MethodGet, "/v1/auth/qr/session?token=abc", "/v1/auth/qr/session")))
	assert.True(t, skipCache(cfg, newCtx(e, http.MethodGet, "/v1/me/tickets", "/v1/me/tickets")))

	// A login cookie personalizes even public routes (user_has_ticket),
	// so cookie-bearing requests bypass too.
	req := httptest.NewRequest(http.MethodGet, "/v1/events/event-1", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "some-jwt"})
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events/:id")
	assert.True(t, skipCache(cfg, c))
}

func TestCookieIssuingResponsesAreNotStored(t *testing.T) {
	plain := make(http.Header)
	assert.True(t, cacheableResponse(http.StatusOK, plain))
	assert.False(t, cacheableResponse(http.StatusNotFound, plain))

	// The poll response that redeems a handshake carries the login
	// cookie; replaying it would resurrect a consumed token and hand the
	// credential to other clients.
	withCookie := make(http.Header)
	withCookie.Add("Set-Cookie", "user_session=signed-jwt; Path=/; HttpOnly")
	assert.False(t, cacheableResponse(http.StatusOK, withCookie))
}
