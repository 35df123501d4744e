package handler

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/creation-fund/internal/auth"
	"github.com/iliyamo/creation-fund/internal/config"
	"github.com/iliyamo/creation-fund/internal/middleware"
	"github.com/iliyamo/creation-fund/internal/model"
	"github.com/iliyamo/creation-fund/internal/session"
	"github.com/iliyamo/creation-fund/internal/utils"
)

type fakeUserStore struct {
	byAddress map[string]*model.User
}

func (f *fakeUserStore) ByWalletAddress(_ context.Context, address string) (*model.User, error) {
	return f.byAddress[strings.ToLower(address)], nil
}

func (f *fakeUserStore) ByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range f.byAddress {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

const testSecret = "handler-test-secret"

func newTestHandler(t *testing.T, users auth.UserStore) (*QRAuthHandler, *echo.Echo) {
	t.Helper()
	cfg := config.Config{JWTSecret: testSecret, LoginTTLHours: 24}
	sessions := session.New(session.DefaultTTL, nil)
	h := NewQRAuthHandler(cfg, sessions, auth.NewService(sessions, users))
	return h, echo.New()
}

func signChallenge(t *testing.T, key *ecdsa.PrivateKey, token string) string {
	t.Helper()
	sig, err := ethcrypto.Sign(utils.PersonalSignDigest(auth.ChallengeMessage(token)), key)
	require.NoError(t, err)
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig)
}

func doJSON(e *echo.Echo, h echo.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	return rec, err
}

func TestQRLoginFlow(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	username := "maya"
	users := &fakeUserStore{byAddress: map[string]*model.User{
		strings.ToLower(address): {ID: "user-1", Username: &username, AccountAddress: &address},
	}}
	h, e := newTestHandler(t, users)

	// Browser creates a session.
	rec, err := doJSON(e, h.CreateSession, http.MethodPost, "/v1/auth/qr/session", "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)

	// First poll: still pending, no cookie.
	rec, err = doJSON(e, h.PollSession, http.MethodGet, "/v1/auth/qr/session?token="+created.Token, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.False(t, pending.Authenticated)
	assert.Empty(t, rec.Result().Cookies())

	// Companion app signs the challenge and authenticates.
	body := `{"token":"` + created.Token + `","public_address":"` + address +
		`","signature":"` + signChallenge(t, key, created.Token) + `"}`
	rec, err = doJSON(e, h.Authenticate, http.MethodPost, "/v1/auth/qr/authenticate", body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	// Second poll redeems the session and issues the login cookie.
	rec, err = doJSON(e, h.PollSession, http.MethodGet, "/v1/auth/qr/session?token="+created.Token, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	var done struct {
		Authenticated bool   `json:"authenticated"`
		UserID        string `json:"user_id"`
		Username      string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	assert.True(t, done.Authenticated)
	assert.Equal(t, "user-1", done.UserID)
	assert.Equal(t, "maya", done.Username)

	var loginCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookieName {
			loginCookie = ck
		}
	}
	require.NotNil(t, loginCookie)
	assert.True(t, loginCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, loginCookie.SameSite)
	uid, err := utils.ParseLoginToken(testSecret, loginCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	// The token is consumed; a third poll reports it gone.
	rec, err = doJSON(e, h.PollSession, http.MethodGet, "/v1/auth/qr/session?token="+created.Token, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expired":true`)
}

func TestAuthenticateRejectsWrongSigner(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	users := &fakeUserStore{byAddress: map[string]*model.User{
		strings.ToLower(address): {ID: "user-1", AccountAddress: &address},
	}}
	h, e := newTestHandler(t, users)

	token, _, err := h.Sessions.Create()
	require.NoError(t, err)

	otherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	body := `{"token":"` + token + `","public_address":"` + address +
		`","signature":"` + signChallenge(t, otherKey, token) + `"}`
	rec, err := doJSON(e, h.Authenticate, http.MethodPost, "/v1/auth/qr/authenticate", body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The session is untouched and still redeemable by the real key.
	sess, err := h.Sessions.Get(token)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
}

func TestAuthenticateValidatesBody(t *testing.T) {
	h, e := newTestHandler(t, &fakeUserStore{byAddress: map[string]*model.User{}})

	for _, body := range []string{
		`{}`,
		`{"token":"abc"}`,
		`{"token":"abc","public_address":"0x1"}`,
	} {
		rec, err := doJSON(e, h.Authenticate, http.MethodPost, "/v1/auth/qr/authenticate", body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestMeRequiresValidCookie(t *testing.T) {
	h, e := newTestHandler(t, &fakeUserStore{byAddress: map[string]*model.User{}})
	protected := middleware.SessionAuth(testSecret)(h.Me)

	// No cookie: rejected before the handler runs.
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, protected(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage cookie: same.
	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-jwt"})
	rec = httptest.NewRecorder()
	require.NoError(t, protected(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid cookie: identity echoed back.
	login, err := utils.NewLoginToken(testSecret, "user-9", 1)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: login.Token})
	rec = httptest.NewRecorder()
	require.NoError(t, protected(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"user-9"`)
}
