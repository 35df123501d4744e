package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/creation-fund/internal/auth"
	"github.com/iliyamo/creation-fund/internal/config"
	"github.com/iliyamo/creation-fund/internal/session"
	"github.com/iliyamo/creation-fund/internal/utils"
)

// QRAuthHandler exposes the QR login handshake: session creation for
// the browser, a poll endpoint that redeems authenticated sessions
// into a login cookie, and the companion-app signature endpoint.
type QRAuthHandler struct {
	Cfg      config.Config
	Sessions *session.Store
	Auth     *auth.Service
}

// NewQRAuthHandler constructs the handler.  All dependencies must be
// non-nil.
func NewQRAuthHandler(cfg config.Config, sessions *session.Store, svc *auth.Service) *QRAuthHandler {
	if sessions == nil || svc == nil {
		panic("nil dependency passed to NewQRAuthHandler")
	}
	return &QRAuthHandler{Cfg: cfg, Sessions: sessions, Auth: svc}
}

// sessionCookieName is the login cookie issued on redemption.
const sessionCookieName = "user_session"

type qrAuthenticateReq struct {
	Token         string `json:"token"`
	PublicAddress string `json:"public_address"`
	Signature     string `json:"signature"`
	UserID        string `json:"user_id"`
}

// CreateSession handles POST /v1/auth/qr/session.  It creates a fresh
// handshake session and returns the token the browser renders as a QR
// code along with its absolute expiry.
func (h *QRAuthHandler) CreateSession(c echo.Context) error {
	token, expiresAt, err := h.Sessions.Create()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create session"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// PollSession handles GET /v1/auth/qr/session?token=...  Unauthenticated
// sessions report authenticated=false so the browser keeps polling.
// Once the companion app has signed, the poll issues the login cookie,
// redeems the session and returns the user info; the token is then
// unusable.  Unknown and expired tokens both yield 404 with
// expired=true so the browser knows to mint a new code.
func (h *QRAuthHandler) PollSession(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	sess, err := h.Sessions.Get(token)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error":   "session not found or expired",
			"expired": true,
		})
	}
	if !sess.Authenticated {
		return c.JSON(http.StatusOK, echo.Map{
			"authenticated": false,
			"expires_at":    sess.ExpiresAt.Format(time.RFC3339),
		})
	}
	// Redeem before issuing anything: only one poller can win.
	sess, err = h.Sessions.Redeem(token)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error":   "session not found or expired",
			"expired": true,
		})
	}
	login, err := utils.NewLoginToken(h.Cfg.JWTSecret, sess.UserID, h.Cfg.LoginTTLHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue login"})
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    login.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(login.Exp) / time.Second),
	})
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": true,
		"user_id":       sess.UserID,
		"username":      sess.Username,
	})
}

// Authenticate handles POST /v1/auth/qr/authenticate, called by the
// companion app with the scanned token, the wallet address and a
// signature over the session challenge.  Only the resolved user's id
// and username are returned; the endpoint is unauthenticated and must
// not leak anything else.
func (h *QRAuthHandler) Authenticate(c echo.Context) error {
	var req qrAuthenticateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	if req.PublicAddress == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "public address is required"})
	}
	if req.Signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature is required"})
	}

	res, err := h.Auth.Authenticate(c.Request().Context(), req.Token, req.PublicAddress, req.Signature, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found or expired"})
		case errors.Is(err, auth.ErrSessionExpired):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session expired"})
		case errors.Is(err, auth.ErrInvalidSignature):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		case errors.Is(err, auth.ErrAddressMismatch):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "signature does not match provided address"})
		case errors.Is(err, auth.ErrUserAddressMismatch):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user id does not match public address"})
		case errors.Is(err, auth.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authentication failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "session authenticated successfully",
		"user":    echo.Map{"id": res.UserID, "username": res.Username},
	})
}

// Me handles GET /v1/me behind the SessionAuth middleware.  It echoes
// the identity bound to the login cookie.
func (h *QRAuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID})
}
