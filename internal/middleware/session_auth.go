package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/creation-fund/internal/utils"
)

// sessionCookieName is the login cookie issued when a QR handshake is
// redeemed.
const sessionCookieName = "user_session"

// SessionAuth validates the user_session cookie and stores the bound
// user id under "user_id" in the request context.  Requests without a
// valid cookie are rejected with 401 before reaching the handler.
func SessionAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			userID, err := utils.ParseLoginToken(secret, cookie.Value)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
			}
			c.Set("user_id", userID)
			return next(c)
		}
	}
}
