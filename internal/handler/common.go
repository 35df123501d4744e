package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's id from the Echo context.
// SessionAuth middleware stores it under "user_id" after validating the
// login cookie; a missing or mistyped value means the request is not
// authenticated.
func getUserID(c echo.Context) (string, error) {
	v := c.Get("user_id")
	id, ok := v.(string)
	if !ok || id == "" {
		return "", errors.New("no authenticated user in context")
	}
	return id, nil
}
