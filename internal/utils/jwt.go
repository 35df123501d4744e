package utils // helpers for issuing and validating the login cookie token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// LoginToken represents the signed JWT placed in the user_session
// cookie when a handshake session is redeemed.  The Token field holds
// the serialized JWT; Exp is its UTC expiration and doubles as the
// cookie Max-Age source.
type LoginToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewLoginToken builds and signs an HS256 JWT for a redeemed handshake.
// It takes the signing secret, the resolved user ID and a TTL in hours.
// Claims are the standard subject (sub), expiration (exp) and issued at
// (iat).  There is no role claim; every cookie-holder is a plain
// community member.
func NewLoginToken(secret, userID string, ttlHours int) (LoginToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return LoginToken{}, err
	}
	return LoginToken{Token: signed, Exp: exp}, nil
}

// ParseLoginToken validates a login cookie value and returns the user
// ID from its subject claim.  Tokens signed with a different method or
// secret, expired tokens and tokens without a subject are rejected.
func ParseLoginToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", errors.New("invalid login token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing subject")
	}
	return sub, nil
}
