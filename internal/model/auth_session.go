package model

import "time"

// AuthSession is a short-lived cross-device login handshake.  The token
// is rendered as a QR code by the browser and submitted back by the
// companion app together with a wallet signature.  Sessions live only
// in process memory and never survive a restart.
//
// The Authenticated flag transitions false→true exactly once; there is
// no reverse transition.  UserID, Username and AccountAddress are
// populated at that moment.  Redeeming an authenticated session
// removes it from the store, so a token can establish at most one
// login.
type AuthSession struct {
	Token          string    // opaque 256-bit random identifier
	CreatedAt      time.Time // creation instant (UTC)
	ExpiresAt      time.Time // CreatedAt + TTL (UTC)
	Authenticated  bool      // set once by a verified signature
	UserID         string    // resolved user, set on authentication
	Username       string    // resolved username, may be empty
	AccountAddress string    // wallet address that signed the challenge
}
