// Package auth implements the QR cross-device login protocol.  A
// browser creates a handshake session and renders its token as a QR
// code; the companion app signs a challenge derived from the token with
// the user's wallet key and submits the signature here.  Private key
// material never crosses the wire; the signer is re-derived from the
// signature and compared against the claimed address.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/creation-fund/internal/model"
	"github.com/iliyamo/creation-fund/internal/session"
	"github.com/iliyamo/creation-fund/internal/utils"
)

// Sentinel errors reported to the companion endpoint.  Each one maps to
// a specific HTTP response; a failed attempt never mutates the session.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrAddressMismatch     = errors.New("signature does not match provided address")
	ErrUserAddressMismatch = errors.New("user id does not match public address")
	ErrUserNotFound        = errors.New("user not found")
)

// UserStore is the user-lookup collaborator.  Both methods return
// (nil, nil) when no matching user exists; a non-nil error indicates a
// transient store failure, which callers surface distinctly from the
// business sentinels above.
type UserStore interface {
	ByWalletAddress(ctx context.Context, address string) (*model.User, error)
	ByID(ctx context.Context, id string) (*model.User, error)
}

// RecoverFunc derives the signer's address from a challenge message and
// a 65-byte signature.  It is pluggable so tests and future chains can
// swap the scheme; the default is EIP-191 personal-message recovery.
type RecoverFunc func(message string, signature []byte) (string, error)

// Service bridges handshake sessions and the user store.
type Service struct {
	Sessions *session.Store
	Users    UserStore
	Recover  RecoverFunc // defaults to utils.RecoverPersonalSignAddress
}

// NewService wires the protocol to its collaborators.
func NewService(sessions *session.Store, users UserStore) *Service {
	if sessions == nil || users == nil {
		panic("nil collaborator passed to auth.NewService")
	}
	return &Service{Sessions: sessions, Users: users, Recover: utils.RecoverPersonalSignAddress}
}

// Result carries the minimal user info returned to the companion app.
// Nothing beyond id and username leaves the unauthenticated endpoint.
type Result struct {
	UserID   string
	Username string
}

// ChallengeMessage builds the canonical challenge for a token.  The
// signer and the verifier must derive byte-identical messages, so the
// format is fixed and depends on the token alone.
func ChallengeMessage(token string) string {
	return "Authenticate session: " + token
}

// Authenticate verifies a companion-app submission and, on success,
// marks the session authenticated with the resolved user.  The claimed
// publicAddress is never trusted: the signer is recovered from the
// signature and must match it case-insensitively.  When no user owns
// the recovered address and a userID hint is present, that user is
// loaded and its stored wallet address must match the recovered one.
func (s *Service) Authenticate(ctx context.Context, token, publicAddress, signatureHex, userID string) (Result, error) {
	if _, err := s.Sessions.Get(token); err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			return Result{}, ErrSessionExpired
		default:
			return Result{}, ErrSessionNotFound
		}
	}

	sig, err := utils.DecodeSignatureHex(signatureHex)
	if err != nil {
		return Result{}, ErrInvalidSignature
	}
	recover := s.Recover
	if recover == nil {
		recover = utils.RecoverPersonalSignAddress
	}
	recovered, err := recover(ChallengeMessage(token), sig)
	if err != nil {
		return Result{}, ErrInvalidSignature
	}
	if !strings.EqualFold(recovered, publicAddress) {
		return Result{}, ErrAddressMismatch
	}

	user, err := s.Users.ByWalletAddress(ctx, recovered)
	if err != nil {
		return Result{}, fmt.Errorf("lookup user by address: %w", err)
	}
	if user == nil && userID != "" {
		user, err = s.Users.ByID(ctx, userID)
		if err != nil {
			return Result{}, fmt.Errorf("lookup user by id: %w", err)
		}
		// Defense in depth: a userID hint must still prove ownership of
		// the recovered address.  A record without a wallet address can
		// never pass this check.
		if user != nil && (user.AccountAddress == nil || !strings.EqualFold(*user.AccountAddress, recovered)) {
			return Result{}, ErrUserAddressMismatch
		}
	}
	if user == nil {
		return Result{}, ErrUserNotFound
	}

	username := ""
	if user.Username != nil {
		username = *user.Username
	}
	address := recovered
	if user.AccountAddress != nil {
		address = *user.AccountAddress
	}
	if err := s.Sessions.MarkAuthenticated(token, user.ID, username, address); err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			return Result{}, ErrSessionExpired
		default:
			return Result{}, ErrSessionNotFound
		}
	}
	return Result{UserID: user.ID, Username: username}, nil
}
