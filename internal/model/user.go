package model

import "time"

// User represents a member of the creation fund community.  Users are
// provisioned by the companion app and authenticate here through a
// wallet-signature handshake; there is no password credential.  This
// struct corresponds to a row in the `users` table.
//
// Fields:
//  ID             – primary key identifier (opaque text id).
//  Username       – optional handle shown on creator listings.
//  DisplayName    – optional display name editable in the app.
//  PfpURL         – optional profile picture URL.
//  AccountAddress – optional wallet address used for QR login.
//  Role           – 'user', 'organizer' or 'admin'.
//  Status         – 'active', 'inactive' or 'banned'.
type User struct {
	ID             string    // users.id
	Username       *string   // users.username
	DisplayName    *string   // users.display_name
	PfpURL         *string   // users.pfp_url
	AccountAddress *string   // users.account_address
	Role           string    // users.role
	Status         string    // users.status
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}
