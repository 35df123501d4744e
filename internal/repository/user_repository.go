package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/creation-fund/internal/model"
)

// UserRepo provides read access to the `users` table.  Users are
// provisioned out of band by the companion app; this service only ever
// looks them up to resolve QR logins and browse responses.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, display_name, pfp_url, account_address, role, status, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var username, displayName, pfpURL, address sql.NullString
	err := row.Scan(&u.ID, &username, &displayName, &pfpURL, &address,
		&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if username.Valid {
		u.Username = &username.String
	}
	if displayName.Valid {
		u.DisplayName = &displayName.String
	}
	if pfpURL.Valid {
		u.PfpURL = &pfpURL.String
	}
	if address.Valid {
		u.AccountAddress = &address.String
	}
	return &u, nil
}

// ByWalletAddress fetches the user owning a wallet address.  The
// comparison is case-insensitive because addresses arrive in mixed
// checksum casing.  Returns (nil, nil) when no user matches.
func (r *UserRepo) ByWalletAddress(ctx context.Context, address string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(account_address) = LOWER(?) LIMIT 1`,
		address)
	return scanUser(row)
}

// ByID fetches a user by id.  Returns (nil, nil) when absent.
func (r *UserRepo) ByID(ctx context.Context, id string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
	return scanUser(row)
}
