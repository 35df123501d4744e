package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/creation-fund/internal/model"
)

// CycleRepo provides read access to the `cycles` and `cycle_artists`
// tables.  Cycles are authored elsewhere; this service only lists and
// resolves them for the browse endpoints.
type CycleRepo struct{ db *sql.DB }

// NewCycleRepo returns a new CycleRepo bound to the given database.
func NewCycleRepo(db *sql.DB) *CycleRepo { return &CycleRepo{db: db} }

// CycleCreator is a user participating in a cycle, as exposed in cycle
// and event detail responses.  Only display-safe fields are included.
type CycleCreator struct {
	ID          string  `json:"id"`
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	PfpURL      *string `json:"pfp_url,omitempty"`
	Role        string  `json:"role"` // 'lead' | 'collaborator'
}

// CycleDetail is a cycle joined with its ordered creator list.
type CycleDetail struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Slug              string         `json:"slug"`
	StartDate         string         `json:"start_date"`
	EndDate           string         `json:"end_date"`
	Status            string         `json:"status"`
	CreativeDirection *string        `json:"creative_direction,omitempty"`
	DocumentationURL  *string        `json:"documentation_url,omitempty"`
	Creators          []CycleCreator `json:"creators"`
}

const cycleColumns = `id, title, slug, start_date, end_date, status, creative_direction, documentation_url, created_at, updated_at`

func scanCycle(scan func(dest ...any) error) (*model.Cycle, error) {
	var c model.Cycle
	var direction, docURL sql.NullString
	err := scan(&c.ID, &c.Title, &c.Slug, &c.StartDate, &c.EndDate, &c.Status,
		&direction, &docURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if direction.Valid {
		c.CreativeDirection = &direction.String
	}
	if docURL.Valid {
		c.DocumentationURL = &docURL.String
	}
	return &c, nil
}

// List returns all cycles newest first, each with its creators.
func (r *CycleRepo) List(ctx context.Context) ([]CycleDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cycleColumns+` FROM cycles ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cycles := make([]model.Cycle, 0)
	for rows.Next() {
		c, err := scanCycle(rows.Scan)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]CycleDetail, 0, len(cycles))
	for _, c := range cycles {
		creators, err := r.CreatorsByCycle(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, cycleDetailOf(c, creators))
	}
	return out, nil
}

// GetByID returns one cycle with its creators, or (nil, nil) when the
// cycle does not exist.
func (r *CycleRepo) GetByID(ctx context.Context, id string) (*CycleDetail, error) {
	c, err := scanCycle(r.db.QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM cycles WHERE id = ? LIMIT 1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	creators, err := r.CreatorsByCycle(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	det := cycleDetailOf(*c, creators)
	return &det, nil
}

// CreatorsByCycle returns the cycle's creators, lead first, then
// collaborators in their configured order.
func (r *CycleRepo) CreatorsByCycle(ctx context.Context, cycleID string) ([]CycleCreator, error) {
	const q = `SELECT u.id, u.username, u.display_name, u.pfp_url, ca.role
	           FROM cycle_artists ca
	           JOIN users u ON u.id = ca.user_id
	           WHERE ca.cycle_id = ?
	           ORDER BY CASE ca.role WHEN 'lead' THEN 0 ELSE 1 END, ca.display_order`
	rows, err := r.db.QueryContext(ctx, q, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CycleCreator, 0)
	for rows.Next() {
		var cc CycleCreator
		var username, displayName, pfpURL sql.NullString
		if err := rows.Scan(&cc.ID, &username, &displayName, &pfpURL, &cc.Role); err != nil {
			return nil, err
		}
		if username.Valid {
			cc.Username = &username.String
		}
		if displayName.Valid {
			cc.DisplayName = &displayName.String
		}
		if pfpURL.Valid {
			cc.PfpURL = &pfpURL.String
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func cycleDetailOf(c model.Cycle, creators []CycleCreator) CycleDetail {
	return CycleDetail{
		ID:                c.ID,
		Title:             c.Title,
		Slug:              c.Slug,
		StartDate:         c.StartDate.UTC().Format(time.RFC3339),
		EndDate:           c.EndDate.UTC().Format(time.RFC3339),
		Status:            c.Status,
		CreativeDirection: c.CreativeDirection,
		DocumentationURL:  c.DocumentationURL,
		Creators:          creators,
	}
}
