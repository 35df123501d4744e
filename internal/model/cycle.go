package model

import "time"

// Cycle represents a month-long creation cycle with a lead creator and
// zero or more collaborators.  Each cycle ends with a celebration
// event.  This struct corresponds to a row in the `cycles` table.
//
// Fields:
//  ID                – primary key identifier.
//  Title             – human readable cycle title.
//  Slug              – unique URL slug.
//  StartDate, EndDate – cycle boundaries in UTC.
//  Status            – 'draft', 'active' or 'completed'.
//  CreativeDirection – optional free-form description.
//  DocumentationURL  – optional link to process documentation.
type Cycle struct {
	ID                string    // cycles.id
	Title             string    // cycles.title
	Slug              string    // cycles.slug
	StartDate         time.Time // cycles.start_date
	EndDate           time.Time // cycles.end_date
	Status            string    // cycles.status
	CreativeDirection *string   // cycles.creative_direction
	DocumentationURL  *string   // cycles.documentation_url
	CreatedAt         time.Time // cycles.created_at
	UpdatedAt         time.Time // cycles.updated_at
}

// CycleArtist links a user to a cycle as its lead or a collaborator.
// Corresponds to a row in the `cycle_artists` table.  Order controls
// display position within the cycle's creator list.
type CycleArtist struct {
	ID      string // cycle_artists.id
	CycleID string // cycle_artists.cycle_id
	UserID  string // cycle_artists.user_id
	Role    string // cycle_artists.role ('lead' | 'collaborator')
	Order   int    // cycle_artists.display_order
}
