package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/creation-fund/internal/model"
)

// EventRepo provides data access to the `celebration_events` table.
// Besides the minimal capacity projection consumed by the reservation
// engine, it builds the joined list/detail views served by the public
// browse endpoints.
type EventRepo struct{ db *sql.DB }

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetCapacity resolves the id and capacity of an event for admission
// control.  Returns (nil, nil) when the event does not exist.
func (r *EventRepo) GetCapacity(ctx context.Context, eventID string) (*model.EventCapacity, error) {
	var ec model.EventCapacity
	err := r.db.QueryRowContext(ctx,
		`SELECT id, capacity FROM celebration_events WHERE id = ? LIMIT 1`, eventID).
		Scan(&ec.ID, &ec.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ec, nil
}

// EventSummary is an event row joined with its cycle title and the
// current count of non-cancelled tickets, as shown in listings.
type EventSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	EventDate   string  `json:"event_date"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	Location    *string `json:"location,omitempty"`
	Capacity    int     `json:"capacity"`
	TicketPrice int     `json:"ticket_price"`
	TicketsSold int     `json:"tickets_sold"`
	ImageURL    *string `json:"image_url,omitempty"`
	CycleID     *string `json:"cycle_id,omitempty"`
	CycleTitle  *string `json:"cycle_title,omitempty"`
}

const eventSummaryColumns = `e.id, e.title, e.description, e.event_date, e.start_time, e.end_time,
	       e.location, e.capacity, e.ticket_price, e.image_url, e.cycle_id, c.title,
	       (SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id AND t.status <> 'cancelled')`

func scanEventSummary(scan func(dest ...any) error) (*EventSummary, error) {
	var s EventSummary
	var description, startTime, endTime, location, imageURL, cycleID, cycleTitle sql.NullString
	var eventDate time.Time
	err := scan(&s.ID, &s.Title, &description, &eventDate, &startTime, &endTime,
		&location, &s.Capacity, &s.TicketPrice, &imageURL, &cycleID, &cycleTitle, &s.TicketsSold)
	if err != nil {
		return nil, err
	}
	s.EventDate = eventDate.UTC().Format("2006-01-02")
	if description.Valid {
		s.Description = &description.String
	}
	if startTime.Valid {
		s.StartTime = &startTime.String
	}
	if endTime.Valid {
		s.EndTime = &endTime.String
	}
	if location.Valid {
		s.Location = &location.String
	}
	if imageURL.Valid {
		s.ImageURL = &imageURL.String
	}
	if cycleID.Valid {
		s.CycleID = &cycleID.String
	}
	if cycleTitle.Valid {
		s.CycleTitle = &cycleTitle.String
	}
	return &s, nil
}

// List returns events with cycle titles and sold counts.  Upcoming
// events (event_date today or later) come in ascending date order;
// when past is true, events before today come newest first.  An
// optional cycleID restricts the listing to one cycle.
func (r *EventRepo) List(ctx context.Context, past bool, cycleID string) ([]EventSummary, error) {
	q := `SELECT ` + eventSummaryColumns + `
	      FROM celebration_events e
	      LEFT JOIN cycles c ON c.id = e.cycle_id
	      WHERE e.event_date ` // date comparison appended below
	args := make([]any, 0, 2)
	if past {
		q += `< CURDATE()`
	} else {
		q += `>= CURDATE()`
	}
	if cycleID != "" {
		q += ` AND e.cycle_id = ?`
		args = append(args, cycleID)
	}
	if past {
		q += ` ORDER BY e.event_date DESC`
	} else {
		q += ` ORDER BY e.event_date`
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventSummary, 0)
	for rows.Next() {
		s, err := scanEventSummary(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSummary returns one event with its cycle title and sold count.
// Returns (nil, nil) when the event does not exist.
func (r *EventRepo) GetSummary(ctx context.Context, eventID string) (*EventSummary, error) {
	q := `SELECT ` + eventSummaryColumns + `
	      FROM celebration_events e
	      LEFT JOIN cycles c ON c.id = e.cycle_id
	      WHERE e.id = ? LIMIT 1`
	s, err := scanEventSummary(r.db.QueryRowContext(ctx, q, eventID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
