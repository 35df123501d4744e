package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/creation-fund/internal/model"
)

// TicketRepo provides data access to the `tickets` table.  It
// implements the reservation engine's TicketStore contract: tickets
// are inserted once and only ever transition status afterwards, never
// deleted, so cancelled rows remain as an audit trail.  All timestamps
// are stored in UTC.
type TicketRepo struct{ db *sql.DB }

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, event_id, user_id, status, created_at`

func collectTickets(rows *sql.Rows) ([]model.Ticket, error) {
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.EventID, &t.UserID, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByEvent returns every ticket for an event, cancelled ones
// included, ordered by creation time.  The engine derives the sold
// count from this fresh read on every admission decision.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = ? ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// ListByEventAndUser returns all tickets a user holds for an event,
// cancelled ones included.
func (r *TicketRepo) ListByEventAndUser(ctx context.Context, eventID, userID string) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = ? AND user_id = ? ORDER BY created_at`,
		eventID, userID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// Insert persists a new ticket row.  The caller supplies the id and
// the UTC creation time.
func (r *TicketRepo) Insert(ctx context.Context, t *model.Ticket) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, event_id, user_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.EventID, t.UserID, t.Status, t.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// UpdateStatus applies a status transition to a single ticket.
func (r *TicketRepo) UpdateStatus(ctx context.Context, ticketID, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE id = ?`, status, ticketID)
	return err
}

// UserTicketDetail is a ticket joined with its event for display in
// the "my tickets" listing.
type UserTicketDetail struct {
	ID         string  `json:"id"`
	EventID    string  `json:"event_id"`
	EventTitle string  `json:"event_title"`
	EventDate  string  `json:"event_date"`
	Location   *string `json:"location,omitempty"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

// ListByUser returns all tickets belonging to a user together with
// event title, date and location, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID string) ([]UserTicketDetail, error) {
	const q = `SELECT t.id, t.event_id, e.title, e.event_date, e.location, t.status, t.created_at
	           FROM tickets t
	           JOIN celebration_events e ON e.id = t.event_id
	           WHERE t.user_id = ?
	           ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserTicketDetail, 0)
	for rows.Next() {
		var d UserTicketDetail
		var location sql.NullString
		var eventDate, createdAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.EventID, &d.EventTitle, &eventDate, &location, &d.Status, &createdAt); err != nil {
			return nil, err
		}
		if location.Valid {
			d.Location = &location.String
		}
		if eventDate.Valid {
			d.EventDate = eventDate.Time.UTC().Format("2006-01-02")
		}
		if createdAt.Valid {
			d.CreatedAt = createdAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasActiveTicket reports whether the user holds a non-cancelled ticket
// for the event.  Used by the public event detail endpoint.
func (r *TicketRepo) HasActiveTicket(ctx context.Context, eventID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE event_id = ? AND user_id = ? AND status <> ?`,
		eventID, userID, model.TicketCancelled).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
