package model

import "time"

// Ticket status values.  Cancellation is a soft transition; ticket rows
// are never deleted so the history of an event's admissions survives.
const (
	TicketReserved  = "reserved"
	TicketConfirmed = "confirmed"
	TicketCancelled = "cancelled"
)

// Ticket represents a reservation of one seat at a celebration event.
// For a given (EventID, UserID) pair at most one ticket may be in a
// non-cancelled status at any time.  Corresponds to a row in the
// `tickets` table.
type Ticket struct {
	ID        string    // tickets.id (uuid)
	EventID   string    // tickets.event_id
	UserID    string    // tickets.user_id
	Status    string    // tickets.status
	CreatedAt time.Time // tickets.created_at
}

// IsActive reports whether the ticket counts against the event's
// capacity, i.e. it has not been cancelled.
func (t Ticket) IsActive() bool { return t.Status != TicketCancelled }
