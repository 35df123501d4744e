// Package queue defines message payloads exchanged over the message broker.
package queue

// Ticket activity types carried in TicketActivityEvent.Type.
const (
	TicketReserved  = "reserved"
	TicketCancelled = "cancelled"
)

// TicketActivityEvent is published whenever a ticket is reserved or a
// reservation is cancelled.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type TicketActivityEvent struct {
	Type       string `json:"type"` // "reserved" | "cancelled"
	TicketID   string `json:"ticket_id"`
	EventID    string `json:"event_id"`
	EventTitle string `json:"event_title"`
	UserID     string `json:"user_id"`
	OccurredAt string `json:"occurred_at"`
}
