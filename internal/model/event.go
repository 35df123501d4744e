package model

import "time"

// CelebrationEvent represents the capacity-bounded live event that ends
// a creation cycle.  Tickets for the event are sold up to Capacity;
// the count of non-cancelled tickets must never exceed it.  This
// struct corresponds to a row in the `celebration_events` table.
//
// Fields:
//  ID          – primary key identifier.
//  CycleID     – owning cycle.
//  Title       – event title.
//  Description – optional long description.
//  EventDate   – calendar date of the event in UTC.
//  StartTime, EndTime – optional display times (free-form text).
//  Location    – optional venue description.
//  Capacity    – fixed upper bound on active tickets.
//  TicketPrice – price in the smallest currency unit.
//  ImageURL    – optional poster image.
type CelebrationEvent struct {
	ID          string    // celebration_events.id
	CycleID     string    // celebration_events.cycle_id
	Title       string    // celebration_events.title
	Description *string   // celebration_events.description
	EventDate   time.Time // celebration_events.event_date
	StartTime   *string   // celebration_events.start_time
	EndTime     *string   // celebration_events.end_time
	Location    *string   // celebration_events.location
	Capacity    int       // celebration_events.capacity
	TicketPrice int       // celebration_events.ticket_price
	ImageURL    *string   // celebration_events.image_url
	CreatedAt   time.Time // celebration_events.created_at
	UpdatedAt   time.Time // celebration_events.updated_at
}

// EventCapacity is the minimal projection of a celebration event used
// by the reservation engine for admission control.
type EventCapacity struct {
	ID       string // celebration_events.id
	Capacity int    // celebration_events.capacity
}
