// Package reservation implements admission control for celebration
// event tickets: capacity-bounded reservation and per-user uniqueness.
// The engine never caches ticket state across requests; every decision
// is made against a fresh read through the injected stores.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/creation-fund/internal/model"
)

// Sentinel errors for business-rule rejections.  They are terminal and
// never retried; transient store failures propagate as wrapped errors.
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrAlreadyHasTicket = errors.New("user already has an active ticket")
	ErrSoldOut          = errors.New("event is sold out")
	ErrNoActiveTicket   = errors.New("no active ticket for this event")
)

// EventStore resolves an event's id and capacity.  GetCapacity returns
// (nil, nil) when the event does not exist.
type EventStore interface {
	GetCapacity(ctx context.Context, eventID string) (*model.EventCapacity, error)
}

// TicketStore is the persistent ticket collaborator.  Tickets are never
// deleted; UpdateStatus performs the soft cancellation transition.
type TicketStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error)
	ListByEventAndUser(ctx context.Context, eventID, userID string) ([]model.Ticket, error)
	Insert(ctx context.Context, t *model.Ticket) error
	UpdateStatus(ctx context.Context, ticketID, status string) error
}

// Engine enforces the two ticket invariants: an event's non-cancelled
// ticket count never exceeds its capacity, and a user never holds two
// simultaneously active tickets for the same event.  The check-then-
// write sequence is serialized per event through a keyed mutex, so two
// concurrent reservations cannot both observe room and both insert.
type Engine struct {
	events  EventStore
	tickets TicketStore
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // one lock per event id
}

// NewEngine wires the engine to its stores.  When now is nil the
// system clock in UTC is used.
func NewEngine(events EventStore, tickets TicketStore, now func() time.Time) *Engine {
	if events == nil || tickets == nil {
		panic("nil store passed to reservation.NewEngine")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		events:  events,
		tickets: tickets,
		now:     now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// eventLock returns the mutex guarding an event's critical section.
// Locks are created on first use and kept for the process lifetime;
// the set is bounded by the number of events.
func (e *Engine) eventLock(eventID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[eventID] = l
	}
	return l
}

// Reserve admits a user to an event if they hold no active ticket and
// the event still has room.  On success a new ticket with status
// "reserved" is inserted and returned.  Both checks re-read live state
// under the event lock, so capacity can never be overshot.
func (e *Engine) Reserve(ctx context.Context, eventID, userID string) (*model.Ticket, error) {
	event, err := e.events.GetCapacity(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	lock := e.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.tickets.ListByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("list user tickets: %w", err)
	}
	for _, t := range existing {
		if t.IsActive() {
			return nil, ErrAlreadyHasTicket
		}
	}

	all, err := e.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event tickets: %w", err)
	}
	sold := 0
	for _, t := range all {
		if t.IsActive() {
			sold++
		}
	}
	if sold >= event.Capacity {
		return nil, ErrSoldOut
	}

	ticket := &model.Ticket{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		Status:    model.TicketReserved,
		CreatedAt: e.now(),
	}
	if err := e.tickets.Insert(ctx, ticket); err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	return ticket, nil
}

// Cancel soft-deletes the user's active ticket for an event.  The row
// is kept with status "cancelled" to preserve the admission history.
// Cancelling without an active ticket is rejected, not silently
// accepted; cancellation is deliberately not idempotent.
func (e *Engine) Cancel(ctx context.Context, eventID, userID string) (*model.Ticket, error) {
	event, err := e.events.GetCapacity(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	lock := e.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.tickets.ListByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("list user tickets: %w", err)
	}
	var active *model.Ticket
	for i := range existing {
		if existing[i].IsActive() {
			active = &existing[i]
			break
		}
	}
	if active == nil {
		return nil, ErrNoActiveTicket
	}

	if err := e.tickets.UpdateStatus(ctx, active.ID, model.TicketCancelled); err != nil {
		return nil, fmt.Errorf("cancel ticket: %w", err)
	}
	cancelled := *active
	cancelled.Status = model.TicketCancelled
	return &cancelled, nil
}
