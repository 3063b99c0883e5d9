package engine

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ride-booking/internal/booking/domain"
	"ride-booking/internal/booking/store"
	"ride-booking/pkg/logger"
)

// historyKey is the single store key holding the serialized booking history.
const historyKey = "bookingHistory"

// EventPublisher is the interface for publishing booking events. Delivery is
// best-effort; the booking is already durable when an event goes out.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

// Engine owns the current booking and the complete booking history. It is
// constructed with an injected store handle; there is no ambient global
// state. All history mutations serialize behind one mutex, and the store
// write happens inside the critical section so the in-memory state can never
// run ahead of the durable copy.
type Engine struct {
	store     store.Store
	log       logger.Logger
	publisher EventPublisher

	mu      sync.Mutex
	current *domain.Booking
	history []domain.Booking
	stats   domain.BookingStats
}

// New creates an engine. The publisher may be nil when no broker is wired.
func New(st store.Store, log logger.Logger, publisher EventPublisher) *Engine {
	return &Engine{
		store:     st,
		log:       log,
		publisher: publisher,
		stats:     domain.ComputeStats(nil),
	}
}

// LoadHistory reads the durable history blob. An absent key is not an
// error: the history starts empty. Unparseable data is reported as a
// CorruptDataError and the engine keeps its previous in-memory state; the
// recovery policy belongs to the caller.
func (e *Engine) LoadHistory(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw, err := e.store.Get(ctx, historyKey)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			e.history = nil
			e.stats = domain.ComputeStats(nil)
			e.log.Info("history_empty", "No stored booking history, starting empty")
			return nil
		}
		return &domain.StoreReadError{Err: err}
	}

	var history []domain.Booking
	if err := json.Unmarshal(raw, &history); err != nil {
		return &domain.CorruptDataError{Err: err}
	}

	e.history = history
	e.stats = domain.ComputeStats(history)
	e.log.WithFields(logger.LogFields{
		"bookings": len(history),
	}).Info("history_loaded", "Booking history loaded")
	return nil
}

// ClearCurrentBooking drops the current-booking reference. In-memory only;
// history and the store are untouched.
func (e *Engine) ClearCurrentBooking() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
}

// CurrentBooking returns a copy of the current booking, or nil.
func (e *Engine) CurrentBooking() *domain.Booking {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	cp := *e.current
	return &cp
}

// History returns a snapshot of the booking history, most recent first.
func (e *Engine) History() []domain.Booking {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Stats returns the aggregate statistics for the current history.
func (e *Engine) Stats() domain.BookingStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// FilteredHistory applies the status filter and inclusive date range to a
// snapshot of history. Read-only, no store access.
func (e *Engine) FilteredHistory(statusFilter string, dateRange *domain.DateRange) []domain.Booking {
	e.mu.Lock()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	return domain.FilterHistory(snapshot, statusFilter, dateRange)
}

func (e *Engine) snapshotLocked() []domain.Booking {
	cp := make([]domain.Booking, len(e.history))
	copy(cp, e.history)
	return cp
}

// persistLocked writes the given history through to the store. Callers hold
// the mutex and roll back on error.
func (e *Engine) persistLocked(ctx context.Context, history []domain.Booking) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, historyKey, raw)
}

func (e *Engine) publish(ctx context.Context, event domain.DomainEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		// The booking is already durable, event delivery is best-effort.
		e.log.WithFields(logger.LogFields{
			"event_type": event.EventType(),
		}).Error("publish_event_failed", err)
	}
}

// newBookingID generates an opaque unique booking id using crypto/rand.
func newBookingID() string {
	b := make([]byte, 16)
	rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40 // Version 4
	b[8] = (b[8] & 0x3f) | 0x80 // Variant RFC4122
	return fmt.Sprintf("booking_%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
