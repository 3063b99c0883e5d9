package engine

import (
	"context"
	"time"

	"ride-booking/internal/booking/domain"
	"ride-booking/pkg/logger"
)

// CreateBookingRequest carries the caller-supplied fare plus the opaque ride
// payload, passed through unchanged.
type CreateBookingRequest struct {
	TotalAmount float64
	Pickup      *domain.Location
	Dropoff     *domain.Location
	Vehicle     *domain.Vehicle
	Driver      *domain.Driver
}

// CreateBooking synthesizes a new active booking with a fresh id and OTP,
// makes it the current booking and prepends it to history. The history is
// written through before the call is considered successful: on a write
// failure the history stays as it was and the current-booking reference is
// reset, never left pointing at an unpersisted booking.
func (e *Engine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	now := time.Now()
	booking := domain.Booking{
		ID:          newBookingID(),
		Status:      domain.StatusActive,
		CreatedAt:   now,
		OTP:         domain.GenerateOTP(),
		TotalAmount: req.TotalAmount,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		Vehicle:     req.Vehicle,
		Driver:      req.Driver,
	}

	e.mu.Lock()
	updated := make([]domain.Booking, 0, len(e.history)+1)
	updated = append(updated, booking)
	updated = append(updated, e.history...)

	if err := e.persistLocked(ctx, updated); err != nil {
		e.current = nil
		e.mu.Unlock()
		e.log.WithFields(logger.LogFields{
			"booking_id": booking.ID,
		}).Error("create_booking_persist_failed", err)
		return nil, &domain.StoreWriteError{Err: err}
	}

	e.history = updated
	e.stats = domain.ComputeStats(updated)
	current := booking
	e.current = &current
	e.mu.Unlock()

	e.log.WithFields(logger.LogFields{
		"booking_id": booking.ID,
	}).Info("booking_created", "Booking created")

	e.publish(ctx, domain.BookingCreatedEvent{Booking: booking, CreatedAt: now})

	result := booking
	return &result, nil
}

// UpdateBookingStatus merges a new status and optional extra fields onto the
// booking with the given id, replacing it in place (same position in
// history). An unknown id is a soft no-op signalled via ErrNotFound. On a
// write failure, history and the current booking roll back to their
// pre-update values. There is no guard on the prior status; re-applying a
// terminal transition is a deterministic merge.
func (e *Engine) UpdateBookingStatus(ctx context.Context, id string, status domain.Status, extra domain.UpdateFields) error {
	if !status.IsValid() {
		return domain.ErrInvalidStatus
	}
	now := time.Now()

	e.mu.Lock()
	idx := -1
	for i := range e.history {
		if e.history[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		e.log.WithFields(logger.LogFields{
			"booking_id": id,
		}).Debug("update_status_not_found", "Booking not in history, nothing to update")
		return domain.ErrNotFound
	}

	prevHistory := e.history
	prevCurrent := e.current
	oldStatus := prevHistory[idx].Status

	if oldStatus.IsTerminal() {
		// No transition guard: re-applying a terminal transition is a
		// deterministic merge.
		e.log.WithFields(logger.LogFields{
			"booking_id": id,
			"old_status": oldStatus.String(),
		}).Debug("update_status_terminal", "Re-applying transition on a terminal booking")
	}

	updated := make([]domain.Booking, len(prevHistory))
	copy(updated, prevHistory)
	updated[idx] = prevHistory[idx].Merged(status, extra, now)

	if err := e.persistLocked(ctx, updated); err != nil {
		e.history = prevHistory
		e.current = prevCurrent
		e.mu.Unlock()
		e.log.WithFields(logger.LogFields{
			"booking_id": id,
		}).Error("update_status_persist_failed", err)
		return &domain.StoreWriteError{Err: err}
	}

	e.history = updated
	if e.current != nil && e.current.ID == id {
		merged := updated[idx]
		e.current = &merged
	}
	e.stats = domain.ComputeStats(updated)
	e.mu.Unlock()

	e.log.WithFields(logger.LogFields{
		"booking_id": id,
		"old_status": oldStatus.String(),
		"new_status": status.String(),
	}).Info("booking_status_updated", "Booking status updated")

	e.publish(ctx, domain.BookingStatusChangedEvent{
		BookingID: id,
		OldStatus: oldStatus,
		NewStatus: status,
		ChangedAt: now,
	})
	return nil
}

// CompleteBooking transitions a booking to completed with the rider's rating
// and feedback.
func (e *Engine) CompleteBooking(ctx context.Context, id string, rating float64, feedback string) error {
	now := time.Now()
	return e.UpdateBookingStatus(ctx, id, domain.StatusCompleted, domain.UpdateFields{
		Rating:      &rating,
		Feedback:    feedback,
		CompletedAt: &now,
	})
}

// CancelBooking transitions a booking to cancelled with a reason.
func (e *Engine) CancelBooking(ctx context.Context, id string, reason string) error {
	now := time.Now()
	return e.UpdateBookingStatus(ctx, id, domain.StatusCancelled, domain.UpdateFields{
		CancelReason: reason,
		CancelledAt:  &now,
	})
}
