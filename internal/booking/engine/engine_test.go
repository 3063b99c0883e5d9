package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ride-booking/internal/booking/domain"
	"ride-booking/internal/booking/store"
	"ride-booking/pkg/logger"
)

// failingStore wraps a working store and fails writes on demand.
type failingStore struct {
	inner   store.Store
	failSet bool
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return f.inner.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.inner.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []domain.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return New(st, logger.NewLogger("booking-service-test"), nil), st
}

func TestCreateBookingPrependsToHistory(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 200})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	history := eng.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(history))
	}
	if history[0].ID != second.ID {
		t.Fatalf("expected most recent booking first, got %s", history[0].ID)
	}
	if history[1].ID != first.ID {
		t.Fatalf("expected oldest booking last, got %s", history[1].ID)
	}

	if history[0].Status != domain.StatusActive {
		t.Fatalf("expected active status, got %s", history[0].Status)
	}
	if len(history[0].OTP) != 4 {
		t.Fatalf("expected 4 digit OTP, got %q", history[0].OTP)
	}
	if !strings.HasPrefix(history[0].ID, "booking_") {
		t.Fatalf("unexpected booking id %q", history[0].ID)
	}

	current := eng.CurrentBooking()
	if current == nil || current.ID != second.ID {
		t.Fatalf("expected current booking %s, got %+v", second.ID, current)
	}
}

func TestCreateBookingPersistsHistory(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	booking, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 150})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	raw, err := st.Get(ctx, "bookingHistory")
	if err != nil {
		t.Fatalf("expected persisted history: %v", err)
	}

	var persisted []domain.Booking
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("persisted history not valid JSON: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != booking.ID {
		t.Fatalf("unexpected persisted history: %+v", persisted)
	}
}

func TestCreateBookingWriteFailureLeavesStateClean(t *testing.T) {
	st := &failingStore{inner: store.NewMemory(), failSet: true}
	eng := New(st, logger.NewLogger("booking-service-test"), nil)
	ctx := context.Background()

	_, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100})

	var writeErr *domain.StoreWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StoreWriteError, got %v", err)
	}
	if eng.CurrentBooking() != nil {
		t.Fatalf("expected no current booking after failed create")
	}
	if len(eng.History()) != 0 {
		t.Fatalf("expected empty history after failed create")
	}
}

func TestUpdateBookingStatusUnknownID(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := eng.UpdateBookingStatus(ctx, "booking_missing", domain.StatusCompleted, domain.UpdateFields{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	history := eng.History()
	if len(history) != 1 || history[0].Status != domain.StatusActive {
		t.Fatalf("history changed on unknown id update: %+v", history)
	}
}

func TestUpdateBookingStatusRejectsInvalidStatus(t *testing.T) {
	eng, _ := newTestEngine(t)

	err := eng.UpdateBookingStatus(context.Background(), "b1", domain.Status("teleported"), domain.UpdateFields{})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCompleteBookingSetsRatingAndFeedback(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	older, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 80})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	target, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 120})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := eng.CompleteBooking(ctx, target.ID, 4.5, "great driver"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	history := eng.History()
	if history[0].ID != target.ID {
		t.Fatalf("booking moved in history: %s", history[0].ID)
	}
	if history[0].Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", history[0].Status)
	}
	if history[0].Rating == nil || *history[0].Rating != 4.5 {
		t.Fatalf("expected rating 4.5, got %v", history[0].Rating)
	}
	if history[0].Feedback != "great driver" {
		t.Fatalf("expected feedback, got %q", history[0].Feedback)
	}
	if history[0].CompletedAt == nil || history[0].UpdatedAt == nil {
		t.Fatalf("expected completedAt and updatedAt set")
	}

	// Other records untouched.
	if history[1].ID != older.ID || history[1].Status != domain.StatusActive {
		t.Fatalf("unrelated booking changed: %+v", history[1])
	}

	// The current booking mirrors the update.
	current := eng.CurrentBooking()
	if current == nil || current.Status != domain.StatusCompleted {
		t.Fatalf("current booking not mirrored: %+v", current)
	}
}

func TestCancelBookingSetsReason(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	booking, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 90})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := eng.CancelBooking(ctx, booking.ID, "driver unavailable"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	history := eng.History()
	if history[0].Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", history[0].Status)
	}
	if history[0].CancelReason != "driver unavailable" {
		t.Fatalf("expected cancel reason, got %q", history[0].CancelReason)
	}
	if history[0].CancelledAt == nil {
		t.Fatalf("expected cancelledAt set")
	}
}

func TestUpdateBookingStatusRollsBackOnWriteFailure(t *testing.T) {
	st := &failingStore{inner: store.NewMemory()}
	eng := New(st, logger.NewLogger("booking-service-test"), nil)
	ctx := context.Background()

	booking, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	st.failSet = true
	err = eng.CompleteBooking(ctx, booking.ID, 5, "")

	var writeErr *domain.StoreWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StoreWriteError, got %v", err)
	}

	history := eng.History()
	if history[0].Status != domain.StatusActive {
		t.Fatalf("history not rolled back: %s", history[0].Status)
	}
	current := eng.CurrentBooking()
	if current == nil || current.Status != domain.StatusActive {
		t.Fatalf("current booking not rolled back: %+v", current)
	}
}

func TestStatsRecomputedOnTransitions(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	b1, _ := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100})
	b2, _ := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 200})

	if stats := eng.Stats(); stats.TotalRides != 0 {
		t.Fatalf("active bookings must not count, got %d rides", stats.TotalRides)
	}

	if err := eng.CompleteBooking(ctx, b1.ID, 4, ""); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := eng.CompleteBooking(ctx, b2.ID, 5, ""); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	stats := eng.Stats()
	if stats.TotalRides != 2 {
		t.Fatalf("expected 2 rides, got %d", stats.TotalRides)
	}
	if stats.TotalAmount != 300 {
		t.Fatalf("expected total 300, got %f", stats.TotalAmount)
	}
	if stats.AverageRating != "4.5" {
		t.Fatalf("expected average 4.5, got %s", stats.AverageRating)
	}
}

func TestLoadHistoryAbsentKey(t *testing.T) {
	eng, _ := newTestEngine(t)

	if err := eng.LoadHistory(context.Background()); err != nil {
		t.Fatalf("expected no error for absent history, got %v", err)
	}
	if len(eng.History()) != 0 {
		t.Fatalf("expected empty history")
	}
	if stats := eng.Stats(); stats.AverageRating != "0.0" {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
}

func TestLoadHistoryRestoresState(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	rating := 5.0
	seed := []domain.Booking{
		{ID: "b2", Status: domain.StatusCompleted, TotalAmount: 300, Rating: &rating},
		{ID: "b1", Status: domain.StatusCancelled, TotalAmount: 100},
	}
	raw, _ := json.Marshal(seed)
	if err := st.Set(ctx, "bookingHistory", raw); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	eng := New(st, logger.NewLogger("booking-service-test"), nil)
	if err := eng.LoadHistory(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	history := eng.History()
	if len(history) != 2 || history[0].ID != "b2" {
		t.Fatalf("unexpected restored history: %+v", history)
	}

	stats := eng.Stats()
	if stats.TotalRides != 1 || stats.TotalAmount != 300 || stats.AverageRating != "5.0" {
		t.Fatalf("stats not recomputed on load: %+v", stats)
	}
}

func TestLoadHistoryCorruptData(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	if err := st.Set(ctx, "bookingHistory", []byte("{not json")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	eng := New(st, logger.NewLogger("booking-service-test"), nil)
	err := eng.LoadHistory(ctx)

	var corrupt *domain.CorruptDataError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptDataError, got %v", err)
	}
	if len(eng.History()) != 0 {
		t.Fatalf("expected history untouched after corrupt load")
	}
}

func TestClearCurrentBookingKeepsHistory(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	eng.ClearCurrentBooking()

	if eng.CurrentBooking() != nil {
		t.Fatalf("expected current booking cleared")
	}
	if len(eng.History()) != 1 {
		t.Fatalf("history must survive clearing the current booking")
	}
	if _, err := st.Get(ctx, "bookingHistory"); err != nil {
		t.Fatalf("persisted history must survive clearing: %v", err)
	}
}

func TestFilteredHistory(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	b1, _ := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100})
	if _, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 200}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := eng.CompleteBooking(ctx, b1.ID, 4, ""); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	completed := eng.FilteredHistory("completed", nil)
	if len(completed) != 1 || completed[0].ID != b1.ID {
		t.Fatalf("unexpected filtered history: %+v", completed)
	}

	all := eng.FilteredHistory("all", nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 bookings for all, got %d", len(all))
	}
}

func TestEventsPublishedOnLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	eng := New(store.NewMemory(), logger.NewLogger("booking-service-test"), pub)
	ctx := context.Background()

	booking, err := eng.CreateBooking(ctx, CreateBookingRequest{TotalAmount: 100})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := eng.CompleteBooking(ctx, booking.ID, 5, ""); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[0].EventType() != "booking.created" {
		t.Fatalf("expected booking.created, got %s", pub.events[0].EventType())
	}

	changed, ok := pub.events[1].(domain.BookingStatusChangedEvent)
	if !ok {
		t.Fatalf("expected BookingStatusChangedEvent, got %T", pub.events[1])
	}
	if changed.OldStatus != domain.StatusActive || changed.NewStatus != domain.StatusCompleted {
		t.Fatalf("unexpected transition: %s -> %s", changed.OldStatus, changed.NewStatus)
	}
}
