package domain

import "time"

// DomainEvent is the interface for all booking events.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// BookingCreatedEvent is raised when a new booking is created.
type BookingCreatedEvent struct {
	Booking   Booking
	CreatedAt time.Time
}

func (e BookingCreatedEvent) EventType() string {
	return "booking.created"
}

func (e BookingCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// BookingStatusChangedEvent is raised when a booking transitions.
type BookingStatusChangedEvent struct {
	BookingID string
	OldStatus Status
	NewStatus Status
	ChangedAt time.Time
}

func (e BookingStatusChangedEvent) EventType() string {
	return "booking.status.changed"
}

func (e BookingStatusChangedEvent) OccurredAt() time.Time {
	return e.ChangedAt
}
