package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"ride-booking/internal/booking/domain"
	"ride-booking/pkg/logger"
	"ride-booking/pkg/rabbitmq"
)

// RabbitMQEventPublisher implements engine.EventPublisher on top of the
// booking_topic exchange.
type RabbitMQEventPublisher struct {
	rabbit *rabbitmq.Connection
	logger logger.Logger
}

func NewRabbitMQEventPublisher(rabbit *rabbitmq.Connection, logger logger.Logger) *RabbitMQEventPublisher {
	return &RabbitMQEventPublisher{
		rabbit: rabbit,
		logger: logger,
	}
}

// Publish converts a booking event to a message and publishes it.
func (p *RabbitMQEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	message, routingKey := p.eventToMessage(event)
	if message == nil {
		return fmt.Errorf("unsupported event type: %s", event.EventType())
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.rabbit.Publish(ctx, "booking_topic", routingKey, body); err != nil {
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	p.logger.WithFields(logger.LogFields{
		"event_type":  event.EventType(),
		"routing_key": routingKey,
	}).Info("event_published", "Booking event published to RabbitMQ")

	return nil
}

func (p *RabbitMQEventPublisher) eventToMessage(event domain.DomainEvent) (interface{}, string) {
	switch e := event.(type) {
	case domain.BookingCreatedEvent:
		msg := map[string]interface{}{
			"booking_id":   e.Booking.ID,
			"status":       e.Booking.Status.String(),
			"total_amount": e.Booking.TotalAmount,
			"otp":          e.Booking.OTP,
			"created_at":   e.CreatedAt,
		}
		if e.Booking.Pickup != nil {
			msg["pickup_location"] = map[string]interface{}{
				"latitude":  e.Booking.Pickup.Latitude,
				"longitude": e.Booking.Pickup.Longitude,
				"address":   e.Booking.Pickup.Address,
			}
		}
		if e.Booking.Dropoff != nil {
			msg["dropoff_location"] = map[string]interface{}{
				"latitude":  e.Booking.Dropoff.Latitude,
				"longitude": e.Booking.Dropoff.Longitude,
				"address":   e.Booking.Dropoff.Address,
			}
		}
		return msg, fmt.Sprintf("booking.created.%s", e.Booking.ID)

	case domain.BookingStatusChangedEvent:
		return map[string]interface{}{
			"booking_id": e.BookingID,
			"old_status": e.OldStatus.String(),
			"new_status": e.NewStatus.String(),
			"changed_at": e.ChangedAt,
		}, fmt.Sprintf("booking.status.%s", e.NewStatus.String())

	default:
		return nil, ""
	}
}
