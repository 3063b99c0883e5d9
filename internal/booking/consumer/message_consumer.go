package consumer

import (
	"context"
	"encoding/json"
	"time"

	"ride-booking/pkg/logger"
	"ride-booking/pkg/rabbitmq"
	"ride-booking/pkg/websocket"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BookingConsumer relays driver-side updates to the rider's WebSocket. The
// booking engine is not involved: ride progress between active and terminal
// is display-only for the consumer app.
type BookingConsumer struct {
	rabbit *rabbitmq.Connection
	log    logger.Logger
	ws     *websocket.Manager
}

func New(rabbit *rabbitmq.Connection, log logger.Logger, ws *websocket.Manager) *BookingConsumer {
	return &BookingConsumer{
		rabbit: rabbit,
		log:    log,
		ws:     ws,
	}
}

// DriverUpdateMessage is published by the driver side on driver.update.*.
type DriverUpdateMessage struct {
	RiderID    string    `json:"rider_id"`
	BookingID  string    `json:"booking_id"`
	DriverName string    `json:"driver_name,omitempty"`
	Status     string    `json:"status"`
	Latitude   float64   `json:"latitude,omitempty"`
	Longitude  float64   `json:"longitude,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StartConsuming starts the booking_updates consumer.
func (c *BookingConsumer) StartConsuming(ctx context.Context) error {
	err := c.rabbit.Consume("booking_updates", func(msg amqp.Delivery) {
		c.handleDriverUpdate(ctx, msg.Body)
		msg.Ack(false)
	})
	if err != nil {
		return err
	}

	c.log.Info("consumers_started", "Booking update consumer started")
	return nil
}

func (c *BookingConsumer) handleDriverUpdate(ctx context.Context, body []byte) {
	var update DriverUpdateMessage
	if err := json.Unmarshal(body, &update); err != nil {
		c.log.Error("unmarshal_driver_update_failed", err)
		return
	}

	c.log.WithFields(logger.LogFields{
		"booking_id": update.BookingID,
		"rider_id":   update.RiderID,
		"status":     update.Status,
	}).Debug("driver_update_received", "Driver update received")

	if update.RiderID == "" {
		return
	}
	if !c.ws.IsUserConnected(update.RiderID) {
		c.log.WithFields(logger.LogFields{
			"rider_id": update.RiderID,
		}).Debug("driver_update_skipped", "Rider not connected, dropping update")
		return
	}

	// Forward as-is; a disconnected rider is not an error.
	if err := c.ws.SendToUser(update.RiderID, map[string]interface{}{
		"type":        "driver_update",
		"booking_id":  update.BookingID,
		"driver_name": update.DriverName,
		"status":      update.Status,
		"latitude":    update.Latitude,
		"longitude":   update.Longitude,
		"timestamp":   update.Timestamp,
	}); err != nil {
		c.log.WithFields(logger.LogFields{
			"rider_id": update.RiderID,
		}).Error("driver_update_forward_failed", err)
	}
}
