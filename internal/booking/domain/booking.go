package domain

import "time"

// Location is part of the opaque ride payload. The engine carries it through
// unchanged and never interprets it.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Vehicle is part of the opaque ride payload.
type Vehicle struct {
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
}

// Driver is part of the opaque ride payload.
type Driver struct {
	Name          string  `json:"name,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	VehicleNumber string  `json:"vehicleNumber,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
}

// Booking is the central entity tracked through its lifecycle. The JSON tags
// define the persisted history layout consumed by the mobile app, so they
// stay camelCase.
type Booking struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	OTP         string     `json:"otp"`
	TotalAmount float64    `json:"totalAmount"`

	// Set only when transitioning to completed.
	Rating      *float64   `json:"rating,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Set only when transitioning to cancelled.
	CancelReason string     `json:"cancelReason,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`

	// Opaque ride payload, carried through unchanged.
	Pickup  *Location `json:"pickup,omitempty"`
	Dropoff *Location `json:"dropoff,omitempty"`
	Vehicle *Vehicle  `json:"vehicle,omitempty"`
	Driver  *Driver   `json:"driver,omitempty"`
}

// UpdateFields are the optional fields merged onto a booking during a status
// transition. Zero values are not applied.
type UpdateFields struct {
	Rating       *float64
	Feedback     string
	CompletedAt  *time.Time
	CancelReason string
	CancelledAt  *time.Time
}

// Merged returns a copy of b with the new status and extra fields applied.
// Re-applying the same transition yields the same record apart from
// UpdatedAt; there is deliberately no guard on the prior status.
func (b Booking) Merged(status Status, extra UpdateFields, at time.Time) Booking {
	merged := b
	merged.Status = status
	updatedAt := at
	merged.UpdatedAt = &updatedAt

	if extra.Rating != nil {
		merged.Rating = extra.Rating
	}
	if extra.Feedback != "" {
		merged.Feedback = extra.Feedback
	}
	if extra.CompletedAt != nil {
		merged.CompletedAt = extra.CompletedAt
	}
	if extra.CancelReason != "" {
		merged.CancelReason = extra.CancelReason
	}
	if extra.CancelledAt != nil {
		merged.CancelledAt = extra.CancelledAt
	}
	return merged
}
