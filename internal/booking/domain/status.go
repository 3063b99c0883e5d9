package domain

// Status represents the lifecycle state of a booking.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// String returns string representation of status
func (s Status) String() string {
	return string(s)
}

// IsValid checks if status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the booking lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
