package domain

import "strconv"

// BookingStats is a read model derived entirely from history. It has no
// lifecycle of its own and is recomputed on every history change.
type BookingStats struct {
	TotalRides    int     `json:"totalRides"`
	TotalAmount   float64 `json:"totalAmount"`
	AverageRating string  `json:"averageRating"`
}

// ComputeStats aggregates completed bookings: ride count, fare total and the
// mean rating over completed bookings that carry one, formatted to one
// decimal. An empty history yields all zeros.
func ComputeStats(history []Booking) BookingStats {
	stats := BookingStats{AverageRating: "0.0"}

	var ratingSum float64
	var rated int
	for _, b := range history {
		if b.Status != StatusCompleted {
			continue
		}
		stats.TotalRides++
		stats.TotalAmount += b.TotalAmount
		if b.Rating != nil {
			ratingSum += *b.Rating
			rated++
		}
	}

	if rated > 0 {
		stats.AverageRating = strconv.FormatFloat(ratingSum/float64(rated), 'f', 1, 64)
	}
	return stats
}
