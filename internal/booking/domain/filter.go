package domain

import "time"

// FilterAll is the sentinel status filter meaning "no status filtering".
const FilterAll = "all"

// DateRange bounds are inclusive and compared against CreatedAt.
type DateRange struct {
	StartDate time.Time
	EndDate   time.Time
}

// FilterHistory selects a subset of history by status and/or creation date.
// It is pure: the input is never mutated and relative order is preserved.
// An empty or "all" filter skips status filtering; a nil dateRange skips
// date filtering.
func FilterHistory(history []Booking, statusFilter string, dateRange *DateRange) []Booking {
	filtered := make([]Booking, 0, len(history))
	for _, b := range history {
		if statusFilter != "" && statusFilter != FilterAll && b.Status.String() != statusFilter {
			continue
		}
		if dateRange != nil {
			if b.CreatedAt.Before(dateRange.StartDate) || b.CreatedAt.After(dateRange.EndDate) {
				continue
			}
		}
		filtered = append(filtered, b)
	}
	return filtered
}
