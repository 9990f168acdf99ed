package aggregator

import "time"

// DefaultWindow is the look-back period for news items.
const DefaultWindow = 24 * time.Hour

// InWindow reports whether an entry published at published falls inside the
// window ending at reference. Entries without a publish time are excluded.
func InWindow(published *time.Time, reference time.Time, window time.Duration) bool {
	if published == nil {
		return false
	}
	return reference.Sub(*published) < window
}
