package pass

import "time"

// Venues run overnight, so the business day rolls over at 08:00 local time
// rather than midnight.
const salesDayResetHour = 8

// SalesDayStart returns the start of the most recently begun sales day:
// today at 08:00, or yesterday's 08:00 when now precedes today's boundary.
// The boundary itself belongs to the window that starts at it.
func SalesDayStart(now time.Time) time.Time {
	boundary := time.Date(now.Year(), now.Month(), now.Day(), salesDayResetHour, 0, 0, 0, now.Location())
	if now.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// SalesDayEnd returns the exclusive end of the current sales-day window.
func SalesDayEnd(now time.Time) time.Time {
	return SalesDayStart(now).AddDate(0, 0, 1)
}

// NextReset returns the next occurring 08:00 boundary after now. Passes
// created at any point in a sales day expire there.
func NextReset(now time.Time) time.Time {
	return SalesDayEnd(now)
}
