package reports

import "time"

// NextRun returns the first moment strictly after now at hour:00 in loc.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PreviousDay is the calendar day in loc that ended at or before at.
func PreviousDay(at time.Time, loc *time.Location) (from, to time.Time) {
	local := at.In(loc)
	to = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	from = to.AddDate(0, 0, -1)
	return from, to
}
