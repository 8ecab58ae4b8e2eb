package chat

import "time"

// dayBounds returns the first and last instant of now's calendar day in
// loc, both in UTC.
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	// AddDate handles DST correctly, Add(24h) does not
	next := start.AddDate(0, 0, 1)
	return start.UTC(), next.Add(-time.Millisecond).UTC()
}
