package distribution

import "time"

// TimeGate opens for a tolerance window around a time of day in a reference
// timezone.
type TimeGate struct {
	Location *time.Location
	Hour     int
	Minute   int
	Window   time.Duration
}

// Open reports whether now falls within Window of the target minute. Seconds
// are ignored, so a 5 minute window accepts 10:25:00 through 10:35:59 for a
// 10:30 target.
func (g TimeGate) Open(now time.Time) bool {
	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()
	target := g.Hour*60 + g.Minute

	diff := current - target
	if diff < 0 {
		diff = -diff
	}
	// Windows that straddle midnight.
	if wrapped := 24*60 - diff; wrapped < diff {
		diff = wrapped
	}
	return time.Duration(diff)*time.Minute <= g.Window
}
