package reporting

import (
	"fmt"
	"time"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// Period presets offered by the dashboard.
const (
	PeriodToday  = "today"
	PeriodLast7  = "last7"
	PeriodLast30 = "last30"
	PeriodMonth  = "month"
	PeriodCustom = "custom"
)

// ResolvePeriod turns a preset (or a custom from/to pair) into an inclusive
// date range relative to today.
func ResolvePeriod(preset, from, to string, today time.Time) (time.Time, time.Time, error) {
	today = models.DateOf(today)
	switch preset {
	case "", PeriodToday:
		return today, today, nil
	case PeriodLast7:
		return today.AddDate(0, 0, -7), today, nil
	case PeriodLast30:
		return today.AddDate(0, 0, -30), today, nil
	case PeriodMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), today, nil
	case PeriodCustom:
		start, err := models.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
		}
		end, err := models.ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("period end %s precedes start %s", to, from)
		}
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", preset)
	}
}
