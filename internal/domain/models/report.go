package models

import "time"

// DailyReport is the unique (site, date) progress record. It owns its activities.
type DailyReport struct {
	ID         string          `json:"id,omitempty"`
	SiteCode   string          `json:"site_code" validate:"required"`
	Date       time.Time       `json:"report_date" validate:"required"`
	Weather    string          `json:"weather" validate:"required"`
	Workers    int             `json:"total_workers" validate:"gte=0"`
	Remarks    string          `json:"remarks"`
	EngineerID string          `json:"engineer_id,omitempty"`
	Activities []ActivityEntry `json:"activities" validate:"required,min=1,dive"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty"`
}

// ActivityEntry is one activity line of a daily report.
type ActivityEntry struct {
	Name       string  `json:"activity_name" validate:"required"`
	Unit       string  `json:"unit"`
	Target     float64 `json:"target" validate:"gte=0"`
	Achieved   float64 `json:"achieved" validate:"gte=0"`
	Cumulative float64 `json:"cumulative" validate:"gte=0"`
	Remarks    string  `json:"remarks,omitempty"`
}

// Reported reports whether the entry carries any data. Entries that do not are
// never persisted.
func (a ActivityEntry) Reported() bool {
	return a.Target != 0 || a.Achieved != 0 || a.Cumulative != 0
}

// ReportedActivities returns the entries that carry data.
func (r DailyReport) ReportedActivities() []ActivityEntry {
	out := make([]ActivityEntry, 0, len(r.Activities))
	for _, a := range r.Activities {
		if a.Reported() {
			out = append(out, a)
		}
	}
	return out
}

// SiteSummary is the workforce summary of one site over a period.
type SiteSummary struct {
	SiteCode       string  `json:"site_code"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	TotalReports   int     `json:"total_reports"`
	TotalWorkers   int     `json:"total_workers"`
	AverageWorkers float64 `json:"average_workers"`
}
