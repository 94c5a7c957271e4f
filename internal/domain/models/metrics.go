package models

// StatusTier is the progress tier shown per site.
type StatusTier string

const (
	StatusExcellent      StatusTier = "Excellent"
	StatusOnTrack        StatusTier = "On Track"
	StatusNeedsAttention StatusTier = "Needs Attention"
	StatusCritical       StatusTier = "Critical"
	StatusNoData         StatusTier = "No Data"
)

// DashboardMetrics are the headline numbers of the dashboard.
type DashboardMetrics struct {
	TotalSites      int     `json:"total_sites"`
	TotalReports    int     `json:"total_reports"`
	ReportsToday    int     `json:"reports_today"`
	OverallProgress float64 `json:"overall_progress"`
	TotalTarget     float64 `json:"total_target"`
	TotalAchieved   float64 `json:"total_achieved"`
}

// SiteMetrics aggregates one site over a period.
type SiteMetrics struct {
	SiteCode     string     `json:"site_code"`
	ReportsCount int        `json:"reports_count"`
	Target       float64    `json:"target"`
	Achieved     float64    `json:"achieved"`
	Cumulative   float64    `json:"cumulative"`
	Progress     float64    `json:"progress"`
	Status       StatusTier `json:"status"`
	LastReport   string     `json:"last_report"`
}

// ActivityMetrics aggregates one activity across sites over a period.
type ActivityMetrics struct {
	Activity   string  `json:"activity"`
	Unit       string  `json:"unit"`
	Target     float64 `json:"target"`
	Achieved   float64 `json:"achieved"`
	Cumulative float64 `json:"cumulative"`
	Progress   float64 `json:"progress"`
}

// TrendPoint is the total target and achieved of one reporting day.
type TrendPoint struct {
	Date     string  `json:"date"`
	Target   float64 `json:"target"`
	Achieved float64 `json:"achieved"`
}

// MonthlySummary aggregates all selected sites over a calendar month.
type MonthlySummary struct {
	Month         string  `json:"month"`
	WorkingDays   int     `json:"working_days"`
	TotalTarget   float64 `json:"total_target"`
	TotalAchieved float64 `json:"total_achieved"`
	Progress      float64 `json:"progress"`
	TotalWorkers  int     `json:"total_workers"`
	AvgWorkers    float64 `json:"avg_workers"`
	TotalReports  int     `json:"total_reports"`
}
