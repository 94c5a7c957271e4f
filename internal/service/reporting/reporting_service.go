package reporting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// ReportReader supplies raw reports for a site set and an inclusive date range.
// A zero start leaves the range open at the bottom.
type ReportReader interface {
	FetchReports(ctx context.Context, sites []string, start, end time.Time) ([]models.DailyReport, error)
}

// Service computes dashboard rollups. A store failure never reaches the
// caller: it is logged and the affected view is returned empty.
type Service struct {
	repo   ReportReader
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. loc is the timezone that
// decides which calendar day is "today".
func NewService(repository ReportReader, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repository, loc: loc, logger: logger, now: time.Now}
}

// Today returns the current calendar day in the service timezone.
func (s *Service) Today() time.Time {
	return models.DateOf(s.now().In(s.loc))
}

// DashboardMetrics returns the headline metrics for the period.
func (s *Service) DashboardMetrics(ctx context.Context, sites []string, start, end time.Time) models.DashboardMetrics {
	empty := models.DashboardMetrics{TotalSites: len(sites)}

	reports, ok := s.fetch(ctx, "dashboard", sites, start, end)
	if !ok {
		return empty
	}

	today := s.Today()
	metrics := ComputeDashboard(reports, sites, today)
	if today.Before(models.DateOf(start)) || today.After(models.DateOf(end)) {
		// The range totals stand; only today's count is lost.
		if todays, ok := s.fetch(ctx, "dashboard.today", sites, today, today); ok {
			metrics.ReportsToday = len(todays)
		}
	}
	return metrics
}

// SiteWiseMetrics returns one entry per site in the given order.
func (s *Service) SiteWiseMetrics(ctx context.Context, sites []string, start, end time.Time) []models.SiteMetrics {
	reports, ok := s.fetch(ctx, "site_metrics", sites, start, end)
	if !ok {
		return []models.SiteMetrics{}
	}
	return ComputeSiteMetrics(reports, sites)
}

// ActivityWiseMetrics returns catalog activities aggregated across sites.
func (s *Service) ActivityWiseMetrics(ctx context.Context, sites []string, start, end time.Time, selected []string) []models.ActivityMetrics {
	reports, ok := s.fetch(ctx, "activity_metrics", sites, start, end)
	if !ok {
		return []models.ActivityMetrics{}
	}
	return ComputeActivityMetrics(reports, selected)
}

// DailyTrend returns the date-ordered per-day totals.
func (s *Service) DailyTrend(ctx context.Context, sites []string, start, end time.Time) []models.TrendPoint {
	reports, ok := s.fetch(ctx, "daily_trend", sites, start, end)
	if !ok {
		return []models.TrendPoint{}
	}
	return ComputeDailyTrend(reports)
}

// CumulativeProgress returns the best-known running total per activity up to cutoff.
func (s *Service) CumulativeProgress(ctx context.Context, sites []string, cutoff time.Time) map[string]float64 {
	reports, ok := s.fetch(ctx, "cumulative", sites, time.Time{}, cutoff)
	if !ok {
		return map[string]float64{}
	}
	return ComputeCumulative(reports, cutoff)
}

// MonthlySummary returns the summary of one calendar month.
func (s *Service) MonthlySummary(ctx context.Context, sites []string, year int, month time.Month) models.MonthlySummary {
	start, end := models.MonthRange(year, month)
	reports, ok := s.fetch(ctx, "monthly_summary", sites, start, end)
	if !ok {
		return models.MonthlySummary{Month: monthLabel(year, month)}
	}
	return ComputeMonthlySummary(reports, year, month)
}

func (s *Service) fetch(ctx context.Context, view string, sites []string, start, end time.Time) ([]models.DailyReport, bool) {
	if len(sites) == 0 {
		return nil, true
	}
	reports, err := s.repo.FetchReports(ctx, sites, start, end)
	if err != nil {
		fetchErr := &models.DataFetchError{Op: view, Err: err}
		s.logger.Warn("rendering empty view after fetch failure",
			zap.String("view", view),
			zap.Strings("sites", sites),
			zap.Error(fetchErr))
		return nil, false
	}
	return reports, true
}
