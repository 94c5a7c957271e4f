package entry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// ReportStore is the record store as seen by the entry flow.
type ReportStore interface {
	FetchReports(ctx context.Context, sites []string, start, end time.Time) ([]models.DailyReport, error)
	UpsertReport(ctx context.Context, report models.DailyReport) (string, error)
	GetReport(ctx context.Context, site string, date time.Time) (models.DailyReport, error)
	RecentReports(ctx context.Context, site string, limit int) ([]models.DailyReport, error)
	DeleteReport(ctx context.Context, site string, date time.Time) error
}

// Service validates and persists daily reports.
type Service struct {
	store    ReportStore
	validate *validator.Validate
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs the entry service. loc decides what "today" is when
// rejecting future-dated reports.
func NewService(store ReportStore, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		validate: validator.New(),
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

var headerMessages = map[string]string{
	"SiteCode": "Site code is required",
	"Date":     "Report date is required",
	"Weather":  "Weather condition is required",
	"Workers":  "Total workers cannot be negative",
}

// Validate checks a report and returns a *models.ValidationError listing every
// problem, or nil.
func (s *Service) Validate(report models.DailyReport) error {
	report = normalize(report)
	today := models.DateOf(s.now().In(s.loc))
	verr := &models.ValidationError{}

	if err := s.validate.StructExcept(report, "Activities"); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate report: %w", err)
		}
		for _, fe := range fieldErrs {
			if msg, ok := headerMessages[fe.StructField()]; ok {
				verr.Add("%s", msg)
			} else {
				verr.Add("%s failed %s", fe.Field(), fe.Tag())
			}
		}
	}

	if report.SiteCode != "" {
		if _, ok := models.LookupSite(report.SiteCode); !ok {
			verr.Add("Site %s is not in the site catalog", report.SiteCode)
		}
	}

	if !report.Date.IsZero() && report.Date.After(today) {
		verr.Add("Report date cannot be in the future")
	}

	if len(report.Activities) == 0 {
		verr.Add("At least one activity must be defined")
	} else {
		hasData := false
		for i, a := range report.Activities {
			hasData = hasData || a.Reported()
			s.validateActivity(verr, i, a)
		}
		if !hasData {
			verr.Add("At least one activity must have data entered (target, achieved, or cumulative)")
		}
	}

	return verr.OrNil()
}

func (s *Service) validateActivity(verr *models.ValidationError, idx int, a models.ActivityEntry) {
	label := a.Name
	if label == "" {
		label = fmt.Sprintf("Activity %d", idx+1)
	}

	if err := s.validate.Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.Tag() {
				case "required":
					verr.Add("%s: activity name is required", label)
				case "gte":
					verr.Add("%s: %s cannot be negative", label, fe.StructField())
				default:
					verr.Add("%s: %s failed %s", label, fe.StructField(), fe.Tag())
				}
			}
		}
	}

	if a.Name != "" {
		if _, ok := models.LookupActivity(a.Name); !ok {
			verr.Add("%s: not in the activity catalog", label)
		}
	}

	if a.Target > 0 && a.Achieved > a.Target {
		verr.Add("%s: Achieved quantity cannot exceed target", label)
	}
}

// SaveReport validates the report and upserts it. Unreported entries are
// dropped and units are taken from the catalog. It returns the report id.
func (s *Service) SaveReport(ctx context.Context, report models.DailyReport) (string, error) {
	report = normalize(report)
	if err := s.Validate(report); err != nil {
		return "", err
	}

	report.Activities = report.ReportedActivities()
	for i := range report.Activities {
		if act, ok := models.LookupActivity(report.Activities[i].Name); ok {
			report.Activities[i].Unit = act.Unit
		}
	}

	id, err := s.store.UpsertReport(ctx, report)
	if err != nil {
		return "", fmt.Errorf("save report %s/%s: %w", report.SiteCode, report.Date.Format(models.DateLayout), err)
	}

	s.logger.Info("daily report saved",
		zap.String("report_id", id),
		zap.String("site", report.SiteCode),
		zap.String("date", report.Date.Format(models.DateLayout)),
		zap.Int("activities", len(report.Activities)))
	return id, nil
}

// GetReport returns the report of (site, date).
func (s *Service) GetReport(ctx context.Context, site string, date time.Time) (models.DailyReport, error) {
	return s.store.GetReport(ctx, site, models.DateOf(date))
}

// RecentReports returns up to limit reports of a site, newest first.
func (s *Service) RecentReports(ctx context.Context, site string, limit int) ([]models.DailyReport, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.RecentReports(ctx, site, limit)
}

// DeleteReport removes a report and its activities. Administrative use only.
func (s *Service) DeleteReport(ctx context.Context, site string, date time.Time) error {
	if err := s.store.DeleteReport(ctx, site, models.DateOf(date)); err != nil {
		return err
	}
	s.logger.Info("daily report deleted", zap.String("site", site), zap.String("date", date.Format(models.DateLayout)))
	return nil
}

// SiteSummary returns the workforce summary of a site over a period.
func (s *Service) SiteSummary(ctx context.Context, site string, start, end time.Time) (models.SiteSummary, error) {
	reports, err := s.store.FetchReports(ctx, []string{site}, start, end)
	if err != nil {
		return models.SiteSummary{}, &models.DataFetchError{Op: "site_summary", Err: err}
	}

	summary := models.SiteSummary{
		SiteCode:     site,
		StartDate:    start.Format(models.DateLayout),
		EndDate:      end.Format(models.DateLayout),
		TotalReports: len(reports),
	}
	for _, r := range reports {
		summary.TotalWorkers += r.Workers
	}
	if summary.TotalReports > 0 {
		summary.AverageWorkers = float64(summary.TotalWorkers) / float64(summary.TotalReports)
	}
	return summary, nil
}

func normalize(report models.DailyReport) models.DailyReport {
	report.SiteCode = strings.TrimSpace(report.SiteCode)
	report.Weather = strings.TrimSpace(report.Weather)
	report.Remarks = strings.TrimSpace(report.Remarks)
	if !report.Date.IsZero() {
		report.Date = models.DateOf(report.Date)
	}
	acts := make([]models.ActivityEntry, len(report.Activities))
	for i, a := range report.Activities {
		a.Name = strings.TrimSpace(a.Name)
		acts[i] = a
	}
	report.Activities = acts
	return report
}
