package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
	"github.com/mamadbah2/dpr/internal/service/reporting"
)

// DashboardService is the read side of the reporting service.
type DashboardService interface {
	Today() time.Time
	DashboardMetrics(ctx context.Context, sites []string, start, end time.Time) models.DashboardMetrics
	SiteWiseMetrics(ctx context.Context, sites []string, start, end time.Time) []models.SiteMetrics
	ActivityWiseMetrics(ctx context.Context, sites []string, start, end time.Time, selected []string) []models.ActivityMetrics
	DailyTrend(ctx context.Context, sites []string, start, end time.Time) []models.TrendPoint
	CumulativeProgress(ctx context.Context, sites []string, cutoff time.Time) map[string]float64
	MonthlySummary(ctx context.Context, sites []string, year int, month time.Month) models.MonthlySummary
}

// DashboardHandler serves dashboard rollups. It never fails on store errors:
// the service already degrades those to empty views.
type DashboardHandler struct {
	svc    DashboardService
	sites  []string
	logger *zap.Logger
}

// NewDashboardHandler constructs the handler. sites is the default site set.
func NewDashboardHandler(svc DashboardService, sites []string, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, sites: sites, logger: logger}
}

type periodView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type dashboardResponse struct {
	Period     periodView               `json:"period"`
	Sites      []string                 `json:"sites"`
	Metrics    models.DashboardMetrics  `json:"metrics"`
	SiteWise   []models.SiteMetrics     `json:"site_wise"`
	Activities []models.ActivityMetrics `json:"activity_wise"`
	Trend      []models.TrendPoint      `json:"trend"`
	Cumulative map[string]float64       `json:"cumulative"`
}

// Dashboard returns every rollup for a period.
// Query: period=today|last7|last30|month|custom, from, to, sites, activities.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	sites, err := siteParam(c, h.sites)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	start, end, err := reporting.ResolvePeriod(c.Query("period"), c.Query("from"), c.Query("to"), h.svc.Today())
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	c.JSON(http.StatusOK, dashboardResponse{
		Period:     periodView{Start: start.Format(models.DateLayout), End: end.Format(models.DateLayout)},
		Sites:      sites,
		Metrics:    h.svc.DashboardMetrics(ctx, sites, start, end),
		SiteWise:   h.svc.SiteWiseMetrics(ctx, sites, start, end),
		Activities: h.svc.ActivityWiseMetrics(ctx, sites, start, end, listParam(c, "activities")),
		Trend:      h.svc.DailyTrend(ctx, sites, start, end),
		Cumulative: h.svc.CumulativeProgress(ctx, sites, end),
	})
}

// Monthly returns the summary of one calendar month (defaults to the current one).
func (h *DashboardHandler) Monthly(c *gin.Context) {
	sites, err := siteParam(c, h.sites)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	today := h.svc.Today()
	year, month := today.Year(), today.Month()
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			badRequest(c, "year must be a number")
			return
		}
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			badRequest(c, "month must be between 1 and 12")
			return
		}
		month = time.Month(m)
	}

	c.JSON(http.StatusOK, h.svc.MonthlySummary(c.Request.Context(), sites, year, month))
}

// Catalog lists sites, activities, and weather conditions.
func (h *DashboardHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sites":      models.Sites(),
		"activities": models.Activities(),
		"weather":    models.WeatherConditions,
	})
}
