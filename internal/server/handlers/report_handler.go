package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// EntryService saves and reads daily reports.
type EntryService interface {
	SaveReport(ctx context.Context, report models.DailyReport) (string, error)
	GetReport(ctx context.Context, site string, date time.Time) (models.DailyReport, error)
	RecentReports(ctx context.Context, site string, limit int) ([]models.DailyReport, error)
	DeleteReport(ctx context.Context, site string, date time.Time) error
	SiteSummary(ctx context.Context, site string, start, end time.Time) (models.SiteSummary, error)
}

// ReportHandler exposes report entry over HTTP.
type ReportHandler struct {
	svc    EntryService
	logger *zap.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc EntryService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

type saveReportRequest struct {
	SiteCode   string                 `json:"site_code"`
	ReportDate string                 `json:"report_date"`
	Weather    string                 `json:"weather"`
	Workers    int                    `json:"total_workers"`
	Remarks    string                 `json:"remarks"`
	EngineerID string                 `json:"engineer_id"`
	Activities []models.ActivityEntry `json:"activities"`
}

// Save creates or replaces the report of (site, date).
func (h *ReportHandler) Save(c *gin.Context) {
	var req saveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid report payload", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}

	report := models.DailyReport{
		SiteCode:   req.SiteCode,
		Weather:    req.Weather,
		Workers:    req.Workers,
		Remarks:    req.Remarks,
		EngineerID: req.EngineerID,
		Activities: req.Activities,
	}
	if req.ReportDate != "" {
		date, err := models.ParseDate(req.ReportDate)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		report.Date = date
	}

	id, err := h.svc.SaveReport(c.Request.Context(), report)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// Get returns one report.
func (h *ReportHandler) Get(c *gin.Context) {
	date, err := models.ParseDate(c.Param("date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	report, err := h.svc.GetReport(c.Request.Context(), c.Param("site"), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Delete removes one report and its activities.
func (h *ReportHandler) Delete(c *gin.Context) {
	date, err := models.ParseDate(c.Param("date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.svc.DeleteReport(c.Request.Context(), c.Param("site"), date); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Recent lists the latest reports of a site.
func (h *ReportHandler) Recent(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, "limit must be a positive number")
			return
		}
		limit = n
	}
	reports, err := h.svc.RecentReports(c.Request.Context(), c.Param("site"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Summary returns the workforce summary of a site between from and to.
func (h *ReportHandler) Summary(c *gin.Context) {
	start, err := models.ParseDate(c.Query("from"))
	if err != nil {
		badRequest(c, "from: "+err.Error())
		return
	}
	end, err := models.ParseDate(c.Query("to"))
	if err != nil {
		badRequest(c, "to: "+err.Error())
		return
	}
	summary, err := h.svc.SiteSummary(c.Request.Context(), c.Param("site"), start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
