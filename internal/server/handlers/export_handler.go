package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/service/export"
	"github.com/mamadbah2/dpr/internal/service/reporting"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Exporter compiles the DPR workbook.
type Exporter interface {
	Export(ctx context.Context, sites []string, start, end time.Time) (*export.Artifact, error)
}

// ExportHandler serves the workbook download.
type ExportHandler struct {
	svc    Exporter
	today  func() time.Time
	sites  []string
	logger *zap.Logger
}

// NewExportHandler constructs the handler. today resolves period presets.
func NewExportHandler(svc Exporter, today func() time.Time, sites []string, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{svc: svc, today: today, sites: sites, logger: logger}
}

// Download streams the xlsx for the requested period and sites.
func (h *ExportHandler) Download(c *gin.Context) {
	sites, err := siteParam(c, h.sites)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	start, end, err := reporting.ResolvePeriod(c.Query("period"), c.Query("from"), c.Query("to"), h.today())
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	artifact, err := h.svc.Export(c.Request.Context(), sites, start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", artifact.Filename))
	c.Data(http.StatusOK, xlsxContentType, artifact.Bytes)
}
