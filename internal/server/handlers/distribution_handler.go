package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
	"github.com/mamadbah2/dpr/internal/service/distribution"
)

// Distributor triggers deliveries.
type Distributor interface {
	RunDaily(ctx context.Context, opts distribution.Options) (distribution.Result, error)
	SendTest(ctx context.Context, to string) error
}

// DeliveryLogReader lists delivery attempts.
type DeliveryLogReader interface {
	ListByReportDate(ctx context.Context, date time.Time) ([]models.DeliveryLogEntry, error)
}

// RecipientStore manages report recipients.
type RecipientStore interface {
	ActiveRecipients(ctx context.Context, reportType string) ([]models.Recipient, error)
	UpsertRecipient(ctx context.Context, rcpt models.Recipient) error
	Deactivate(ctx context.Context, email string) error
}

// DistributionHandler exposes manual triggers, the delivery log, and recipients.
type DistributionHandler struct {
	svc        Distributor
	logs       DeliveryLogReader
	recipients RecipientStore
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewDistributionHandler constructs the handler.
func NewDistributionHandler(svc Distributor, logs DeliveryLogReader, recipients RecipientStore, logger *zap.Logger) *DistributionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributionHandler{svc: svc, logs: logs, recipients: recipients, validate: validator.New(), logger: logger}
}

type runResponse struct {
	distribution.Result
	Message string `json:"message"`
}

// TriggerDaily runs the daily distribution now. The body is optional.
func (h *DistributionHandler) TriggerDaily(c *gin.Context) {
	var req models.DistributionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	opts := distribution.Options{Force: req.Force}
	if req.ReportDate != "" {
		date, err := models.ParseDate(req.ReportDate)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		opts.ReportDate = date
	}

	res, err := h.svc.RunDaily(c.Request.Context(), opts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if res.Status == distribution.StatusFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, runResponse{Result: res, Message: res.Message()})
}

// TestEmail sends a configuration probe.
func (h *DistributionHandler) TestEmail(c *gin.Context) {
	var req models.TestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "a valid 'to' address is required")
		return
	}
	if err := h.svc.SendTest(c.Request.Context(), req.To); err != nil {
		var de *models.DeliveryError
		if errors.As(err, &de) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "class": de.Class})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "test message sent", "to": req.To})
}

// Logs lists the delivery attempts of one report date.
func (h *DistributionHandler) Logs(c *gin.Context) {
	date, err := models.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, "date: "+err.Error())
		return
	}
	entries, err := h.logs.ListByReportDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, &models.DataFetchError{Op: "delivery_log", Err: err})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ListRecipients lists active recipients of a report type (default daily).
func (h *DistributionHandler) ListRecipients(c *gin.Context) {
	reportType := c.DefaultQuery("report_type", models.ReportTypeDaily)
	list, err := h.recipients.ActiveRecipients(c.Request.Context(), reportType)
	if err != nil {
		respondError(c, h.logger, &models.DataFetchError{Op: "recipients", Err: err})
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpsertRecipient creates or updates a recipient by email.
func (h *DistributionHandler) UpsertRecipient(c *gin.Context) {
	var rcpt models.Recipient
	if err := c.ShouldBindJSON(&rcpt); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(rcpt); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(rcpt.ReportTypes) == 0 {
		rcpt.ReportTypes = []string{models.ReportTypeDaily}
	}
	if err := h.recipients.UpsertRecipient(c.Request.Context(), rcpt); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rcpt)
}

// DeactivateRecipient stops deliveries to a recipient.
func (h *DistributionHandler) DeactivateRecipient(c *gin.Context) {
	if err := h.recipients.Deactivate(c.Request.Context(), c.Param("email")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
