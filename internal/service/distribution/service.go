package distribution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/dpr/internal/domain/models"
	"github.com/mamadbah2/dpr/internal/repository/redislock"
	"github.com/mamadbah2/dpr/internal/service/export"
)

const lockKey = "dpr:distribution:daily"

// RecipientSource lists who receives a report type.
type RecipientSource interface {
	ActiveRecipients(ctx context.Context, reportType string) ([]models.Recipient, error)
}

// DeliveryLog is the append-only record of send attempts.
type DeliveryLog interface {
	LogDelivery(ctx context.Context, entry models.DeliveryLogEntry) error
}

// RunState remembers the last report date distributed per report type.
// MarkSent never moves the recorded date backwards.
type RunState interface {
	LastSentDate(ctx context.Context, reportType string) (time.Time, error)
	MarkSent(ctx context.Context, reportType string, reportDate time.Time, runID string) error
}

// Exporter compiles the report workbook.
type Exporter interface {
	Export(ctx context.Context, sites []string, start, end time.Time) (*export.Artifact, error)
}

// Dependencies groups the collaborators of the service.
type Dependencies struct {
	Exporter   Exporter
	Recipients RecipientSource
	Log        DeliveryLog
	State      RunState
	Channel    Channel
	// Locker is optional; without it concurrent runs are not excluded.
	Locker redislock.Locker
}

// Settings are the distribution knobs taken from configuration.
type Settings struct {
	ProjectName string
	Sites       []string
	Gate        TimeGate
	Parallelism int
	LockTTL     time.Duration
}

// Options alter a single run.
type Options struct {
	// Force skips the time gate and the already-sent check.
	Force bool
	// ReportDate overrides the default of yesterday in the gate timezone.
	ReportDate time.Time
}

// Service runs the daily report distribution.
type Service struct {
	deps     Dependencies
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
	newRunID func() string
}

// NewService wires the distribution service.
func NewService(deps Dependencies, settings Settings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = redislock.NoopLocker{}
	}
	if settings.Parallelism < 1 {
		settings.Parallelism = 1
	}
	if settings.LockTTL <= 0 {
		settings.LockTTL = 10 * time.Minute
	}
	if settings.Gate.Location == nil {
		settings.Gate.Location = time.UTC
	}
	return &Service{
		deps:     deps,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// DefaultReportDate returns the calendar day before now in the gate timezone.
func (s *Service) DefaultReportDate() time.Time {
	return models.DateOf(s.now().In(s.settings.Gate.Location)).AddDate(0, 0, -1)
}

type run struct {
	id         string
	reportDate time.Time
	subject    string
	filename   string
}

// RunDaily is the scheduled entry point. It returns a non-nil error only for
// failures that stop the run as a whole: store reads, export compilation,
// missing credentials. Per-recipient failures are reported in the Result.
func (s *Service) RunDaily(ctx context.Context, opts Options) (Result, error) {
	now := s.now()
	r := run{id: s.newRunID(), reportDate: s.DefaultReportDate()}
	if !opts.ReportDate.IsZero() {
		r.reportDate = models.DateOf(opts.ReportDate)
	}
	logger := s.logger.With(zap.String("run_id", r.id), zap.String("report_date", r.reportDate.Format(models.DateLayout)))

	if !opts.Force && !s.settings.Gate.Open(now) {
		logger.Debug("outside send window", zap.Time("now", now))
		return skipped(r.id, ReasonOutsideWindow, r.reportDate), nil
	}

	release, err := s.deps.Locker.Obtain(ctx, lockKey, s.settings.LockTTL)
	if errors.Is(err, redislock.ErrLocked) {
		logger.Info("another distribution run holds the lock")
		return skipped(r.id, ReasonRunInProgress, r.reportDate), nil
	}
	if err != nil {
		return Result{RunID: r.id, ReportDate: r.reportDate, Status: StatusFailed}, fmt.Errorf("distribution lock: %w", err)
	}
	defer release()

	last, err := s.deps.State.LastSentDate(ctx, models.ReportTypeDaily)
	if err != nil {
		return Result{RunID: r.id, ReportDate: r.reportDate, Status: StatusFailed}, &models.DataFetchError{Op: "run_state", Err: err}
	}
	if !opts.Force && !last.IsZero() && !last.Before(r.reportDate) {
		logger.Info("report already distributed", zap.Time("last_sent", last))
		return skipped(r.id, ReasonAlreadySent, r.reportDate), nil
	}

	recipients, err := s.resolveRecipients(ctx)
	if err != nil {
		return Result{RunID: r.id, ReportDate: r.reportDate, Status: StatusFailed}, err
	}
	if len(recipients) == 0 {
		logger.Info("no active recipients for daily report")
		return Result{RunID: r.id, Status: StatusNoRecipients, ReportDate: r.reportDate}, nil
	}

	r.filename = export.Filename(r.reportDate)
	r.subject = fmt.Sprintf("%s Daily Progress Report - %s", s.settings.ProjectName, r.reportDate.Format(models.DisplayDateLayout))

	if err := s.deps.Channel.CheckCredentials(); err != nil {
		logger.Error("delivery channel not configured", zap.String("channel", s.deps.Channel.Name()), zap.Error(err))
		return s.failAll(ctx, r, recipients, models.ErrorClassConfiguration, err), err
	}

	artifact, err := s.deps.Exporter.Export(ctx, s.settings.Sites, r.reportDate, r.reportDate)
	if err != nil {
		logger.Error("failed to compile export", zap.Error(err))
		return s.failAll(ctx, r, recipients, models.ErrorClassUnknown, err), err
	}

	result := s.fanOut(ctx, r, recipients, artifact, logger)

	// A forced backfill of an older date leaves the recorded date alone.
	if result.Sent > 0 && r.reportDate.After(last) {
		if err := s.deps.State.MarkSent(ctx, models.ReportTypeDaily, r.reportDate, r.id); err != nil {
			logger.Warn("failed to record distribution state", zap.Error(err))
		}
	}

	logger.Info("daily distribution finished",
		zap.String("status", string(result.Status)),
		zap.Int("total", result.Total),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Service) resolveRecipients(ctx context.Context) ([]models.Recipient, error) {
	all, err := s.deps.Recipients.ActiveRecipients(ctx, models.ReportTypeDaily)
	if err != nil {
		return nil, &models.DataFetchError{Op: "recipients", Err: err}
	}
	out := make([]models.Recipient, 0, len(all))
	for _, rcpt := range all {
		if rcpt.Subscribed(models.ReportTypeDaily) {
			out = append(out, rcpt)
		}
	}
	return out, nil
}

// fanOut sends to every recipient, at most Parallelism at a time. Each task
// records its own outcome and always returns nil, so no failure cancels a
// sibling.
func (s *Service) fanOut(ctx context.Context, r run, recipients []models.Recipient, artifact *export.Artifact, logger *zap.Logger) Result {
	sent := make([]bool, len(recipients))
	generatedAt := s.now().In(s.settings.Gate.Location).Format("02-01-2006 15:04 MST")
	sites := strings.Join(s.settings.Sites, ", ")

	var g errgroup.Group
	g.SetLimit(s.settings.Parallelism)
	for i, rcpt := range recipients {
		g.Go(func() error {
			body, err := renderMail("daily_report", reportMailData{
				ProjectName:   s.settings.ProjectName,
				RecipientName: rcpt.Name,
				ReportDate:    r.reportDate.Format(models.DisplayDateLayout),
				Sites:         sites,
				TotalReports:  artifact.ReportCount,
				Filename:      artifact.Filename,
				GeneratedAt:   generatedAt,
			})
			if err == nil {
				err = s.deps.Channel.Send(ctx, models.OutboundMessage{
					To:             rcpt,
					Subject:        r.subject,
					HTMLBody:       body,
					Attachment:     artifact.Bytes,
					AttachmentName: artifact.Filename,
				})
			}
			sent[i] = err == nil
			if err != nil {
				logger.Warn("delivery failed", zap.String("recipient", rcpt.Email), zap.Error(err))
			}
			s.record(ctx, r, rcpt, err, models.ClassOf(err))
			return nil
		})
	}
	_ = g.Wait()

	res := Result{RunID: r.id, ReportDate: r.reportDate, Filename: r.filename, Total: len(recipients)}
	for _, ok := range sent {
		if ok {
			res.Sent++
		} else {
			res.Failed++
		}
	}
	res.Status = statusFor(res.Sent, res.Failed)
	return res
}

// failAll logs a failed entry for every recipient without attempting a send.
func (s *Service) failAll(ctx context.Context, r run, recipients []models.Recipient, class models.ErrorClass, cause error) Result {
	for _, rcpt := range recipients {
		s.record(ctx, r, rcpt, cause, class)
	}
	return Result{
		RunID:      r.id,
		Status:     StatusFailed,
		ReportDate: r.reportDate,
		Filename:   r.filename,
		Total:      len(recipients),
		Failed:     len(recipients),
	}
}

func (s *Service) record(ctx context.Context, r run, rcpt models.Recipient, sendErr error, class models.ErrorClass) {
	entry := models.DeliveryLogEntry{
		RunID:          r.id,
		RecipientEmail: rcpt.Email,
		Subject:        r.subject,
		ReportDate:     r.reportDate,
		AttachmentName: r.filename,
		Status:         models.DeliverySent,
		CreatedAt:      s.now().UTC(),
	}
	if sendErr != nil {
		entry.Status = models.DeliveryFailed
		entry.ErrorClass = class
		entry.ErrorMessage = sendErr.Error()
	}
	if err := s.deps.Log.LogDelivery(ctx, entry); err != nil {
		s.logger.Error("failed to write delivery log",
			zap.String("run_id", r.id),
			zap.String("recipient", rcpt.Email),
			zap.String("status", string(entry.Status)),
			zap.Error(err))
	}
}

// SendTest sends a configuration probe to one address through the channel.
func (s *Service) SendTest(ctx context.Context, to string) error {
	if err := s.deps.Channel.CheckCredentials(); err != nil {
		return err
	}
	body, err := renderMail("test_email", reportMailData{
		ProjectName: s.settings.ProjectName,
		GeneratedAt: s.now().In(s.settings.Gate.Location).Format("02-01-2006 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("render test email: %w", err)
	}
	err = s.deps.Channel.Send(ctx, models.OutboundMessage{
		To:       models.Recipient{Email: to, Phone: to},
		Subject:  s.settings.ProjectName + " DPR System - Test Email",
		HTMLBody: body,
	})
	if err != nil {
		return err
	}
	s.logger.Info("test message sent", zap.String("to", to), zap.String("channel", s.deps.Channel.Name()))
	return nil
}
