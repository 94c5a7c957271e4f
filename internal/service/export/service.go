package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// ReportReader supplies raw reports for a site set and an inclusive date range.
type ReportReader interface {
	FetchReports(ctx context.Context, sites []string, start, end time.Time) ([]models.DailyReport, error)
}

// Mirror receives every compiled matrix. Mirror failures never fail an export.
type Mirror interface {
	Publish(ctx context.Context, m Matrix) error
}

// Artifact is a compiled export ready to download or attach.
type Artifact struct {
	Bytes       []byte
	Filename    string
	Matrix      Matrix
	ReportCount int
}

// Service compiles stored reports into the DPR workbook.
type Service struct {
	repo        ReportReader
	projectName string
	mirror      Mirror
	logger      *zap.Logger
}

// NewService wires the export service. mirror may be nil.
func NewService(repo ReportReader, projectName string, mirror Mirror, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, projectName: projectName, mirror: mirror, logger: logger}
}

// Export fetches the reports of sites between start and end and renders them.
// Unlike the dashboard, a store failure is returned as a *models.DataFetchError.
func (s *Service) Export(ctx context.Context, sites []string, start, end time.Time) (*Artifact, error) {
	if len(sites) == 0 {
		return nil, models.ErrNoSites
	}
	if end.Before(start) {
		return nil, fmt.Errorf("export period ends %s before it starts %s",
			end.Format(models.DateLayout), start.Format(models.DateLayout))
	}

	reports, err := s.repo.FetchReports(ctx, sites, start, end)
	if err != nil {
		return nil, &models.DataFetchError{Op: "export", Err: err}
	}

	m := Compile(reports, start, end, sites)
	data, err := RenderXLSX(m, s.projectName)
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	artifact := &Artifact{
		Bytes:       data,
		Filename:    Filename(start),
		Matrix:      m,
		ReportCount: len(reports),
	}

	s.logger.Info("export compiled",
		zap.String("filename", artifact.Filename),
		zap.Int("reports", artifact.ReportCount),
		zap.Strings("sites", sites),
		zap.Int("bytes", len(data)))

	if s.mirror != nil {
		if err := s.mirror.Publish(ctx, m); err != nil {
			s.logger.Warn("failed to mirror export", zap.String("filename", artifact.Filename), zap.Error(err))
		}
	}

	return artifact, nil
}
