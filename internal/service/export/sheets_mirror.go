package export

import (
	"context"
	"fmt"

	"github.com/mamadbah2/dpr/internal/domain/models"
	"github.com/mamadbah2/dpr/internal/repository/sheets"
)

// SheetsMirror copies each compiled matrix into a Google Sheets tab named
// after the period start date.
type SheetsMirror struct {
	repo        sheets.Repository
	projectName string
}

// NewSheetsMirror builds a mirror on top of a sheets repository.
func NewSheetsMirror(repo sheets.Repository, projectName string) *SheetsMirror {
	return &SheetsMirror{repo: repo, projectName: projectName}
}

// Publish replaces the tab contents with the matrix grid.
func (m *SheetsMirror) Publish(ctx context.Context, matrix Matrix) error {
	title := matrix.Start.Format(models.DisplayDateLayout)
	if err := m.repo.EnsureSheet(ctx, title); err != nil {
		return err
	}

	tab := fmt.Sprintf("'%s'", title)
	if err := m.repo.ClearRange(ctx, tab); err != nil {
		return err
	}
	return m.repo.WriteRange(ctx, tab+"!A1", matrix.Grid(m.projectName))
}
