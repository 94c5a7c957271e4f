package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func act(name string, target, achieved, cumulative float64) models.ActivityEntry {
	return models.ActivityEntry{Name: name, Target: target, Achieved: achieved, Cumulative: cumulative}
}

func sampleReports() []models.DailyReport {
	return []models.DailyReport{
		{
			SiteCode: "TCB-407", Date: day("2025-05-27"), Weather: "Cloudy", Workers: 40, Remarks: "Crane down",
			Activities: []models.ActivityEntry{act("Segment Casting", 10, 8, 120), act("Steel Fixing", 2, 2, 30)},
		},
		{
			SiteCode: "TCB-407", Date: day("2025-05-28"), Weather: "Clear", Workers: 45, Remarks: "Normal",
			Activities: []models.ActivityEntry{act("Segment Casting", 15, 12, 135)},
		},
		{
			SiteCode: "TCB-436", Date: day("2025-05-28"), Weather: "Rainy", Workers: 30,
			Activities: []models.ActivityEntry{act("Segment Casting", 5, 5, 60), act("Painting", 100, 100, 100)},
		},
	}
}

func TestCompileSumsAndMaximizes(t *testing.T) {
	sites := []string{"TCB-407", "TCB-436", "TCB-469"}
	m := Compile(sampleReports(), day("2025-05-27"), day("2025-05-28"), sites)

	require.Len(t, m.Rows, len(models.Activities()))
	casting := m.Rows[0]
	assert.Equal(t, 1, casting.SNo)
	assert.Equal(t, "Segment Casting", casting.Activity)
	assert.Equal(t, "Nos", casting.Unit)
	assert.Equal(t, Cell{Target: 25, Achieved: 20, Cumulative: 135}, casting.Cells[0])
	assert.Equal(t, Cell{Target: 5, Achieved: 5, Cumulative: 60}, casting.Cells[1])
	assert.Equal(t, Cell{}, casting.Cells[2])

	steel := m.Rows[len(m.Rows)-1]
	assert.Equal(t, "Steel Fixing", steel.Activity)
	assert.Equal(t, Cell{Target: 2, Achieved: 2, Cumulative: 30}, steel.Cells[0])
}

func TestCompileTotalSumsColumnCells(t *testing.T) {
	sites := []string{"TCB-407", "TCB-436", "TCB-469"}
	m := Compile(sampleReports(), day("2025-05-27"), day("2025-05-28"), sites)

	require.Len(t, m.Total, 3)
	assert.Equal(t, Cell{Target: 27, Achieved: 22, Cumulative: 165}, m.Total[0])
	// Activities outside the catalog do not reach the total.
	assert.Equal(t, Cell{Target: 5, Achieved: 5, Cumulative: 60}, m.Total[1])
	assert.Equal(t, Cell{}, m.Total[2])
}

func TestCompileRemarksUseLatestReportAndSkipSilentSites(t *testing.T) {
	reports := sampleReports()
	// Out of date order on purpose.
	reports[0], reports[1] = reports[1], reports[0]

	m := Compile(reports, day("2025-05-27"), day("2025-05-28"), []string{"TCB-407", "TCB-469", "TCB-436"})
	assert.Equal(t, []string{
		"TCB-407: Weather - Clear | Workers - 45 | Normal",
		"TCB-436: Weather - Rainy | Workers - 30 | ",
	}, m.Remarks)
}

func TestCompileEmptyInputHasCatalogRowsOfZeros(t *testing.T) {
	m := Compile(nil, day("2025-05-28"), day("2025-05-28"), []string{"TCB-407"})

	assert.Len(t, m.Rows, len(models.Activities()))
	for _, r := range m.Rows {
		assert.Equal(t, []Cell{{}}, r.Cells)
	}
	assert.Equal(t, []Cell{{}}, m.Total)
	assert.Empty(t, m.Remarks)
}

func TestCompileIsDeterministic(t *testing.T) {
	sites := []string{"TCB-407", "TCB-436"}
	a := Compile(sampleReports(), day("2025-05-27"), day("2025-05-28"), sites)
	b := Compile(sampleReports(), day("2025-05-27"), day("2025-05-28"), sites)
	assert.Equal(t, a, b)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "28052025-DPR.xlsx", Filename(day("2025-05-28")))
}

func TestGridLayout(t *testing.T) {
	m := Compile(sampleReports(), day("2025-05-27"), day("2025-05-28"), []string{"TCB-407", "TCB-436"})
	grid := m.Grid("MAHSR-T3")

	// title, period, two header rows, catalog, total, blank, remarks header, remarks
	assert.Len(t, grid, 4+len(models.Activities())+3+len(m.Remarks))
	for _, row := range grid {
		assert.Len(t, row, 9)
	}
	assert.Equal(t, "MAHSR-T3 Daily Progress Report", grid[0][0])
	assert.Equal(t, "Period: 27/05/2025 to 28/05/2025", grid[1][0])
	assert.Equal(t, "TCB-436", grid[2][6])
	assert.Equal(t, "Cumulative", grid[3][8])
	assert.Equal(t, 135.0, grid[4][5])
	assert.Equal(t, "TOTAL", grid[14][1])
}
