package export

import (
	"fmt"
	"time"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// Cell is the Target / Achieved / Cumulative triple of one activity at one site.
type Cell struct {
	Target     float64
	Achieved   float64
	Cumulative float64
}

// Row is one catalog activity across all sites, in site order.
type Row struct {
	SNo      int
	Activity string
	Unit     string
	Cells    []Cell
}

// Matrix is the compiled activities-by-sites report, independent of any file format.
type Matrix struct {
	Start   time.Time
	End     time.Time
	Sites   []string
	Rows    []Row
	Total   []Cell
	Remarks []string
}

// Compile lays reports out as the DPR matrix. Rows follow the activity
// catalog, columns follow sites. Target and achieved are summed over the
// period, cumulative takes the maximum. Activities outside the catalog and
// reports of sites not listed are ignored.
func Compile(reports []models.DailyReport, start, end time.Time, sites []string) Matrix {
	siteIdx := make(map[string]int, len(sites))
	for i, s := range sites {
		siteIdx[s] = i
	}

	catalog := models.Activities()
	actIdx := make(map[string]int, len(catalog))
	rows := make([]Row, len(catalog))
	for i, a := range catalog {
		actIdx[a.Name] = i
		rows[i] = Row{SNo: i + 1, Activity: a.Name, Unit: a.Unit, Cells: make([]Cell, len(sites))}
	}

	latest := make([]*models.DailyReport, len(sites))
	for i := range reports {
		r := &reports[i]
		col, ok := siteIdx[r.SiteCode]
		if !ok {
			continue
		}
		if cur := latest[col]; cur == nil || !r.Date.Before(cur.Date) {
			latest[col] = r
		}
		for _, a := range r.Activities {
			row, ok := actIdx[a.Name]
			if !ok {
				continue
			}
			cell := &rows[row].Cells[col]
			cell.Target += a.Target
			cell.Achieved += a.Achieved
			if a.Cumulative > cell.Cumulative {
				cell.Cumulative = a.Cumulative
			}
		}
	}

	total := make([]Cell, len(sites))
	for _, row := range rows {
		for col, c := range row.Cells {
			total[col].Target += c.Target
			total[col].Achieved += c.Achieved
			total[col].Cumulative += c.Cumulative
		}
	}

	var remarks []string
	for col, site := range sites {
		r := latest[col]
		if r == nil {
			continue
		}
		remarks = append(remarks, fmt.Sprintf("%s: Weather - %s | Workers - %d | %s", site, r.Weather, r.Workers, r.Remarks))
	}

	return Matrix{
		Start:   models.DateOf(start),
		End:     models.DateOf(end),
		Sites:   append([]string(nil), sites...),
		Rows:    rows,
		Total:   total,
		Remarks: remarks,
	}
}

// Width is the number of columns of the rendered matrix.
func (m Matrix) Width() int {
	return 3 + 3*len(m.Sites)
}

// Title is the first line of the rendered report.
func Title(projectName string) string {
	return projectName + " Daily Progress Report"
}

// PeriodLine describes the covered date range.
func (m Matrix) PeriodLine() string {
	return fmt.Sprintf("Period: %s to %s", m.Start.Format("02/01/2006"), m.End.Format("02/01/2006"))
}

// Filename returns the attachment name for a report period starting at start.
func Filename(start time.Time) string {
	return start.Format("02012006") + "-DPR.xlsx"
}

// Grid renders the matrix as plain rows of values, top to bottom, in the same
// layout as the xlsx sheet. Merged regions hold their value in the first cell.
func (m Matrix) Grid(projectName string) [][]interface{} {
	width := m.Width()
	blank := func() []interface{} {
		row := make([]interface{}, width)
		for i := range row {
			row[i] = ""
		}
		return row
	}
	line := func(text string) []interface{} {
		row := blank()
		row[0] = text
		return row
	}

	grid := [][]interface{}{line(Title(projectName)), line(m.PeriodLine())}

	sitesRow, labelsRow := blank(), blank()
	sitesRow[0], sitesRow[1], sitesRow[2] = "S.No", "SCOPE / ACTIVITY", "Unit"
	for i, site := range m.Sites {
		sitesRow[3+3*i] = site
		labelsRow[3+3*i], labelsRow[4+3*i], labelsRow[5+3*i] = "Target", "Achieved", "Cumulative"
	}
	grid = append(grid, sitesRow, labelsRow)

	for _, r := range m.Rows {
		row := blank()
		row[0], row[1], row[2] = r.SNo, r.Activity, r.Unit
		putCells(row, r.Cells)
		grid = append(grid, row)
	}

	total := blank()
	total[1] = "TOTAL"
	putCells(total, m.Total)
	grid = append(grid, total, blank(), line("REMARKS & WEATHER CONDITIONS"))

	for _, text := range m.Remarks {
		grid = append(grid, line(text))
	}
	return grid
}

func putCells(row []interface{}, cells []Cell) {
	for i, c := range cells {
		row[3+3*i], row[4+3*i], row[5+3*i] = c.Target, c.Achieved, c.Cumulative
	}
}
