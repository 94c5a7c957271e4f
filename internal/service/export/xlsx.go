package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the matrix.
const SheetName = "DPR"

// Row numbers of the fixed parts of the sheet (1-based).
const (
	titleRow     = 1
	periodRow    = 2
	siteRow      = 3
	labelRow     = 4
	firstDataRow = 5
)

type sheetStyles struct {
	header, subheader, data, activity, number, total, remarksHeader int
}

// RenderXLSX writes the matrix to an in-memory xlsx workbook.
func RenderXLSX(m Matrix, projectName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, lastCol: m.Width()}

	w.setColWidth(1, 1, 5)
	w.setColWidth(2, 2, 35)
	w.setColWidth(3, 3, 10)
	if len(m.Sites) > 0 {
		w.setColWidth(4, m.Width(), 12)
	}

	w.mergedLine(titleRow, Title(projectName), st.header)
	w.mergedLine(periodRow, m.PeriodLine(), st.subheader)

	w.merge(1, siteRow, 1, labelRow, "S.No", st.header)
	w.merge(2, siteRow, 2, labelRow, "SCOPE / ACTIVITY", st.header)
	w.merge(3, siteRow, 3, labelRow, "Unit", st.header)
	for i, site := range m.Sites {
		col := 4 + 3*i
		w.merge(col, siteRow, col+2, siteRow, site, st.header)
		w.set(col, labelRow, "Target", st.subheader)
		w.set(col+1, labelRow, "Achieved", st.subheader)
		w.set(col+2, labelRow, "Cumulative", st.subheader)
	}

	row := firstDataRow
	for _, r := range m.Rows {
		w.set(1, row, r.SNo, st.data)
		w.set(2, row, r.Activity, st.activity)
		w.set(3, row, r.Unit, st.data)
		w.cells(row, r.Cells, st.number)
		row++
	}

	w.set(1, row, "", st.total)
	w.set(2, row, "TOTAL", st.total)
	w.set(3, row, "", st.total)
	w.cells(row, m.Total, st.total)
	row += 2

	w.mergedLine(row, "REMARKS & WEATHER CONDITIONS", st.remarksHeader)
	row++
	for _, text := range m.Remarks {
		w.mergedLine(row, text, st.activity)
		row++
	}

	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type styleSpec struct {
	dst   *int
	style *excelize.Style
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	centered := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}
	bold := &excelize.Font{Bold: true}

	var st sheetStyles
	specs := []styleSpec{
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      fill("4472C4"),
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&st.subheader, &excelize.Style{Font: bold, Fill: fill("B4C7E7"), Border: border, Alignment: centered}},
		{&st.data, &excelize.Style{Border: border, Alignment: centered}},
		{&st.activity, &excelize.Style{Border: border, Alignment: left}},
		// NumFmt 2 is the built-in "0.00".
		{&st.number, &excelize.Style{Border: border, Alignment: centered, NumFmt: 2}},
		{&st.total, &excelize.Style{Font: bold, Fill: fill("E7E6E6"), Border: border, Alignment: centered, NumFmt: 2}},
		{&st.remarksHeader, &excelize.Style{Font: bold, Fill: fill("F2F2F2"), Border: border, Alignment: left}},
	}

	for _, s := range specs {
		id, err := f.NewStyle(s.style)
		if err != nil {
			return sheetStyles{}, fmt.Errorf("create style: %w", err)
		}
		*s.dst = id
	}
	return st, nil
}

// sheetWriter keeps the first error and turns later calls into no-ops.
type sheetWriter struct {
	f       *excelize.File
	lastCol int
	err     error
}

func (w *sheetWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil && w.err == nil {
		w.err = err
	}
	return name
}

func (w *sheetWriter) set(col, row int, value interface{}, style int) {
	if w.err != nil {
		return
	}
	name := w.cell(col, row)
	if err := w.f.SetCellValue(SheetName, name, value); err != nil {
		w.err = fmt.Errorf("set %s: %w", name, err)
		return
	}
	if err := w.f.SetCellStyle(SheetName, name, name, style); err != nil {
		w.err = fmt.Errorf("style %s: %w", name, err)
	}
}

func (w *sheetWriter) merge(c1, r1, c2, r2 int, value interface{}, style int) {
	if w.err != nil {
		return
	}
	w.set(c1, r1, value, style)
	from, to := w.cell(c1, r1), w.cell(c2, r2)
	if w.err != nil || from == to {
		return
	}
	if err := w.f.MergeCell(SheetName, from, to); err != nil {
		w.err = fmt.Errorf("merge %s:%s: %w", from, to, err)
		return
	}
	if err := w.f.SetCellStyle(SheetName, from, to, style); err != nil {
		w.err = fmt.Errorf("style %s:%s: %w", from, to, err)
	}
}

func (w *sheetWriter) mergedLine(row int, text string, style int) {
	w.merge(1, row, w.lastCol, row, text, style)
}

func (w *sheetWriter) cells(row int, cells []Cell, style int) {
	for i, c := range cells {
		col := 4 + 3*i
		w.set(col, row, c.Target, style)
		w.set(col+1, row, c.Achieved, style)
		w.set(col+2, row, c.Cumulative, style)
	}
}

func (w *sheetWriter) setColWidth(from, to int, width float64) {
	if w.err != nil {
		return
	}
	a, err := excelize.ColumnNumberToName(from)
	if err != nil {
		w.err = err
		return
	}
	b, err := excelize.ColumnNumberToName(to)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetColWidth(SheetName, a, b, width); err != nil {
		w.err = fmt.Errorf("column width %s:%s: %w", a, b, err)
	}
}
