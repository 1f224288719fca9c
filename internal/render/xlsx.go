package render

import (
	"io"

	"github.com/xuri/excelize/v2"

	"genspec/internal/checklist"
	"genspec/internal/logging"
	"genspec/internal/report"
)

const (
	sheetLoads     = "Load Analysis"
	sheetSpec      = "Specification"
	sheetChecklist = "Checklist"
)

// Workbook renders the load analysis, specification and checklist of a
// report as an XLSX workbook.
type Workbook struct{}

// NewWorkbook returns a workbook renderer.
func NewWorkbook() *Workbook { return &Workbook{} }

// Render writes the workbook for p to dest.
func (w *Workbook) Render(p report.Payload, dest string) error {
	timer := logging.StartTimer(logging.CategoryRender, "xlsx "+p.ID)
	defer timer.Stop()

	return writeAtomic(dest, func(out io.Writer) error {
		f := excelize.NewFile()
		defer f.Close()

		if err := fillWorkbook(f, p); err != nil {
			return err
		}
		return f.Write(out)
	})
}

// sheetWriter accumulates the first error so rows can be written without
// checking each cell.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (s *sheetWriter) write(values ...interface{}) {
	if s.err != nil {
		return
	}
	s.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if err := s.f.SetCellValue(s.sheet, cell, v); err != nil {
			s.err = err
			return
		}
	}
}

func (s *sheetWriter) style(id, cols int) {
	if s.err != nil || cols == 0 {
		return
	}
	last, err := excelize.CoordinatesToCellName(cols, s.row)
	if err != nil {
		s.err = err
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, s.row)
	s.err = s.f.SetCellStyle(s.sheet, first, last, id)
}

func (s *sheetWriter) skip() { s.row++ }

func fillWorkbook(f *excelize.File, p report.Payload) error {
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F1F5F9"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for _, name := range []string{sheetLoads, sheetSpec, sheetChecklist} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	loads := &sheetWriter{f: f, sheet: sheetLoads}
	loads.write("Equipment", "Watts", "Qty", "Total (W)")
	loads.style(bold, 4)
	total := 0
	for _, l := range p.Loads {
		loads.write(l.Name, l.Wattage, l.Quantity, l.TotalWatts())
		total += l.TotalWatts()
	}
	loads.write("Total", "", "", total)
	loads.style(bold, 4)
	if a, err := p.Analysis(); err == nil {
		loads.skip()
		loads.write("Capacity (kW)", a.CapacityKW)
		loads.write("Usage (%)", a.UsagePercent)
		loads.write("Status", a.Classification.Label())
	}

	spec := &sheetWriter{f: f, sheet: sheetSpec}
	spec.write("Report ID", p.ID)
	spec.write("Project", p.Metadata.ProjectName)
	spec.write("Configuration", p.Banner())
	spec.skip()
	spec.write("Parameter", "Value")
	spec.style(bold, 2)
	for _, row := range p.Spec.Rows() {
		spec.write(row.Label, row.Value)
	}
	spec.write("Notes", p.Spec.Notes)

	checks := &sheetWriter{f: f, sheet: sheetChecklist}
	checks.write("Category", "Item", "Done")
	checks.style(bold, 3)
	for _, cat := range checklist.Taxonomy() {
		for _, item := range cat.Items {
			checks.write(cat.Name, item, p.Checklist.Done(item))
		}
	}

	for _, s := range []*sheetWriter{loads, spec, checks} {
		if s.err != nil {
			return s.err
		}
	}
	if err := f.SetColWidth(sheetLoads, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSpec, "A", "B", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetChecklist, "A", "B", 34); err != nil {
		return err
	}

	idx, err := f.GetSheetIndex(sheetLoads)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}
