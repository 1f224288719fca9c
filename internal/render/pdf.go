package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"genspec/internal/catalog"
	"genspec/internal/checklist"
	"genspec/internal/logging"
	"genspec/internal/report"
)

const (
	documentTitle = "X-Ray Medical Imaging System Specifications"
	dateLayout    = "January 02, 2006"
	notAvailable  = "N/A"

	margin     = 15.0
	rowHeight  = 7.0
	labelWidth = 50.0
	qrSize     = 25.0
)

// Options configures the PDF renderer.
type Options struct {
	PageSize string // A4 or Letter
	Header   string // company line above the title
	QRCode   bool   // print a QR code of the report id
}

// DefaultOptions returns A4 with the Maven Imaging header and a QR code.
func DefaultOptions() Options {
	return Options{PageSize: "A4", Header: "MAVEN IMAGING", QRCode: true}
}

// PDF renders installation reports as PDF documents.
type PDF struct {
	opts    Options
	diagram func(catalog.PhaseType, catalog.PowerRating, catalog.Specification) ([]byte, error)
}

// NewPDF returns a PDF renderer.
func NewPDF(opts Options) *PDF {
	if opts.PageSize == "" {
		opts.PageSize = "A4"
	}
	return &PDF{opts: opts, diagram: diagramPNG}
}

func diagramPNG(phase catalog.PhaseType, rating catalog.PowerRating, spec catalog.Specification) ([]byte, error) {
	return Rasterize(Diagram(phase, rating, spec))
}

// Render writes the report for p to dest. A diagram that cannot be drawn is
// left out of the document rather than failing it.
func (r *PDF) Render(p report.Payload, dest string) error {
	timer := logging.StartTimer(logging.CategoryRender, "pdf "+p.ID)
	defer timer.Stop()

	return writeAtomic(dest, func(w io.Writer) error {
		pdf := r.build(p)
		if pdf.Err() {
			return pdf.Error()
		}
		return pdf.Output(w)
	})
}

func (r *PDF) build(p report.Payload) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", r.opts.PageSize, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(documentTitle, true)
	pdf.SetSubject(p.Metadata.ProjectName, true)
	pdf.SetCreator("genspec", false)
	pdf.AliasNbPages("")

	d := &doc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pageW, _ := pdf.GetPageSize()
	d.width = pageW - 2*margin

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(d.width, 5, d.tr(fmt.Sprintf("Report %s • Page %d of {nb}", p.ID, pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.header(d, p)
	d.projectInfo(p)
	d.specTable(p.Spec)
	r.wiringDiagram(d, p)
	d.loadAnalysis(p)
	d.checklist(p.Checklist)
	d.notes(p)
	return pdf
}

// doc carries the page state shared by the section writers.
type doc struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	width float64
}

func (d *doc) textColor(c [3]int) { d.pdf.SetTextColor(c[0], c[1], c[2]) }
func (d *doc) fillColor(c [3]int) { d.pdf.SetFillColor(c[0], c[1], c[2]) }

func rgb(c color.RGBA) [3]int { return [3]int{int(c.R), int(c.G), int(c.B)} }

var (
	pdfPrimary = rgb(colorPrimary)
	pdfBgLight = rgb(colorBgLight)
	pdfBorder  = rgb(colorBorder)
	pdfText    = rgb(colorText)
	pdfWhite   = [3]int{255, 255, 255}
)

func (r *PDF) header(d *doc, p report.Payload) {
	pdf := d.pdf
	top := pdf.GetY()

	if r.opts.QRCode {
		if png, err := QRCode(p.ID); err != nil {
			logging.RenderWarn("QR code for %s skipped: %v", p.ID, err)
		} else {
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
			pdf.ImageOptions("qr", margin+d.width-qrSize, top, qrSize, qrSize, false, opts, 0, "")
		}
	}

	textW := d.width - qrSize - 5
	pdf.SetFont("Helvetica", "B", 10)
	d.textColor(pdfPrimary)
	pdf.CellFormat(textW, 6, d.tr(r.opts.Header), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 17)
	d.textColor(pdfText)
	pdf.MultiCell(textW, 8, d.tr(documentTitle), "", "L", false)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(textW, 5, "Report ID: "+p.ID, "", 1, "L", false, 0, "")

	if y := top + qrSize + 2; pdf.GetY() < y {
		pdf.SetY(y)
	}

	pdf.SetFont("Helvetica", "B", 12)
	d.fillColor(pdfPrimary)
	d.textColor(pdfWhite)
	pdf.CellFormat(d.width, 10, d.tr("Configuration: "+p.Banner()), "", 1, "C", true, 0, "")
	d.textColor(pdfText)
}

func (d *doc) section(title string) {
	d.pdf.Ln(4)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.textColor(pdfPrimary)
	d.pdf.SetDrawColor(pdfBorder[0], pdfBorder[1], pdfBorder[2])
	d.pdf.CellFormat(d.width, 8, d.tr(Upper(title)), "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
	d.textColor(pdfText)
}

func (d *doc) keyValue(label, value string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.fillColor(pdfBgLight)
	d.pdf.CellFormat(labelWidth, rowHeight, d.tr(label), "1", 0, "L", true, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.CellFormat(d.width-labelWidth, rowHeight, d.tr(value), "1", 1, "L", false, 0, "")
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func (d *doc) projectInfo(p report.Payload) {
	d.section("Project Information")
	m := p.Metadata
	d.keyValue("Project", orNA(m.ProjectName))
	d.keyValue("Address", orNA(m.Address))
	d.keyValue("Contractor", orNA(m.Contractor))
	d.keyValue("Electrician", orNA(m.Electrician))
	if m.LicenseNumber != "" {
		d.keyValue("License #", m.LicenseNumber)
	}
	d.keyValue("Date", p.CreatedAt.Format(dateLayout))
}

func (d *doc) tableHeader(cols []string, widths []float64, aligns []string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.fillColor(pdfBgLight)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		d.pdf.CellFormat(widths[i], rowHeight, d.tr(c), "1", ln, aligns[i], true, 0, "")
	}
	d.pdf.SetFont("Helvetica", "", 10)
}

func (d *doc) specTable(spec catalog.Specification) {
	d.section("Electrical Specifications")
	widths := []float64{labelWidth, d.width - labelWidth}
	d.tableHeader([]string{"Parameter", "Value"}, widths, []string{"L", "L"})
	for _, row := range spec.Rows() {
		d.pdf.CellFormat(widths[0], rowHeight, d.tr(row.Label), "1", 0, "L", false, 0, "")
		d.pdf.CellFormat(widths[1], rowHeight, d.tr(row.Value), "1", 1, "L", false, 0, "")
	}
}

func (r *PDF) wiringDiagram(d *doc, p report.Payload) {
	png, err := r.diagram(p.Phase, p.Rating, p.Spec)
	if err != nil {
		logging.RenderWarn("diagram for %s omitted: %v", p.ID, err)
		return
	}

	if _, _, err := image.Decode(bytes.NewReader(png)); err != nil {
		logging.RenderWarn("diagram for %s omitted: undecodable image: %v", p.ID, err)
		return
	}

	pdf := d.pdf
	if !pdf.Ok() {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("diagram", opts, bytes.NewReader(png))
	if pdf.Err() {
		// The error belongs to the diagram alone; the document continues.
		logging.RenderWarn("diagram for %s omitted: %v", p.ID, pdf.Error())
		pdf.ClearError()
		return
	}

	height := d.width * DiagramHeight / DiagramWidth
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+height+20 > pageH-margin {
		pdf.AddPage()
	}
	d.section("Wiring Diagram")

	y := pdf.GetY()
	pdf.ImageOptions("diagram", margin, y, d.width, height, false, opts, 0, "")
	pdf.SetY(y + height + 2)
}

func (d *doc) loadAnalysis(p report.Payload) {
	if len(p.Loads) == 0 {
		return
	}
	d.section("Load Analysis")

	widths := []float64{d.width - 100, 35, 20, 45}
	aligns := []string{"L", "R", "C", "R"}
	d.tableHeader([]string{"Equipment", "Watts", "Qty", "Total"}, widths, aligns)

	total := 0
	for _, l := range p.Loads {
		total += l.TotalWatts()
		cells := []string{l.Name, Watts(l.Wattage), strconv.Itoa(l.Quantity), Watts(l.TotalWatts())}
		for i, c := range cells {
			ln := 0
			if i == len(cells)-1 {
				ln = 1
			}
			d.pdf.CellFormat(widths[i], rowHeight, d.tr(c), "1", ln, aligns[i], false, 0, "")
		}
	}

	d.pdf.SetFont("Helvetica", "B", 10)
	d.fillColor(pdfBgLight)
	d.pdf.CellFormat(widths[0]+widths[1]+widths[2], rowHeight, "Total:", "1", 0, "R", true, 0, "")
	d.pdf.CellFormat(widths[3], rowHeight, Watts(total), "1", 1, "R", true, 0, "")

	if a, err := p.Analysis(); err == nil {
		d.pdf.Ln(2)
		d.pdf.SetFont("Helvetica", "", 10)
		summary := fmt.Sprintf("Usage: %s of %d kW capacity (%s)", Percent(a.UsagePercent), a.CapacityKW, a.Classification.Label())
		d.pdf.CellFormat(d.width, rowHeight, d.tr(summary), "", 1, "L", false, 0, "")
	}
}

func (d *doc) checklist(state checklist.State) {
	d.section("Safety Checklist")
	widths := []float64{45, d.width - 70, 25}
	aligns := []string{"L", "L", "C"}
	d.tableHeader([]string{"Category", "Item", "Status"}, widths, aligns)

	for _, cat := range checklist.Taxonomy() {
		for _, item := range cat.Items {
			status := "Open"
			if state.Done(item) {
				status = "Done"
			}
			cells := []string{cat.Name, item, status}
			for i, c := range cells {
				ln := 0
				if i == len(cells)-1 {
					ln = 1
				}
				d.pdf.CellFormat(widths[i], rowHeight, d.tr(c), "1", ln, aligns[i], false, 0, "")
			}
		}
	}
}

func (d *doc) notes(p report.Payload) {
	d.section("Important Notes")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(d.width, 5, d.tr(p.Spec.Notes), "", "L", false)

	if p.Metadata.CustomNotes != "" {
		d.pdf.Ln(3)
		d.pdf.SetFont("Helvetica", "B", 10)
		d.pdf.CellFormat(d.width, 6, "Project Notes", "", 1, "L", false, 0, "")
		d.pdf.SetFont("Helvetica", "", 10)
		d.pdf.MultiCell(d.width, 5, d.tr(p.Metadata.CustomNotes), "", "L", false)
	}
}
