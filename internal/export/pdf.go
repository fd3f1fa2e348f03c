package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// PDFContentType is the MIME type of the written reports
const PDFContentType = "application/pdf"

const (
	pdfMargin     = 15.0
	pdfLineHeight = 4.5
	pdfCellPad    = 1.5
	pdfFont       = "Helvetica"
)

// Report is a titled table rendered as a PDF document
type Report struct {
	Title    string
	Subtitle string
	Sheet    Sheet
}

// WritePDF renders the report as a landscape A4 table. The header row is
// repeated on every page and long cells wrap inside their column.
func WritePDF(w io.Writer, report Report) error {
	if len(report.Sheet.Headers) == 0 {
		return fmt.Errorf("report needs at least one column")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(report.Title, true)
	pdf.SetDrawColor(200, 200, 200)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(report.Sheet, pageW-2*pdfMargin)

	headers := make([]string, len(report.Sheet.Headers))
	for i, h := range report.Sheet.Headers {
		headers[i] = latin1(h)
	}
	drawHeader := func() {
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(31, 78, 121)
		pdf.SetTextColor(255, 255, 255)
		drawRow(pdf, widths, headers, tr)
		pdf.SetFont(pdfFont, "", 8)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.SetTextColor(31, 78, 121)
	pdf.CellFormat(0, 10, tr(latin1(report.Title)), "", 1, "C", false, 0, "")
	if report.Subtitle != "" {
		pdf.SetFont(pdfFont, "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, 6, tr(latin1(report.Subtitle)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
	drawHeader()

	for i, row := range report.Sheet.Rows {
		cells := make([]string, len(headers))
		for j := range cells {
			if j < len(row) {
				cells[j] = latin1(fmt.Sprint(row[j]))
			}
		}

		if pdf.GetY()+rowHeight(pdf, widths, cells) > pageH-pdfMargin {
			pdf.AddPage()
			drawHeader()
		}

		if i%2 == 1 {
			pdf.SetFillColor(242, 242, 242)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		drawRow(pdf, widths, cells, tr)
	}

	if len(report.Sheet.Rows) == 0 {
		pdf.SetFont(pdfFont, "I", 9)
		pdf.CellFormat(0, 8, "No entries", "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

// RenderPDF renders the report into memory
func RenderPDF(report Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawRow(pdf *fpdf.Fpdf, widths []float64, cells []string, tr func(string) string) {
	h := rowHeight(pdf, widths, cells)
	x, y := pdf.GetXY()
	for i, text := range cells {
		pdf.Rect(x, y, widths[i], h, "FD")
		for n, line := range pdf.SplitText(text, widths[i]-2*pdfCellPad) {
			pdf.SetXY(x+pdfCellPad, y+pdfCellPad+float64(n)*pdfLineHeight)
			pdf.CellFormat(widths[i]-2*pdfCellPad, pdfLineHeight, tr(line), "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	pdf.SetXY(pdfMargin, y+h)
}

func rowHeight(pdf *fpdf.Fpdf, widths []float64, cells []string) float64 {
	lines := 1
	for i, text := range cells {
		if n := len(pdf.SplitText(text, widths[i]-2*pdfCellPad)); n > lines {
			lines = n
		}
	}
	return float64(lines)*pdfLineHeight + 2*pdfCellPad
}

// columnWidths shares the printable width by the longest text in each
// column, clamped so short columns stay readable and long ones wrap
func columnWidths(sheet Sheet, total float64) []float64 {
	widths := make([]float64, len(sheet.Headers))
	sum := 0.0
	for i, h := range sheet.Headers {
		longest := utf8.RuneCountInString(h)
		for _, row := range sheet.Rows {
			if i < len(row) {
				if n := utf8.RuneCountInString(fmt.Sprint(row[i])); n > longest {
					longest = n
				}
			}
		}
		widths[i] = math.Min(math.Max(float64(longest), 6), 40)
		sum += widths[i]
	}
	for i := range widths {
		widths[i] = total * widths[i] / sum
	}
	return widths
}

// latin1 replaces what the core fonts cannot draw
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r < 0x20:
			return ' '
		case r > 0xFF:
			return '?'
		}
		return r
	}, s)
}
