package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	api.DisableConfigDir()
}

// Options controls PDF rendering.
type Options struct {
	Title    string    // printed above the table (default: Orders List)
	PageSize string    // A4, Letter or Legal (default: A4)
	Optimize bool      // pass the document through pdfcpu
	Created  time.Time // creation date written to the metadata; zero means now
}

// DefaultTitle is printed when Options.Title is empty.
const DefaultTitle = "Orders List"

type rgb struct{ r, g, b int }

var (
	headerFill = rgb{22, 160, 133}
	headerText = rgb{255, 255, 255}
	bodyText   = rgb{60, 60, 60}
	stripeFill = rgb{240, 240, 240}
	gridLine   = rgb{44, 62, 80}
)

const (
	margin     = 14.0 // mm
	lineHeight = 5.0  // mm per wrapped text line
	cellPad    = 1.5  // mm of horizontal padding
	fontSize   = 9.0
)

// Relative column widths; they sum to the printable width of A4 portrait.
var columnWidths = []float64{28, 66, 24, 24, 40}

// WritePDF draws t and writes the document to w.
func WritePDF(w io.Writer, t Table, opts Options) error {
	var raw bytes.Buffer
	if err := render(&raw, t, opts); err != nil {
		return err
	}
	if !opts.Optimize {
		_, err := w.Write(raw.Bytes())
		return err
	}
	if err := api.Optimize(bytes.NewReader(raw.Bytes()), w, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("optimize pdf: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in a PDF document.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}

type renderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	widths []float64
	bottom float64
}

func render(w io.Writer, t Table, opts Options) error {
	size := opts.PageSize
	if size == "" {
		size = "A4"
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	pdf := fpdf.New("P", "mm", normalizePageSize(size), "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AliasNbPages("")
	pdf.SetTitle(title, true)
	if !opts.Created.IsZero() {
		pdf.SetCreationDate(opts.Created)
	}

	r := &renderer{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
	pageW, pageH := pdf.GetPageSize()
	r.bottom = pageH - margin
	r.widths = scaleWidths(pageW - 2*margin)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(bodyText.r, bodyText.g, bodyText.b)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(bodyText.r, bodyText.g, bodyText.b)
	pdf.CellFormat(0, 10, r.tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	r.header(t.Header)
	stripe := false
	for _, row := range t.Rows {
		switch row.Kind {
		case RowNote:
			r.row([]string{row.Cells[0]}, []float64{sum(r.widths)}, "I", false, t.Header)
		case RowSpacer:
			r.row(row.Cells, r.widths, "", false, t.Header)
		default:
			r.row(row.Cells, r.widths, "", stripe, t.Header)
			stripe = !stripe
		}
	}

	return pdf.Output(w)
}

func (r *renderer) header(cells []string) {
	pdf := r.pdf
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
	pdf.SetTextColor(headerText.r, headerText.g, headerText.b)
	pdf.SetDrawColor(gridLine.r, gridLine.g, gridLine.b)
	pdf.SetLineWidth(0.1)

	h := r.height(cells, r.widths)
	r.draw(cells, r.widths, h, true)
}

// row draws one body row, starting a new page with a repeated header when
// the row does not fit.
func (r *renderer) row(cells []string, widths []float64, style string, fill bool, header []string) {
	pdf := r.pdf
	pdf.SetFont("Helvetica", style, fontSize)

	h := r.height(cells, widths)
	if pdf.GetY()+h > r.bottom {
		pdf.AddPage()
		r.header(header)
		pdf.SetFont("Helvetica", style, fontSize)
	}

	pdf.SetTextColor(bodyText.r, bodyText.g, bodyText.b)
	pdf.SetFillColor(stripeFill.r, stripeFill.g, stripeFill.b)
	r.draw(cells, widths, h, fill)
}

// height returns the row height needed to fit every cell's wrapped text.
func (r *renderer) height(cells []string, widths []float64) float64 {
	lines := 1
	for i, c := range cells {
		if i >= len(widths) {
			break
		}
		lines = max(lines, len(r.wrap(c, widths[i])))
	}
	return float64(lines)*lineHeight + 1
}

// wrap breaks text into lines that fit a column. Text is converted to the
// core font encoding first so widths are measured per byte.
func (r *renderer) wrap(text string, width float64) []string {
	avail := width - 2*cellPad
	var out []string
	for _, para := range strings.Split(r.tr(text), "\n") {
		out = append(out, r.wrapLine(para, avail)...)
	}
	return out
}

func (r *renderer) wrapLine(s string, avail float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	cur := ""
	for _, word := range words {
		for len(word) > 1 && r.pdf.GetStringWidth(word) > avail {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			n := r.fit(word, avail)
			lines = append(lines, word[:n])
			word = word[n:]
		}
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if cur != "" && r.pdf.GetStringWidth(next) > avail {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur = next
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// fit returns how many leading bytes of word fit in avail, at least one.
func (r *renderer) fit(word string, avail float64) int {
	n := 1
	for n < len(word) && r.pdf.GetStringWidth(word[:n+1]) <= avail {
		n++
	}
	return n
}

func (r *renderer) draw(cells []string, widths []float64, h float64, fill bool) {
	pdf := r.pdf
	x0, y0 := pdf.GetX(), pdf.GetY()
	style := "D"
	if fill {
		style = "FD"
	}

	x := x0
	for i, wdt := range widths {
		pdf.Rect(x, y0, wdt, h, style)
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		for j, line := range r.wrap(text, wdt) {
			pdf.SetXY(x+cellPad, y0+0.5+float64(j)*lineHeight)
			pdf.CellFormat(wdt-2*cellPad, lineHeight, line, "", 0, "L", false, 0, "")
		}
		x += wdt
	}
	pdf.SetXY(x0, y0+h)
}

func scaleWidths(printable float64) []float64 {
	factor := printable / sum(columnWidths)
	out := make([]float64, len(columnWidths))
	for i, w := range columnWidths {
		out[i] = w * factor
	}
	return out
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func normalizePageSize(s string) string {
	switch strings.ToLower(s) {
	case "letter":
		return "Letter"
	case "legal":
		return "Legal"
	default:
		return "A4"
	}
}
