package render

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
	"github.com/ryosukesatoh/daily-brief/internal/logging"
)

const (
	styledFamily  = "DejaVu"
	defaultFamily = "Helvetica"
	defaultTitle  = "Daily Technical and Strategic Analysis"
	sourcesTitle  = "News Sources"
)

// ErrFontUnavailable is returned by the styled pass when the TrueType font
// cannot be loaded.
var ErrFontUnavailable = errors.New("render: font unavailable")

// PDFRenderer writes the report as an A4 PDF to a fixed path.
type PDFRenderer struct {
	output   string
	fontPath string
	title    string
	logger   *slog.Logger
}

func NewPDFRenderer(output, fontPath, title string, logger *slog.Logger) *PDFRenderer {
	if title == "" {
		title = defaultTitle
	}
	return &PDFRenderer{
		output:   output,
		fontPath: fontPath,
		title:    title,
		logger:   logging.OrDefault(logger),
	}
}

// style is the font setup for one rendering pass.
type style struct {
	family string
	text   func(string) string
}

// Render builds the document with the configured font and falls back to the
// core font when that fails. Only a failure to write the file is an error.
func (r *PDFRenderer) Render(analysis string, citations []aggregator.Citation) (*Document, error) {
	doc := &Document{Path: r.output}

	pdf, err := r.build(analysis, citations, true)
	if err != nil {
		r.logger.Warn("Styled rendering failed, using default style", "font", r.fontPath, "error", err)
		doc.Degraded = true
		pdf, err = r.build(analysis, citations, false)
		if err != nil {
			return nil, fmt.Errorf("render: default style failed: %w", err)
		}
	}
	doc.Pages = pdf.PageCount()

	if err := writeAtomic(r.output, pdf); err != nil {
		return nil, err
	}
	r.logger.Info("Rendered report", "path", r.output, "pages", doc.Pages, "degraded", doc.Degraded)
	return doc, nil
}

func (r *PDFRenderer) build(analysis string, citations []aggregator.Citation, styled bool) (_ *fpdf.Fpdf, err error) {
	// A malformed font file can panic inside the TrueType parser.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render: panic while building pdf: %v", rec)
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.title, true)
	pdf.SetAutoPageBreak(true, 15)

	st := style{family: defaultFamily, text: transliterate}
	if styled {
		if _, err := os.Stat(r.fontPath); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFontUnavailable, err)
		}
		pdf.AddUTF8Font(styledFamily, "", r.fontPath)
		if pdf.Err() {
			return nil, fmt.Errorf("%w: %v", ErrFontUnavailable, pdf.Error())
		}
		st = style{family: styledFamily, text: sanitizeUTF8}
	} else {
		tr := pdf.UnicodeTranslatorFromDescriptor("")
		st.text = func(s string) string { return tr(transliterate(s)) }
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(st.family, "", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(st.family, "", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, st.text(r.title), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont(st.family, "", 11)
	pdf.MultiCell(0, 6, st.text(analysis), "", "L", false)

	if len(citations) > 0 {
		pdf.AddPage()
		pdf.SetFont(st.family, "", 14)
		pdf.SetTextColor(34, 139, 34)
		pdf.CellFormat(0, 10, st.text(sourcesTitle), "", 1, "L", false, 0, "")
		pdf.Ln(5)

		for _, c := range citations {
			pdf.SetFont(st.family, "", 10)
			pdf.SetTextColor(34, 139, 34)
			pdf.MultiCell(0, 6, st.text(c.Label), "", "L", false)

			pdf.SetFont(st.family, "", 8)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(0, 6, st.text(c.Link), "", "L", false)
			pdf.Ln(4)
		}
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}
	return pdf, nil
}

// writeAtomic writes to a temporary file next to path and renames it into
// place, so a failed write never replaces the previous report.
func writeAtomic(path string, pdf *fpdf.Fpdf) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*.pdf")
	if err != nil {
		return fmt.Errorf("render: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("render: failed to write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("render: failed to close pdf: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("render: failed to move pdf into place: %w", err)
	}
	return nil
}
