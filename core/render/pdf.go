// Package render - PDF renderer.
// Lays out one captioned frame per page using gofpdf.
// Frames are JPEG-encoded and embedded from memory, or spooled into the
// run's work directory when SpoolToDisk is set.
package render

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/jung-kurt/gofpdf"
)

const (
	captionFont     = "Helvetica"
	captionFontSize = 14
	captionLineH    = 20
	creator         = "framedoc"
)

// PDFRenderer renders a Document as a PDF.
type PDFRenderer struct {
	// JPEGQuality is passed to image/jpeg (1-100).
	JPEGQuality int
	// SpoolToDisk writes each encoded frame under workDir before embedding.
	SpoolToDisk bool
}

// NewPDFRenderer creates a PDFRenderer with the given JPEG quality.
func NewPDFRenderer(quality int) *PDFRenderer {
	if quality < 1 || quality > 100 {
		quality = 95
	}
	return &PDFRenderer{JPEGQuality: quality}
}

// Render converts the document into PDF bytes.
func (r *PDFRenderer) Render(doc *core.Document, workDir string) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, core.ErrEmptyInput
	}
	if r.SpoolToDisk && workDir == "" {
		return nil, fmt.Errorf("spooling frames requires a work directory")
	}

	pdf := newDocument(doc)
	availW := doc.PageWidth - doc.Margins.Left - doc.Margins.Right

	for i, page := range doc.Pages {
		pdf.AddPage()

		// Caption, centered across the top margin.
		pdf.SetFont(captionFont, "B", captionFontSize)
		pdf.SetTextColor(0, 0, 255)
		pdf.SetXY(doc.Margins.Left, doc.Margins.Top)
		pdf.CellFormat(availW, captionLineH, page.Caption, "", 0, "C", false, 0, "")

		name, opts, err := r.registerFrame(pdf, page, i, workDir)
		if err != nil {
			return nil, err
		}
		p := page.Placement
		pdf.ImageOptions(name, p.X, p.Y, p.DrawWidth, p.DrawHeight, false, opts, 0, "")

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

func newDocument(doc *core.Document) *gofpdf.Fpdf {
	init := &gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: doc.PageWidth, Ht: doc.PageHeight},
	}
	if doc.PageWidth > doc.PageHeight {
		init.OrientationStr = "L"
		init.Size = gofpdf.SizeType{Wd: doc.PageHeight, Ht: doc.PageWidth}
	}

	pdf := gofpdf.NewCustom(init)
	pdf.SetMargins(doc.Margins.Left, doc.Margins.Top, doc.Margins.Right)
	pdf.SetAutoPageBreak(false, doc.Margins.Bottom)
	pdf.SetCreator(creator, true)
	if doc.Title != "" {
		pdf.SetTitle(doc.Title, true)
	}
	return pdf
}

// registerFrame encodes the page's frame and makes it available to the
// document under the returned name.
func (r *PDFRenderer) registerFrame(pdf *gofpdf.Fpdf, page core.Page, i int, workDir string) (string, gofpdf.ImageOptions, error) {
	opts := gofpdf.ImageOptions{ImageType: "JPG"}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, page.Frame.Image, &jpeg.Options{Quality: r.JPEGQuality}); err != nil {
		return "", opts, fmt.Errorf("encoding frame %d: %w", page.Frame.Sequence, err)
	}

	if r.SpoolToDisk {
		path := filepath.Join(workDir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			return "", opts, fmt.Errorf("spooling frame %d: %w", page.Frame.Sequence, err)
		}
		// ImageOptions registers file paths on first use.
		return path, opts, nil
	}

	name := fmt.Sprintf("frame-%d", page.Frame.Sequence)
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	return name, opts, nil
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// CountPages counts page objects in a rendered PDF.
func CountPages(data []byte) int {
	return len(pageObject.FindAllIndex(data, -1))
}

// CountPages re-reads rendered output and reports its page count.
func (r *PDFRenderer) CountPages(data []byte) (int, error) {
	return CountPages(data), nil
}
