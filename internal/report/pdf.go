package report

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/go-pdf/fpdf"
)

// PageMargin is the blank border around the embedded image, in millimetres.
const PageMargin = 10.0

// ExportPDF rasterizes the snapshot and writes it as a single A4 portrait page.
func ExportPDF(w io.Writer, s Snapshot) error {
	img, err := Rasterize(s)
	if err != nil {
		return fmt.Errorf("rasterize snapshot: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(PageMargin, PageMargin, PageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(s.Title+" "+s.MonthLabel, true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("snapshot", opts, &buf)

	pageW, pageH := pdf.GetPageSize()
	b := img.Bounds()
	p := FitImage(float64(b.Dx()), float64(b.Dy()), pageW, pageH, PageMargin)
	pdf.ImageOptions("snapshot", p.X, p.Y, p.W, p.H, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
