// Package export turns a rendered solution panel into a one-page PDF.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/go-pdf/fpdf"

	"linearsolve/api/internal/web"
)

const (
	Filename      = "chiziqli-algebra-yechim.pdf"
	PanelSelector = "#solution-panel"
	Scale         = 2.0

	pageWidthMM = 210.0 // A4 width
)

var ErrNoTarget = errors.New("export: no solution to export")

// Rasterizer captures the pixels of the element matching selector in document.
type Rasterizer interface {
	Capture(ctx context.Context, document, selector string, scale float64) ([]byte, error)
}

type Exporter struct {
	r       Rasterizer
	timeout time.Duration
}

func New(r Rasterizer, timeout time.Duration) *Exporter {
	return &Exporter{r: r, timeout: timeout}
}

// Export renders solution, captures the panel at Scale and wraps it in a PDF.
// An empty solution yields ErrNoTarget and touches nothing.
func (e *Exporter) Export(ctx context.Context, solution string) ([]byte, error) {
	if solution == "" {
		return nil, ErrNoTarget
	}
	doc, err := web.PanelDocument(solution)
	if err != nil {
		return nil, fmt.Errorf("export: panel: %w", err)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	shot, err := e.r.Capture(ctx, doc, PanelSelector, Scale)
	if err != nil {
		return nil, fmt.Errorf("export: capture: %w", err)
	}
	return ImagePDF(shot)
}

// PageSize keeps the page A4-wide and matches the capture's aspect ratio.
func PageSize(pxW, pxH int) (float64, float64) {
	return pageWidthMM, pageWidthMM * float64(pxH) / float64(pxW)
}

// ImagePDF places a PNG/JPEG capture on a single page of the same aspect ratio.
func ImagePDF(img []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("export: decode capture: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("export: empty capture %dx%d", cfg.Width, cfg.Height)
	}
	imageType := "PNG"
	if format == "jpeg" {
		imageType = "JPG"
	}
	w, h := PageSize(cfg.Width, cfg.Height)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Batafsil Yechim", true)
	pdf.SetCreator("LinearSolve AI", true)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("solution", opt, bytes.NewReader(img))
	pdf.ImageOptions("solution", 0, 0, w, h, false, opt, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("export: pdf: %w", err)
	}
	return out.Bytes(), nil
}
