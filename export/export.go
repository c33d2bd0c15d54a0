// Package export turns a scene into the deliverables of an entry: a
// paginated PDF rendered at high density and a small JPEG preview.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/render"
	"github.com/gogpu/journal/scene"
)

// Defaults.
const (
	DefaultDensity        = 8
	DefaultQuality        = 92
	DefaultPreviewWidth   = 480
	DefaultPreviewQuality = 70
)

// Exporter renders scenes for output. It never mutates the scene it is
// given. An Exporter is safe for concurrent use if its Renderer is.
type Exporter struct {
	r              *render.Renderer
	density        float64
	pageW, pageH   float64
	quality        int
	previewWidth   int
	previewQuality int
	now            func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithDensity sets the render density of the PDF raster.
func WithDensity(d float64) Option {
	return func(e *Exporter) {
		if d > 0 {
			e.density = d
		}
	}
}

// WithPage sets the page size in millimetres.
func WithPage(widthMM, heightMM float64) Option {
	return func(e *Exporter) {
		if widthMM > 0 && heightMM > 0 {
			e.pageW, e.pageH = widthMM, heightMM
		}
	}
}

// WithQuality sets the JPEG quality of the embedded page raster.
func WithQuality(q int) Option {
	return func(e *Exporter) {
		if q >= 1 && q <= 100 {
			e.quality = q
		}
	}
}

// WithPreview sets the preview width in pixels and its JPEG quality.
func WithPreview(width, quality int) Option {
	return func(e *Exporter) {
		if width > 0 {
			e.previewWidth = width
		}
		if quality >= 1 && quality <= 100 {
			e.previewQuality = quality
		}
	}
}

// WithClock sets the clock used for the PDF creation date.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// New returns an Exporter drawing with r.
func New(r *render.Renderer, opts ...Option) *Exporter {
	e := &Exporter{
		r:              r,
		density:        DefaultDensity,
		pageW:          A4WidthMM,
		pageH:          A4HeightMM,
		quality:        DefaultQuality,
		previewWidth:   DefaultPreviewWidth,
		previewQuality: DefaultPreviewQuality,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result describes a finished document.
type Result struct {
	PDF      []byte
	Geometry Geometry
}

// Document renders s and lays the raster out over as many pages as its
// height needs. ctx is only consulted before work starts; a started export
// runs to completion.
func (e *Exporter) Document(ctx context.Context, s *scene.Scene) (*Result, error) {
	if s == nil {
		return nil, ErrNoCaptureTarget
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := e.now()

	c := s.Clone()
	c.TrimTrailingEmpty()
	surf, err := e.r.Render(c, e.density, render.WithoutHandles())
	if err != nil {
		return nil, fmt.Errorf("export: render: %w", err)
	}
	if surf.Empty() {
		return nil, ErrEmptyRaster
	}
	g, err := NewGeometry(surf.Width(), surf.Height(), e.pageW, e.pageH)
	if err != nil {
		return nil, err
	}

	var raster bytes.Buffer
	if err := jpeg.Encode(&raster, surf.Image, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("export: encode raster: %w", err)
	}
	var out bytes.Buffer
	if err := e.writePDF(&out, g, raster.Bytes(), s.Date); err != nil {
		return nil, err
	}

	journal.Logger().Info("export: document",
		"pages", g.Pages,
		"raster", fmt.Sprintf("%dx%d", g.WidthPx, g.HeightPx),
		"bytes", out.Len(),
		"elapsed", e.now().Sub(start))
	return &Result{PDF: out.Bytes(), Geometry: g}, nil
}

// writePDF registers the raster once and places it on every page, shifted
// up by one page height per page.
func (e *Exporter) writePDF(w io.Writer, g Geometry, raster []byte, date time.Time) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: g.PageWidthMM, Ht: g.PageHeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("journal", true)
	if !date.IsZero() {
		pdf.SetTitle("Journal "+date.Format(time.DateOnly), true)
	}
	pdf.SetCreationDate(e.now())

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("page", opts, bytes.NewReader(raster))
	for i := range g.Pages {
		pdf.AddPage()
		pdf.ImageOptions("page", 0, g.Offset(i), g.PageWidthMM, g.HeightMM, false, opts, 0, "")
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

// Preview renders s and scales it to the preview width as a JPEG. The
// render density is the smallest whole density wide enough to avoid
// upscaling.
func (e *Exporter) Preview(ctx context.Context, s *scene.Scene) ([]byte, error) {
	if s == nil {
		return nil, ErrNoCaptureTarget
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	surf, err := e.r.Render(s, e.previewDensity(), render.WithoutHandles())
	if err != nil {
		return nil, fmt.Errorf("export: render preview: %w", err)
	}
	if surf.Empty() {
		return nil, ErrEmptyRaster
	}
	img := Downscale(surf.Image, e.previewWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.previewQuality}); err != nil {
		return nil, fmt.Errorf("export: encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) previewDensity() float64 {
	perDensity := scene.CanvasWidth * e.r.Scale(1)
	d := math.Max(1, math.Ceil(float64(e.previewWidth)/perDensity))
	return math.Min(d, e.r.MaxDensity())
}

// Downscale returns src scaled to width pixels, keeping its aspect ratio.
// Images already at most width wide are returned unchanged.
func Downscale(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() <= width {
		return src
	}
	height := max(1, int(math.Round(float64(b.Dy())*float64(width)/float64(b.Dx()))))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// FileName returns the PDF file name for an entry dated date.
func FileName(date time.Time) string {
	return "journal-" + date.Format(time.DateOnly) + ".pdf"
}

// PreviewName returns the preview file name for an entry dated date.
func PreviewName(date time.Time) string {
	return "journal-" + date.Format(time.DateOnly) + "-preview.jpg"
}
