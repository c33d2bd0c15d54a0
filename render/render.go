package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/internal/cache"
	"github.com/gogpu/journal/scene"
	"github.com/gogpu/journal/theme"
)

// Template colors.
var (
	Paper = color.NRGBA{R: 0xFD, G: 0xFB, B: 0xF7, A: 0xFF}
	Ink   = color.NRGBA{R: 0x2C, G: 0x3E, B: 0x50, A: 0xFF}
)

// Template geometry in canvas units.
const (
	frameInset     = scene.Margin / 2
	frameWidth     = 10
	ruleWidth      = 6
	outlineWidth   = 4
	loupeGap       = 40
	handleDrawSize = scene.HandleRadius / 2
)

// Renderer draws scenes onto raster surfaces.
type Renderer struct {
	source      *text.FontSource
	fontSize    float64
	lineSpacing float64
	baseScale   float64
	maxDensity  float64

	bufs *cache.Cache[bufKey, *gg.ImageBuf]
}

// bufKey identifies a converted asset raster. Assets with a content hash
// share one buffer; the rest are keyed by identity.
type bufKey struct {
	ref   string
	asset *scene.Asset
}

func keyOf(a *scene.Asset) bufKey {
	if a.Ref != "" {
		return bufKey{ref: a.Ref}
	}
	return bufKey{asset: a}
}

// New creates a Renderer.
func New(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	data := o.font
	if data == nil {
		data = goregular.TTF
	}
	source, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFont, err)
	}
	return &Renderer{
		source:      source,
		fontSize:    o.fontSize,
		lineSpacing: o.lineSpacing,
		baseScale:   o.baseScale,
		maxDensity:  o.maxDensity,
		bufs:        cache.New[bufKey, *gg.ImageBuf](o.cacheBudget),
	}, nil
}

// MaxDensity returns the largest accepted density.
func (r *Renderer) MaxDensity() float64 { return r.maxDensity }

// Scale returns the pixels per canvas unit at density.
func (r *Renderer) Scale(density float64) float64 { return r.baseScale * density }

// Render draws s at the given density.
func (r *Renderer) Render(s *scene.Scene, density float64, frameOpts ...FrameOption) (*Surface, error) {
	if s == nil {
		return nil, ErrNilScene
	}
	if !(density > 0 && density <= r.maxDensity) {
		return nil, fmt.Errorf("%w: %v not in (0, %v]", ErrDensity, density, r.maxDensity)
	}
	var f frame
	for _, opt := range frameOpts {
		opt(&f)
	}

	scale := r.Scale(density)
	face := r.source.Face(r.fontSize)
	regions := make([]scene.Transform, len(s.TextBlocks))
	for i, b := range s.TextBlocks {
		regions[i] = b.Region
		if f.hasOverride && f.overrideID == b.ID {
			regions[i] = f.override
		}
	}
	layouts := make(map[scene.ID]TextLayout, len(s.TextBlocks))
	contentHeight := float64(scene.CanvasHeight)
	for _, l := range r.flowText(s.TextBlocks, regions, face) {
		layouts[l.Block.ID] = l
		contentHeight = max(contentHeight, l.Bottom()+scene.Margin)
	}

	w := int(math.Round(scene.CanvasWidth * scale))
	h := int(math.Ceil(contentHeight * scale))
	dc := gg.NewContext(w, h)
	defer func() { _ = dc.Close() }()

	dc.Scale(scale, scale)
	r.drawBackground(dc, s.Theme, contentHeight)

	for _, n := range s.PaintOrder() {
		t := n.Transform
		if f.hasOverride && f.overrideID == n.ID {
			t = f.override
		}
		switch n.Kind {
		case scene.KindText:
			l := layouts[n.ID]
			r.drawText(dc, l, l.Region, face)
		default:
			r.drawElement(dc, n.Element, t)
		}
	}

	if f.selected != "" {
		if n, ok := s.Lookup(f.selected); ok {
			t := n.Transform
			if f.hasOverride && f.overrideID == n.ID {
				t = f.override
			}
			if l, ok := layouts[n.ID]; ok {
				t = l.Region
			}
			drawSelection(dc, s.Theme, n.Kind, t, !f.hideHandles)
		}
	}
	if f.loupe != nil {
		drawLoupe(dc, f.loupe, f.loupeX, f.loupeY, scale)
	}

	journal.Logger().Debug("render: frame",
		"density", density, "width", w, "height", h, "elements", s.Len())

	return &Surface{
		Image:         toRGBA(dc.Image()),
		Density:       density,
		Scale:         scale,
		ContentHeight: contentHeight,
	}, nil
}

func (r *Renderer) drawBackground(dc *gg.Context, th scene.Theme, height float64) {
	dc.ClearWithColor(theme.ToRGBA(Paper))

	dc.SetColor(th.Primary)
	dc.SetLineWidth(frameWidth)
	dc.DrawRectangle(frameInset, frameInset, scene.CanvasWidth-2*frameInset, height-2*frameInset)
	_ = dc.Stroke()

	dc.SetColor(th.Shadow)
	dc.SetLineWidth(ruleWidth)
	y := float64(scene.Margin) - ruleWidth
	dc.DrawLine(scene.Margin, y, scene.CanvasWidth-scene.Margin, y)
	_ = dc.Stroke()
}

func (r *Renderer) drawElement(dc *gg.Context, e *scene.Element, t scene.Transform) {
	if e == nil || e.Asset == nil || e.Asset.Image == nil {
		return
	}
	buf := r.imageBuf(e.Asset)
	dc.Push()
	if t.Rotation != 0 {
		cx, cy := t.Center()
		dc.RotateAbout(t.Radians(), cx, cy)
	}
	dc.DrawImageEx(buf, gg.DrawImageOptions{
		X:             t.X,
		Y:             t.Y,
		DstWidth:      t.Width,
		DstHeight:     t.Height,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	dc.Pop()
}

func (r *Renderer) drawText(dc *gg.Context, l TextLayout, region scene.Transform, face text.Face) {
	if len(l.Lines) == 0 {
		return
	}
	m := face.Metrics()
	baseline := region.Y + (l.LineHeight-(m.Ascent+m.Descent))/2 + m.Ascent

	dc.SetFont(face)
	dc.SetColor(Ink)
	for i, line := range l.Lines {
		x := region.X
		if l.Direction == di.DirectionRTL {
			x = region.X + region.Width - face.Advance(line)
		}
		dc.DrawString(line, x, baseline+float64(i)*l.LineHeight)
	}
}

func drawSelection(dc *gg.Context, th scene.Theme, kind scene.Kind, t scene.Transform, handles bool) {
	dc.Push()
	if t.Rotation != 0 {
		cx, cy := t.Center()
		dc.RotateAbout(t.Radians(), cx, cy)
	}
	dc.SetColor(th.Primary)
	dc.SetLineWidth(outlineWidth)
	dc.SetDash(16, 10)
	dc.DrawRectangle(t.X, t.Y, t.Width, t.Height)
	_ = dc.Stroke()
	dc.ClearDash()
	dc.Pop()

	if !handles {
		return
	}
	for _, c := range scene.Corners {
		x, y := t.Corner(c)
		drawHandle(dc, th, x, y)
	}
	if kind != scene.KindText {
		tx, ty := t.ToCanvas(t.X+t.Width/2, t.Y)
		hx, hy := t.RotateHandle()
		dc.SetColor(th.Primary)
		dc.SetLineWidth(outlineWidth)
		dc.DrawLine(tx, ty, hx, hy)
		_ = dc.Stroke()
		drawHandle(dc, th, hx, hy)
	}
}

func drawHandle(dc *gg.Context, th scene.Theme, x, y float64) {
	dc.DrawCircle(x, y, handleDrawSize)
	dc.SetColor(color.White)
	_ = dc.FillPreserve()
	dc.SetColor(th.Primary)
	dc.SetLineWidth(outlineWidth)
	_ = dc.Stroke()
}

func drawLoupe(dc *gg.Context, img image.Image, x, y, scale float64) {
	b := img.Bounds()
	w, h := float64(b.Dx())/scale, float64(b.Dy())/scale
	lx, ly := x+loupeGap, y-loupeGap-h
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             lx,
		Y:             ly,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: gg.InterpNearest,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	dc.SetColor(Ink)
	dc.SetLineWidth(outlineWidth)
	dc.DrawRectangle(lx, ly, w, h)
	_ = dc.Stroke()
}

// imageBuf converts an asset once and reuses the result.
func (r *Renderer) imageBuf(a *scene.Asset) *gg.ImageBuf {
	return r.bufs.GetOrCreate(keyOf(a), func() (*gg.ImageBuf, int64) {
		b := a.Image.Bounds()
		return gg.ImageBufFromImage(a.Image), int64(b.Dx()) * int64(b.Dy()) * 4
	})
}

// CacheStats reports usage of the converted raster cache.
func (r *Renderer) CacheStats() cache.Stats { return r.bufs.Stats() }

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
