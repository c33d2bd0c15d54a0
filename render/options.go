package render

import (
	"image"

	"github.com/gogpu/journal/scene"
)

// Defaults.
const (
	DefaultFontSize    = 48
	DefaultLineSpacing = 1.4
	DefaultBaseScale   = 0.125
	DefaultMaxDensity  = 8

	// DefaultCacheBudget bounds the converted image rasters kept between
	// renders, in bytes.
	DefaultCacheBudget = 256 << 20
)

// Option configures a Renderer during creation.
type Option func(*options)

type options struct {
	font        []byte
	fontSize    float64
	lineSpacing float64
	baseScale   float64
	maxDensity  float64
	cacheBudget int64
}

func defaultOptions() options {
	return options{
		fontSize:    DefaultFontSize,
		lineSpacing: DefaultLineSpacing,
		baseScale:   DefaultBaseScale,
		maxDensity:  DefaultMaxDensity,
		cacheBudget: DefaultCacheBudget,
	}
}

// WithFont sets the TrueType/OpenType font used for text blocks.
// The Go Regular font is used by default.
func WithFont(data []byte) Option {
	return func(o *options) { o.font = data }
}

// WithFontSize sets the text size in canvas units.
func WithFontSize(size float64) Option {
	return func(o *options) {
		if size > 0 {
			o.fontSize = size
		}
	}
}

// WithLineSpacing sets the baseline distance as a multiple of the font size.
func WithLineSpacing(f float64) Option {
	return func(o *options) {
		if f >= 1 {
			o.lineSpacing = f
		}
	}
}

// WithBaseScale sets the pixels per canvas unit at density 1.
func WithBaseScale(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.baseScale = s
		}
	}
}

// WithMaxDensity sets the largest accepted density.
func WithMaxDensity(d float64) Option {
	return func(o *options) {
		if d >= 1 {
			o.maxDensity = d
		}
	}
}

// WithCacheBudget bounds the bytes of converted image rasters kept
// between renders. Zero disables the bound.
func WithCacheBudget(bytes int64) Option {
	return func(o *options) {
		if bytes >= 0 {
			o.cacheBudget = bytes
		}
	}
}

// FrameOption adds live-only decorations to a single Render call.
type FrameOption func(*frame)

type frame struct {
	selected    scene.ID
	hasOverride bool
	overrideID  scene.ID
	override    scene.Transform

	loupe       image.Image
	loupeX      float64
	loupeY      float64
	hideHandles bool
}

// WithSelection outlines the element with the given id and draws its
// resize and rotation handles.
func WithSelection(id scene.ID) FrameOption {
	return func(f *frame) { f.selected = id }
}

// WithOverride draws element id with t instead of its committed transform.
// Used to preview a gesture before it is committed.
func WithOverride(id scene.ID, t scene.Transform) FrameOption {
	return func(f *frame) {
		f.hasOverride = true
		f.overrideID = id
		f.override = t
	}
}

// WithLoupe draws a magnified sample centered at canvas point (x, y).
func WithLoupe(img image.Image, x, y float64) FrameOption {
	return func(f *frame) {
		f.loupe = img
		f.loupeX = x
		f.loupeY = y
	}
}

// WithoutHandles keeps the selection outline but hides the handles, as
// during an active drag.
func WithoutHandles() FrameOption {
	return func(f *frame) { f.hideHandles = true }
}
