// Package theme derives a primary/shadow accent pair from imagery.
//
// Extraction is deliberately cheap and deterministic: the source is
// downsampled to a fixed sample surface and five fixed points are tested
// for a usable luminance. It does not look for the dominant color.
package theme

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/gogpu/journal/scene"
)

const (
	// SampleSize is the side of the square sample surface.
	SampleSize = 150

	// MinLuminance and MaxLuminance bound usable accent samples.
	MinLuminance = 30
	MaxLuminance = 220

	// ShadowFactor darkens each channel of the primary color.
	ShadowFactor = 0.7
)

// Fallback is the primary color used when every sample is rejected.
var Fallback = scene.DefaultTheme.Primary

// samplePoints are the four quadrant centers followed by the true center.
var samplePoints = [...]image.Point{
	{SampleSize / 4, SampleSize / 4},
	{SampleSize * 3 / 4, SampleSize / 4},
	{SampleSize / 4, SampleSize * 3 / 4},
	{SampleSize * 3 / 4, SampleSize * 3 / 4},
	{SampleSize / 2, SampleSize / 2},
}

// Extract returns the theme for img. A nil or empty image yields the
// default theme.
func Extract(img image.Image) scene.Theme {
	if img == nil || img.Bounds().Empty() {
		return FromPrimary(Fallback)
	}
	sample := image.NewNRGBA(image.Rect(0, 0, SampleSize, SampleSize))
	draw.ApproxBiLinear.Scale(sample, sample.Bounds(), img, img.Bounds(), draw.Src, nil)

	for _, p := range samplePoints {
		c := sample.NRGBAAt(p.X, p.Y)
		if l := Luminance(c); l >= MinLuminance && l <= MaxLuminance {
			c.A = 0xFF
			return FromPrimary(c)
		}
	}
	return FromPrimary(Fallback)
}

// FromPrimary builds a theme whose shadow is the flat darkening of primary.
func FromPrimary(primary color.NRGBA) scene.Theme {
	return scene.Theme{Primary: primary, Shadow: Darken(primary, ShadowFactor)}
}

// Luminance returns 0.299R + 0.587G + 0.114B on the 0..255 scale.
func Luminance(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// Darken multiplies every channel by f. Alpha is kept.
func Darken(c color.NRGBA, f float64) color.NRGBA {
	scale := func(v uint8) uint8 {
		return uint8(math.Floor(math.Min(float64(v)*f, 255)))
	}
	return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}

// Hex formats c as #RRGGBB.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses #RGB or #RRGGBB (the leading # is optional).
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 3 && len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("theme: invalid hex color %q", s)
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return color.NRGBA{}, fmt.Errorf("theme: invalid hex color %q", s)
		}
	}
	c := gg.Hex(s)
	return ToNRGBA(c), nil
}

// ToRGBA converts c to the renderer's color type.
func ToRGBA(c color.NRGBA) gg.RGBA {
	return gg.RGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// ToNRGBA converts a renderer color back to 8-bit channels.
func ToNRGBA(c gg.RGBA) color.NRGBA {
	ch := func(v float64) uint8 { return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255)) }
	return color.NRGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: ch(c.A)}
}

// Default returns the theme used before any image has been analysed.
func Default() scene.Theme { return FromPrimary(Fallback) }
