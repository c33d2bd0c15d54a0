package interact

import (
	"image"
	"image/color"
	"math"
)

// Loupe geometry.
const (
	LoupeSamples = 11
	LoupeZoom    = 8
)

// Loupe is the magnified neighbourhood of the eyedropper position.
type Loupe struct {
	// Image is LoupeSamples*LoupeZoom pixels square.
	Image *image.NRGBA
	// Color is the sampled pixel under the pointer.
	Color color.NRGBA
	// X and Y are the canvas position sampled.
	X, Y float64
}

// BeginEyedropper enters the modal color-picking mode. sampler is a
// rendered frame and scale its pixels per canvas unit. onPick is called
// with the color under the pointer when the user clicks; Escape leaves
// without calling it. It fails with ErrBusy during a gesture.
func (c *Controller) BeginEyedropper(sampler image.Image, scale float64, onPick func(color.NRGBA)) error {
	if c.state.Gesturing() || c.state == Eyedropper {
		return ErrBusy
	}
	c.prev = c.state
	c.state = Eyedropper
	c.sampler = sampler
	c.scale = scale
	c.onPick = onPick
	c.loupe = nil
	return nil
}

func (c *Controller) handleEyedropper(ev Event) bool {
	switch ev := ev.(type) {
	case PointerMove:
		l := c.sample(ev.X, ev.Y)
		c.loupe = &l
		return true
	case PointerDown:
		l := c.sample(ev.X, ev.Y)
		pick := c.onPick
		c.endEyedropper()
		if pick != nil {
			pick(l.Color)
		}
		return true
	case KeyDown:
		if ev.Key == KeyEscape {
			c.endEyedropper()
			return true
		}
	}
	return false
}

func (c *Controller) endEyedropper() {
	c.state = c.prev
	c.sampler, c.onPick, c.loupe = nil, nil, nil
	if c.state == Selected {
		if _, ok := c.scene.Lookup(c.selected); !ok {
			c.deselect()
		}
	}
}

func (c *Controller) sample(x, y float64) Loupe {
	px := int(math.Floor(x * c.scale))
	py := int(math.Floor(y * c.scale))
	return NewLoupe(c.sampler, px, py, x, y)
}

// NewLoupe samples src around pixel (px, py). Pixels outside src are
// transparent.
func NewLoupe(src image.Image, px, py int, x, y float64) Loupe {
	size := LoupeSamples * LoupeZoom
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	l := Loupe{Image: img, X: x, Y: y}
	if src == nil {
		return l
	}
	b := src.Bounds()
	at := func(sx, sy int) color.NRGBA {
		p := image.Pt(sx, sy).Add(b.Min)
		if !p.In(b) {
			return color.NRGBA{}
		}
		return color.NRGBAModel.Convert(src.At(p.X, p.Y)).(color.NRGBA)
	}
	half := LoupeSamples / 2
	for j := range LoupeSamples {
		for i := range LoupeSamples {
			col := at(px-half+i, py-half+j)
			for dy := range LoupeZoom {
				for dx := range LoupeZoom {
					img.SetNRGBA(i*LoupeZoom+dx, j*LoupeZoom+dy, col)
				}
			}
		}
	}
	l.Color = at(px, py)
	return l
}
