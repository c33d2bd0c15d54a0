package scene

import "math"

// Canvas geometry in canvas units. The canvas is a fixed virtual space,
// independent of the pixels it is eventually rendered to.
const (
	CanvasWidth  = 3100
	CanvasHeight = 4370

	// MinSize is the smallest width or height a placed element may have.
	MinSize = 50

	// Margin is the inset kept free along every canvas edge by the layouts.
	Margin = 50

	// HandleRadius is the grab radius of the corner resize handles.
	HandleRadius = 30

	// RotateHandleOffset is the distance of the rotation handle above the
	// top edge center, measured in the element's frame.
	RotateHandleOffset = 80
)

// Transform is the position, size and rotation of a placeable element.
// X and Y locate the top-left corner of the unrotated rectangle; rotation
// is applied about the rectangle center.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"` // degrees, clockwise, [0, 360)
}

// Validate reports whether t satisfies the size floor.
func (t Transform) Validate() error {
	if t.Width < MinSize || t.Height < MinSize || math.IsNaN(t.Width) || math.IsNaN(t.Height) {
		return &SizeError{Width: t.Width, Height: t.Height}
	}
	return nil
}

// Normalized returns t with its rotation folded into [0, 360).
func (t Transform) Normalized() Transform {
	t.Rotation = NormalizeRotation(t.Rotation)
	return t
}

// Center returns the center of the element in canvas coordinates.
func (t Transform) Center() (x, y float64) {
	return t.X + t.Width/2, t.Y + t.Height/2
}

// Radians returns the rotation in radians.
func (t Transform) Radians() float64 {
	return t.Rotation * math.Pi / 180
}

// ToLocal maps a canvas point into the element's unrotated frame, where the
// element occupies [X, X+Width] x [Y, Y+Height].
func (t Transform) ToLocal(x, y float64) (lx, ly float64) {
	cx, cy := t.Center()
	if t.Rotation == 0 {
		return x, y
	}
	sin, cos := math.Sincos(-t.Radians())
	dx, dy := x-cx, y-cy
	return cx + dx*cos - dy*sin, cy + dx*sin + dy*cos
}

// ToCanvas maps a point of the element's unrotated frame to canvas coordinates.
func (t Transform) ToCanvas(lx, ly float64) (x, y float64) {
	cx, cy := t.Center()
	if t.Rotation == 0 {
		return lx, ly
	}
	sin, cos := math.Sincos(t.Radians())
	dx, dy := lx-cx, ly-cy
	return cx + dx*cos - dy*sin, cy + dx*sin + dy*cos
}

// Contains reports whether the canvas point lies inside the element's
// rectangle inflated by margin on every side.
func (t Transform) Contains(x, y, margin float64) bool {
	lx, ly := t.ToLocal(x, y)
	return lx >= t.X-margin && lx <= t.X+t.Width+margin &&
		ly >= t.Y-margin && ly <= t.Y+t.Height+margin
}

// Corner returns the canvas position of corner c after rotation.
func (t Transform) Corner(c Corner) (x, y float64) {
	lx, ly := c.local(t)
	return t.ToCanvas(lx, ly)
}

// RotateHandle returns the canvas position of the rotation handle.
func (t Transform) RotateHandle() (x, y float64) {
	return t.ToCanvas(t.X+t.Width/2, t.Y-RotateHandleOffset)
}

// Bounds returns the axis-aligned bounding box of the rotated element.
func (t Transform) Bounds() Rect {
	if t.Rotation == 0 {
		return Rect{X: t.X, Y: t.Y, W: t.Width, H: t.Height}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range Corners {
		x, y := t.Corner(c)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// NormalizeRotation folds degrees into [0, 360).
func NormalizeRotation(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}

// Rect is an axis-aligned rectangle in canvas units.
type Rect struct {
	X, Y, W, H float64
}

// Bottom returns the largest Y covered by r.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Right returns the largest X covered by r.
func (r Rect) Right() float64 { return r.X + r.W }

// Corner identifies one of the four resize anchors of an element.
type Corner uint8

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

// Corners lists every corner in clockwise order starting at the top-left.
var Corners = [...]Corner{TopLeft, TopRight, BottomRight, BottomLeft}

// Opposite returns the diagonally opposite corner.
func (c Corner) Opposite() Corner {
	return (c + 2) % 4
}

// String returns the corner name.
func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "TopLeft"
	case TopRight:
		return "TopRight"
	case BottomRight:
		return "BottomRight"
	case BottomLeft:
		return "BottomLeft"
	default:
		return "Unknown"
	}
}

func (c Corner) local(t Transform) (x, y float64) {
	switch c {
	case TopRight:
		return t.X + t.Width, t.Y
	case BottomRight:
		return t.X + t.Width, t.Y + t.Height
	case BottomLeft:
		return t.X, t.Y + t.Height
	default:
		return t.X, t.Y
	}
}
