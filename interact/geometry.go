package interact

import (
	"math"

	"github.com/gogpu/journal/scene"
)

// Drag returns t moved by (dx, dy).
func Drag(t scene.Transform, dx, dy float64) scene.Transform {
	t.X += dx
	t.Y += dy
	return t
}

// Resize returns t resized by dragging corner to the canvas point (x, y).
// The opposite corner stays fixed on the canvas and both sides are clamped
// to scene.MinSize.
func Resize(t scene.Transform, corner scene.Corner, x, y float64) scene.Transform {
	ax, ay := t.Corner(corner.Opposite())
	sx, sy := cornerSigns(corner)

	sin, cos := math.Sincos(t.Radians())
	dx, dy := x-ax, y-ay
	lx := dx*cos + dy*sin
	ly := -dx*sin + dy*cos

	w := math.Max(lx*sx, scene.MinSize)
	h := math.Max(ly*sy, scene.MinSize)

	// Center of the new rectangle, measured from the fixed anchor along the
	// element's rotated axes.
	hx, hy := sx*w/2, sy*h/2
	cx := ax + hx*cos - hy*sin
	cy := ay + hx*sin + hy*cos

	t.Width, t.Height = w, h
	t.X, t.Y = cx-w/2, cy-h/2
	return t
}

// cornerSigns returns the direction from the opposite corner to c along
// the element's local axes.
func cornerSigns(c scene.Corner) (sx, sy float64) {
	switch c {
	case scene.TopLeft:
		return -1, -1
	case scene.TopRight:
		return 1, -1
	case scene.BottomLeft:
		return -1, 1
	default:
		return 1, 1
	}
}

// Rotate returns t rotated by the angle the pointer swept around the
// element center since startAngle (radians). With snap the result is the
// nearest multiple of 90 degrees.
func Rotate(t scene.Transform, startAngle, x, y float64, snap bool) scene.Transform {
	cx, cy := t.Center()
	delta := (math.Atan2(y-cy, x-cx) - startAngle) * 180 / math.Pi
	deg := scene.NormalizeRotation(t.Rotation + delta)
	if snap {
		deg = SnapAngle(deg)
	}
	t.Rotation = deg
	return t
}

// SnapAngle rounds deg to the nearest of 0, 90, 180 and 270.
func SnapAngle(deg float64) float64 {
	return scene.NormalizeRotation(math.Round(deg/90) * 90)
}
