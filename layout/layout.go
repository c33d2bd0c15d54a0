// Package layout computes initial transforms for newly added elements.
//
// Layout is a pure function of its inputs: the same images, mode and
// options always produce bit-identical transforms. The only randomness is
// the Freeflow jitter term, drawn from a PCG generator seeded by [WithSeed].
// Existing elements are never passed in and never moved; callers describe
// how much of the grid is already taken with [WithOccupied].
package layout

import (
	"math"
	"math/rand/v2"

	"github.com/gogpu/journal/scene"
)

const (
	// TargetLongSide is the length of the longer side of every new image.
	TargetLongSide = 300

	// DefaultJitter bounds the Freeflow offset on each axis.
	DefaultJitter = 50

	// CellSize is the pitch of the Freeflow spreading grid.
	CellSize = 350

	// FreeflowColumns is the number of columns of the Freeflow grid.
	FreeflowColumns = 3

	// GridRows and GridColumns describe the Standard/Mirrored grid.
	GridRows    = 4
	GridColumns = 2

	// DefaultSeed seeds the jitter generator when no seed is given.
	DefaultSeed uint64 = 0x6a6f75726e616c
)

// ImageDescriptor is the intrinsic size of an image about to be placed.
type ImageDescriptor struct {
	Width, Height int
}

// Placement is a computed transform together with how it was derived.
type Placement struct {
	Transform scene.Transform

	// Col and Row are the grid cell the element was assigned to:
	// a Freeflow cell, or a Standard/Mirrored grid cell.
	Col, Row int

	// Slot is the Standard/Mirrored grid slot, or -1 for Freeflow placement.
	Slot int

	// Overflow reports a Standard/Mirrored image that did not fit the grid
	// and fell back to Freeflow placement.
	Overflow bool
}

// Option configures a layout call.
type Option func(*options)

type options struct {
	seed     uint64
	jitter   float64
	occupied int
	target   float64
}

func defaultOptions() options {
	return options{
		seed:   DefaultSeed,
		jitter: DefaultJitter,
		target: TargetLongSide,
	}
}

// WithSeed sets the jitter seed.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithJitter sets the Freeflow jitter bound. Zero disables jitter.
func WithJitter(j float64) Option {
	return func(o *options) { o.jitter = math.Abs(j) }
}

// WithOccupied declares how many Standard/Mirrored grid slots are already
// taken by existing images.
func WithOccupied(n int) Option {
	return func(o *options) { o.occupied = max(n, 0) }
}

// WithTargetLongSide overrides the size of the longer image side.
func WithTargetLongSide(v float64) Option {
	return func(o *options) {
		if v >= scene.MinSize {
			o.target = v
		}
	}
}

// Layout returns one transform per image.
func Layout(images []ImageDescriptor, mode scene.LayoutMode, opts ...Option) []scene.Transform {
	plan := Plan(images, mode, opts...)
	out := make([]scene.Transform, len(plan))
	for i, p := range plan {
		out[i] = p.Transform
	}
	return out
}

// Plan is Layout with placement details.
func Plan(images []ImageDescriptor, mode scene.LayoutMode, opts ...Option) []Placement {
	if len(images) == 0 {
		return nil
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if mode == scene.LayoutFreeflow {
		return freeflow(images, o)
	}

	out := make([]Placement, 0, len(images))
	free := max(GridRows-o.occupied, 0)
	n := min(free, len(images))
	for i := range n {
		out = append(out, gridPlacement(images[i], o.occupied+i, mode, o))
	}
	if n < len(images) {
		for _, p := range freeflow(images[n:], o) {
			p.Overflow = true
			out = append(out, p)
		}
	}
	return out
}

// Size scales an intrinsic size so its longer side equals target,
// preserving aspect ratio. Neither side drops below scene.MinSize.
func Size(d ImageDescriptor, target float64) (w, h float64) {
	if d.Width <= 0 || d.Height <= 0 {
		return target, target
	}
	long := float64(max(d.Width, d.Height))
	scale := target / long
	w = math.Max(float64(d.Width)*scale, scene.MinSize)
	h = math.Max(float64(d.Height)*scale, scene.MinSize)
	return w, h
}

func freeflow(images []ImageDescriptor, o options) []Placement {
	n := len(images)
	cols := min(n, FreeflowColumns)
	rows := (n + FreeflowColumns - 1) / FreeflowColumns
	originX := (scene.CanvasWidth - float64(cols)*CellSize) / 2
	originY := (scene.CanvasHeight - float64(rows)*CellSize) / 2

	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	out := make([]Placement, n)
	for i, d := range images {
		w, h := Size(d, o.target)
		col, row := i%FreeflowColumns, i/FreeflowColumns
		jx := (rng.Float64()*2 - 1) * o.jitter
		jy := (rng.Float64()*2 - 1) * o.jitter

		x := originX + float64(col)*CellSize + (CellSize-w)/2 + jx
		y := originY + float64(row)*CellSize + (CellSize-h)/2 + jy
		out[i] = Placement{
			Transform: scene.Transform{
				X:      clamp(x, scene.Margin, scene.CanvasWidth-scene.Margin-w),
				Y:      clamp(y, scene.Margin, scene.CanvasHeight-scene.Margin-h),
				Width:  w,
				Height: h,
			},
			Col:  col,
			Row:  row,
			Slot: -1,
		}
	}
	return out
}

func gridPlacement(d ImageDescriptor, slot int, mode scene.LayoutMode, o options) Placement {
	w, h := Size(d, o.target)
	col := imageColumn(slot, mode)
	cell := Cell(slot, col)
	return Placement{
		Transform: scene.Transform{
			X:      cell.X + (cell.W-w)/2,
			Y:      cell.Y + (cell.H-h)/2,
			Width:  w,
			Height: h,
		},
		Col:  col,
		Row:  slot,
		Slot: slot,
	}
}

// imageColumn returns the image column of grid row r. Standard starts on
// the left and alternates; Mirrored starts on the right.
func imageColumn(row int, mode scene.LayoutMode) int {
	col := row % GridColumns
	if mode == scene.LayoutMirrored {
		col = GridColumns - 1 - col
	}
	return col
}

// Cell returns the Standard/Mirrored grid cell at row, col.
func Cell(row, col int) scene.Rect {
	w := (scene.CanvasWidth - 2*scene.Margin) / float64(GridColumns)
	h := (scene.CanvasHeight - 2*scene.Margin) / float64(GridRows)
	return scene.Rect{
		X: scene.Margin + float64(col)*w,
		Y: scene.Margin + float64(row)*h,
		W: w,
		H: h,
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
