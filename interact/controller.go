// Package interact turns pointer and key events into scene edits.
//
// A Controller is a small state machine over one scene:
//
//	Idle ──press on element──▶ Dragging ──release──▶ Selected
//	Selected ──press on corner──▶ Resizing ──release──▶ Selected
//	Selected ──press on rotate handle──▶ Rotating ──release──▶ Selected
//	Selected ──Delete──▶ Idle
//	Idle/Selected ──BeginEyedropper──▶ Eyedropper ──click/Escape──▶ previous
//
// Gestures only update a pending transform. The scene is written once, when
// the pointer is released, so an abandoned gesture leaves it untouched.
package interact

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/scene"
)

// Hit-test tolerances in canvas units.
const (
	TouchMargin = 24
	MouseMargin = 0
)

// State is the controller state.
type State uint8

const (
	Idle State = iota
	Selected
	Dragging
	Resizing
	Rotating
	Eyedropper
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Selected:
		return "Selected"
	case Dragging:
		return "Dragging"
	case Resizing:
		return "Resizing"
	case Rotating:
		return "Rotating"
	case Eyedropper:
		return "Eyedropper"
	default:
		return "Unknown"
	}
}

// Gesturing reports whether s is one of the pointer-drag states.
func (s State) Gesturing() bool {
	return s == Dragging || s == Resizing || s == Rotating
}

// Controller interprets events against a scene. It is not safe for
// concurrent use; the owner of the scene drives it.
type Controller struct {
	scene    *scene.Scene
	state    State
	selected scene.ID

	// gesture
	start      scene.Transform
	pending    scene.Transform
	startX     float64
	startY     float64
	startAngle float64
	corner     scene.Corner
	moved      bool

	// eyedropper
	prev    State
	sampler image.Image
	scale   float64
	onPick  func(color.NRGBA)
	loupe   *Loupe
}

// New returns an idle controller for s.
func New(s *scene.Scene) *Controller {
	return &Controller{scene: s}
}

// Reset binds the controller to s and returns to Idle.
func (c *Controller) Reset(s *scene.Scene) {
	*c = Controller{scene: s}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Selected returns the selected element id, if any.
func (c *Controller) Selected() (scene.ID, bool) {
	if c.selected == "" {
		return "", false
	}
	return c.selected, true
}

// Pending returns the uncommitted transform of the active gesture.
func (c *Controller) Pending() (scene.ID, scene.Transform, bool) {
	if !c.state.Gesturing() {
		return "", scene.Transform{}, false
	}
	return c.selected, c.pending, true
}

// Loupe returns the current eyedropper magnifier.
func (c *Controller) Loupe() (*Loupe, bool) {
	if c.state != Eyedropper || c.loupe == nil {
		return nil, false
	}
	return c.loupe, true
}

// TextAt maps a canvas point to the section index of the paragraph under it.
func (c *Controller) TextAt(x, y float64) (int, bool) {
	return c.scene.TextAt(x, y)
}

// Handle processes one event and reports whether anything visible changed
// (state, selection, pending transform or scene).
func (c *Controller) Handle(ev Event) bool {
	c.dropStaleSelection()
	before := c.state
	changed := false
	switch c.state {
	case Idle, Selected:
		changed = c.handleResting(ev)
	case Dragging, Resizing, Rotating:
		changed = c.handleGesture(ev)
	case Eyedropper:
		changed = c.handleEyedropper(ev)
	}
	if c.state != before {
		journal.Logger().Debug("interact: state", "from", before, "to", c.state, "selected", c.selected)
	}
	return changed
}

func (c *Controller) handleResting(ev Event) bool {
	switch ev := ev.(type) {
	case PointerDown:
		return c.press(ev)
	case KeyDown:
		switch ev.Key {
		case KeyDelete:
			return c.Delete() == nil
		case KeyEscape:
			if c.state == Selected {
				c.deselect()
				return true
			}
		}
	}
	return false
}

func (c *Controller) press(ev PointerDown) bool {
	margin := hitMargin(ev.Touch)
	if c.state == Selected {
		if n, ok := c.scene.Lookup(c.selected); ok {
			if n.Kind != scene.KindText && c.onRotateHandle(n.Transform, ev.X, ev.Y, margin) {
				c.begin(Rotating, n.Transform, ev.X, ev.Y)
				cx, cy := n.Transform.Center()
				c.startAngle = math.Atan2(ev.Y-cy, ev.X-cx)
				return true
			}
			if corner, ok := cornerAt(n.Transform, ev.X, ev.Y, margin); ok {
				c.begin(Resizing, n.Transform, ev.X, ev.Y)
				c.corner = corner
				return true
			}
		}
	}
	if n, ok := c.hit(ev.X, ev.Y, margin); ok {
		c.selected = n.ID
		c.begin(Dragging, n.Transform, ev.X, ev.Y)
		return true
	}
	if c.state == Selected {
		c.deselect()
		return true
	}
	return false
}

func (c *Controller) begin(s State, t scene.Transform, x, y float64) {
	c.state = s
	c.start, c.pending = t, t
	c.startX, c.startY = x, y
	c.moved = false
}

func (c *Controller) handleGesture(ev Event) bool {
	switch ev := ev.(type) {
	case PointerMove:
		c.update(ev.X, ev.Y, ev.Snap)
		return true
	case PointerUp:
		c.update(ev.X, ev.Y, ev.Snap)
		c.commit()
		return true
	case KeyDown:
		if ev.Key == KeyEscape {
			c.pending = c.start
			c.state = Selected
			return true
		}
	}
	return false
}

func (c *Controller) update(x, y float64, snap bool) {
	if x != c.startX || y != c.startY {
		c.moved = true
	}
	switch c.state {
	case Dragging:
		c.pending = Drag(c.start, x-c.startX, y-c.startY)
	case Resizing:
		c.pending = Resize(c.start, c.corner, x, y)
	case Rotating:
		c.pending = Rotate(c.start, c.startAngle, x, y, snap)
	}
}

func (c *Controller) commit() {
	c.state = Selected
	if !c.moved || c.pending == c.start {
		return
	}
	if err := c.scene.UpdateTransform(c.selected, c.pending); err != nil {
		journal.Logger().Warn("interact: transform rejected", "id", c.selected, "err", err)
		c.pending = c.start
	}
}

// Delete removes the selected element. It fails with ErrNothingSelected
// outside the Selected state.
func (c *Controller) Delete() error {
	if c.state != Selected {
		return ErrNothingSelected
	}
	id := c.selected
	c.deselect()
	if !c.scene.Remove(id) {
		return ErrNothingSelected
	}
	journal.Logger().Debug("interact: deleted", "id", id)
	return nil
}

// Select selects id programmatically, as when a host list is clicked.
func (c *Controller) Select(id scene.ID) bool {
	if c.state.Gesturing() || c.state == Eyedropper {
		return false
	}
	if _, ok := c.scene.Lookup(id); !ok {
		return false
	}
	c.selected = id
	c.state = Selected
	return true
}

func (c *Controller) deselect() {
	c.selected = ""
	c.state = Idle
}

// dropStaleSelection returns to Idle when the selected element has been
// removed behind the controller's back.
func (c *Controller) dropStaleSelection() {
	if c.selected == "" || c.state == Eyedropper {
		return
	}
	if _, ok := c.scene.Lookup(c.selected); !ok {
		c.deselect()
	}
}

// hit returns the topmost element under the point.
func (c *Controller) hit(x, y, margin float64) (scene.Node, bool) {
	for _, n := range c.scene.HitOrder() {
		if n.Transform.Contains(x, y, margin) {
			return n, true
		}
	}
	return scene.Node{}, false
}

func hitMargin(touch bool) float64 {
	if touch {
		return TouchMargin
	}
	return MouseMargin
}

func (c *Controller) onRotateHandle(t scene.Transform, x, y, margin float64) bool {
	hx, hy := t.RotateHandle()
	return math.Hypot(x-hx, y-hy) <= scene.HandleRadius+margin
}

func cornerAt(t scene.Transform, x, y, margin float64) (scene.Corner, bool) {
	for _, corner := range scene.Corners {
		cx, cy := t.Corner(corner)
		if math.Hypot(x-cx, y-cy) <= scene.HandleRadius+margin {
			return corner, true
		}
	}
	return 0, false
}
