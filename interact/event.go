package interact

// Event is an input event delivered to a Controller.
type Event interface{ isEvent() }

// PointerDown is a press of the primary button or a touch start.
// Touch inflates hit targets; Snap requests right-angle rotation snapping
// (a held modifier on desktop hosts).
type PointerDown struct {
	X, Y  float64
	Touch bool
	Snap  bool
}

func (PointerDown) isEvent() {}

// PointerMove is pointer motion in canvas units.
type PointerMove struct {
	X, Y  float64
	Touch bool
	Snap  bool
}

func (PointerMove) isEvent() {}

// PointerUp ends the active gesture.
type PointerUp struct {
	X, Y  float64
	Touch bool
	Snap  bool
}

func (PointerUp) isEvent() {}

// Key identifies the keys the controller reacts to.
type Key uint8

const (
	KeyDelete Key = iota + 1
	KeyEscape
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyDelete:
		return "Delete"
	case KeyEscape:
		return "Escape"
	default:
		return "Unknown"
	}
}

// KeyDown is a key press.
type KeyDown struct {
	Key Key
}

func (KeyDown) isEvent() {}
