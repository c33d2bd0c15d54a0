package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/journal/draft"
	"github.com/gogpu/journal/export"
	"github.com/gogpu/journal/interact"
	"github.com/gogpu/journal/media"
	"github.com/gogpu/journal/render"
	"github.com/gogpu/journal/scene"
)

// Level grades a status message.
type Level uint8

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// Status is a short human-readable report for the host UI.
type Status struct {
	Level   Level
	Message string
	Err     error // nil for informational messages
}

func (s Status) String() string { return s.Level.String() + ": " + s.Message }

// Message turns an engine error into a message fit for an end user.
func Message(err error) string {
	var (
		tooLarge *media.TooLargeError
		tooMany  *media.PixelsError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &tooLarge):
		return fmt.Sprintf("That image is too large (limit %d MB).", tooLarge.Limit>>20)
	case errors.As(err, &tooMany):
		return fmt.Sprintf("That image has too many pixels (limit %d megapixels).", tooMany.Limit/1_000_000)
	case errors.Is(err, media.ErrEmpty):
		return "That file is empty."
	case errors.Is(err, media.ErrUnreadable):
		return "That file is not an image we can read."
	case errors.Is(err, media.ErrTimeout):
		return "Processing the image took too long."
	case errors.Is(err, ErrMissingField):
		return "Please fill in the date before exporting."
	case errors.Is(err, export.ErrEmptyRaster), errors.Is(err, export.ErrNoCaptureTarget):
		return "Nothing to export."
	case errors.Is(err, render.ErrDensity):
		return "Unsupported output resolution."
	case errors.Is(err, draft.ErrCorrupt):
		return "The saved draft was damaged and has been discarded."
	case errors.Is(err, scene.ErrBelowMinSize):
		return "That element cannot be made any smaller."
	case errors.Is(err, interact.ErrNothingSelected):
		return "Select an element first."
	case errors.Is(err, interact.ErrBusy):
		return "Finish the current gesture first."
	case errors.Is(err, context.DeadlineExceeded):
		return "The operation timed out."
	default:
		return "Something went wrong."
	}
}
