package scene

import (
	"errors"
	"fmt"
)

// Sentinel errors for scene package.
var (
	// ErrBelowMinSize is returned when a transform is smaller than MinSize
	// in either dimension.
	ErrBelowMinSize = errors.New("scene: transform below minimum size")

	// ErrNotFound is returned when an element id does not exist in the scene.
	ErrNotFound = errors.New("scene: element not found")

	// ErrNoAsset is returned when an image or sticker is added without raster data.
	ErrNoAsset = errors.New("scene: element has no asset")
)

// SizeError reports the rejected dimensions of a transform.
type SizeError struct {
	Width, Height float64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("scene: size %.1fx%.1f below minimum %d", e.Width, e.Height, MinSize)
}

// Unwrap lets errors.Is match ErrBelowMinSize.
func (e *SizeError) Unwrap() error { return ErrBelowMinSize }
