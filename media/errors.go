package media

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned for a zero-length upload.
	ErrEmpty = errors.New("media: empty upload")

	// ErrTooLarge is matched by every TooLargeError.
	ErrTooLarge = errors.New("media: upload too large")

	// ErrUnreadable is returned when no registered decoder accepts the data.
	ErrUnreadable = errors.New("media: unreadable image")

	// ErrTimeout is returned when decoding and compression exceed the
	// configured time budget. The original is never substituted.
	ErrTimeout = errors.New("media: processing timed out")
)

// TooLargeError reports an upload above the byte limit.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("media: upload of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// Unwrap returns ErrTooLarge.
func (e *TooLargeError) Unwrap() error { return ErrTooLarge }

// PixelsError reports an image whose declared dimensions exceed the pixel
// limit. It is returned before any pixel data is decoded.
type PixelsError struct {
	Width, Height int
	Limit         int64
}

func (e *PixelsError) Error() string {
	return fmt.Sprintf("media: image of %dx%d pixels exceeds limit of %d pixels", e.Width, e.Height, e.Limit)
}

// Unwrap returns ErrTooLarge.
func (e *PixelsError) Unwrap() error { return ErrTooLarge }
