package export

import "errors"

var (
	// ErrNoCaptureTarget is returned when there is no scene to export.
	ErrNoCaptureTarget = errors.New("export: no capture target")

	// ErrEmptyRaster is returned when the rendered surface has zero area.
	ErrEmptyRaster = errors.New("export: rendered surface is empty")
)
