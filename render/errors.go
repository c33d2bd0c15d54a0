package render

import "errors"

var (
	// ErrDensity is returned for a density outside (0, MaxDensity].
	ErrDensity = errors.New("render: density out of range")

	// ErrNilScene is returned when Render is called without a scene.
	ErrNilScene = errors.New("render: nil scene")

	// ErrFont is returned when the configured font cannot be parsed.
	ErrFont = errors.New("render: invalid font")
)
