package interact

import "errors"

var (
	// ErrNothingSelected is returned by Delete outside the Selected state.
	ErrNothingSelected = errors.New("interact: nothing selected")

	// ErrBusy is returned when a modal mode is requested during a gesture.
	ErrBusy = errors.New("interact: gesture in progress")
)
