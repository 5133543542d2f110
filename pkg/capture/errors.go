package capture

import "errors"

var (
	// ErrPermissionDenied signals the camera grant is missing. It is not
	// fatal; the grant is checked again on the next attempt to scan.
	ErrPermissionDenied = errors.New("capture: camera permission denied")
	// ErrInvalidTransition is returned when an action does not apply to the
	// current state, e.g. opening the scanner while already scanning.
	ErrInvalidTransition = errors.New("capture: invalid state transition")
	// ErrCameraUnavailable wraps activation failures of the capture surface.
	ErrCameraUnavailable = errors.New("capture: camera unavailable")
)
