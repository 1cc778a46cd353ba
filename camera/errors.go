package camera

import "errors"

// ErrBusy is returned when a capture is requested while another capture or
// video stream owns the device.
var ErrBusy = errors.New("camera device busy")

// ErrInvalidSettings is returned when capture settings fail validation,
// before any process is started.
var ErrInvalidSettings = errors.New("invalid camera settings")
