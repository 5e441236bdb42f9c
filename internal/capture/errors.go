package capture

import "errors"

var (
	ErrNoFaceDetected    = errors.New("no face detected")
	ErrInvalidFaceRegion = errors.New("invalid face region")
	ErrClassifierFailure = errors.New("emotion classifier failed")
	ErrCaptureFailed     = errors.New("frame capture failed")
	ErrInvalidTransition = errors.New("invalid capture mode transition")
	ErrStaleResult       = errors.New("analysis result is from a previous mode")
)
