package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Facing selects which physical camera to capture from
type Facing string

const (
	FacingRear  Facing = "environment"
	FacingFront Facing = "user"
)

// Constraints describe the capture handle requested at start
type Constraints struct {
	Facing Facing
	Width  int
	Height int
}

// DefaultConstraints prefers the rear camera at 1280x720
var DefaultConstraints = Constraints{Facing: FacingRear, Width: 1280, Height: 720}

// Camera hands out exclusive capture streams
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an open capture handle. Frame returns ErrNoFrame when nothing new
// is available yet; any other error ends the session.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrPermissionDenied  = errors.New("camera permission denied")

	// ErrStreamClosed means the capture handle went away underneath the loop
	ErrStreamClosed = errors.New("camera stream closed")
	// ErrNoFrame is transient; the loop retries on the next tick
	ErrNoFrame = errors.New("no frame available")

	ErrAlreadyScanning = errors.New("scanner already running")
)

// CameraErrorKind classifies acquisition failures
type CameraErrorKind string

const (
	CameraUnavailable CameraErrorKind = "camera_unavailable"
	PermissionDenied  CameraErrorKind = "permission_denied"
)

// CameraError is returned by Start when a capture handle cannot be acquired
type CameraError struct {
	Kind  CameraErrorKind
	Cause error
}

func (e *CameraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *CameraError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error kind
func (e *CameraError) Is(target error) bool {
	switch target {
	case ErrCameraUnavailable:
		return e.Kind == CameraUnavailable
	case ErrPermissionDenied:
		return e.Kind == PermissionDenied
	}
	return false
}

// asCameraError normalizes an Open failure into a CameraError
func asCameraError(err error) *CameraError {
	var ce *CameraError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, ErrPermissionDenied) {
		return &CameraError{Kind: PermissionDenied, Cause: err}
	}
	return &CameraError{Kind: CameraUnavailable, Cause: err}
}
