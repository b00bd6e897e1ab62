package scanner

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sync"

	"github.com/tair/stock-scanner/pkg/logger"
)

// PushCamera is a Camera fed by frames uploaded from a client device. It holds
// only the latest frame; frames arriving faster than the scan loop samples are
// overwritten.
type PushCamera struct {
	mu      sync.Mutex
	enabled bool
	stream  *pushStream
}

// NewPushCamera creates a camera. A disabled camera refuses every Open with
// PermissionDenied.
func NewPushCamera(enabled bool) *PushCamera {
	return &PushCamera{enabled: enabled}
}

// Open hands out the single capture stream
func (c *PushCamera) Open(_ context.Context, cons Constraints) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return nil, &CameraError{Kind: PermissionDenied}
	}
	if c.stream != nil {
		return nil, &CameraError{Kind: CameraUnavailable, Cause: fmt.Errorf("capture handle already in use")}
	}

	c.stream = &pushStream{owner: c, constraints: cons}
	logger.Logger.Info().
		Str("facing", string(cons.Facing)).
		Int("width", cons.Width).
		Int("height", cons.Height).
		Msg("Camera stream opened")
	return c.stream, nil
}

// Push stores a frame for the open stream
func (c *PushCamera) Push(img image.Image) error {
	c.mu.Lock()
	s := c.stream
	c.mu.Unlock()

	if s == nil {
		return ErrStreamClosed
	}
	return s.put(img)
}

// PushEncoded decodes a JPEG or PNG frame and stores it
func (c *PushCamera) PushEncoded(r io.Reader) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	return c.Push(img)
}

// Active reports whether a stream is open
func (c *PushCamera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

func (c *PushCamera) release(s *pushStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == s {
		c.stream = nil
	}
}

type pushStream struct {
	owner       *PushCamera
	constraints Constraints

	mu     sync.Mutex
	latest image.Image
	closed bool
}

func (s *pushStream) put(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.latest = img
	return nil
}

// Frame takes the latest frame. Each uploaded frame is sampled at most once.
func (s *pushStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.latest == nil {
		return nil, ErrNoFrame
	}
	img := s.latest
	s.latest = nil
	return img, nil
}

func (s *pushStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.latest = nil
	s.mu.Unlock()

	s.owner.release(s)
	logger.Logger.Info().Msg("Camera stream closed")
	return nil
}
