package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/metrics"
	"github.com/tair/stock-scanner/pkg/logger"
)

// State of the scan loop
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultCooldown = 3000 * time.Millisecond
)

// CodeHandler receives every validated, debounced code. It runs on the loop
// goroutine and must not call Stop.
type CodeHandler func(code string)

// FrameScanner owns a capture stream and the polling loop that decodes it
type FrameScanner struct {
	camera      Camera
	decoder     Decoder
	interval    time.Duration
	constraints Constraints
	debounce    *Debouncer
	onError     func(error)
	log         zerolog.Logger

	// startMu serializes Start and Stop; mu guards state and run
	startMu sync.Mutex
	mu      sync.Mutex
	state   State
	run     *scanRun
}

type scanRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a FrameScanner
type Option func(*FrameScanner)

// WithInterval sets the sampling interval
func WithInterval(d time.Duration) Option {
	return func(s *FrameScanner) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithCooldown sets the debounce window
func WithCooldown(d time.Duration) Option {
	return func(s *FrameScanner) { s.debounce.cooldown = d }
}

// WithClock replaces the debounce clock
func WithClock(now func() time.Time) Option {
	return func(s *FrameScanner) { s.debounce.now = now }
}

// WithConstraints overrides the requested capture handle
func WithConstraints(c Constraints) Option {
	return func(s *FrameScanner) { s.constraints = c }
}

// WithErrorHandler registers a callback for errors that end a session
func WithErrorHandler(fn func(error)) Option {
	return func(s *FrameScanner) { s.onError = fn }
}

func NewFrameScanner(camera Camera, decoder Decoder, opts ...Option) *FrameScanner {
	s := &FrameScanner{
		camera:      camera,
		decoder:     decoder,
		interval:    DefaultInterval,
		constraints: DefaultConstraints,
		debounce:    NewDebouncer(DefaultCooldown, nil),
		state:       StateIdle,
		log:         logger.Component("frame_scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetErrorHandler replaces the callback for errors that end a session
func (s *FrameScanner) SetErrorHandler(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// State returns the current loop state
func (s *FrameScanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires the camera and begins sampling. Failures are *CameraError.
// The camera is opened without holding s.mu so State stays responsive during
// a slow acquisition.
func (s *FrameScanner) Start(ctx context.Context, onCode CodeHandler) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	scanning := s.state == StateScanning
	s.mu.Unlock()
	if scanning {
		return ErrAlreadyScanning
	}
	if s.camera == nil || s.decoder == nil {
		s.log.Warn().Msg("No capture or decode capability available")
		return &CameraError{Kind: CameraUnavailable}
	}

	stream, err := s.camera.Open(ctx, s.constraints)
	if err != nil {
		ce := asCameraError(err)
		s.log.Warn().Err(err).Str("kind", string(ce.Kind)).Msg("Camera acquisition failed")
		return ce
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &scanRun{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.run = r
	s.state = StateScanning
	s.mu.Unlock()
	s.debounce.Reset()
	metrics.ScannerActive.Set(1)

	go s.loop(loopCtx, r, stream, onCode)

	s.log.Info().Dur("interval", s.interval).Msg("Scanner started")
	return nil
}

// Stop halts the loop and releases the camera. It returns once the capture
// handle is closed and is safe to call when idle.
func (s *FrameScanner) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	r := s.run
	if r == nil {
		s.mu.Unlock()
		return
	}
	s.run = nil
	s.state = StateIdle
	s.mu.Unlock()

	r.cancel()
	<-r.done

	s.debounce.Reset()
	metrics.ScannerActive.Set(0)
	s.log.Info().Msg("Scanner stopped")
}

func (s *FrameScanner) loop(ctx context.Context, r *scanRun, stream Stream, onCode CodeHandler) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var fatal error
	for fatal == nil {
		select {
		case <-ctx.Done():
			s.finish(r, stream, nil)
			return
		case <-ticker.C:
		}
		fatal = s.sample(ctx, stream, onCode)
	}
	s.finish(r, stream, fatal)
}

// finish closes the stream before the run is marked done
func (s *FrameScanner) finish(r *scanRun, stream Stream, fatal error) {
	if err := stream.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to close camera stream")
	}

	s.mu.Lock()
	current := s.run == r
	onError := s.onError
	if current {
		s.run = nil
		s.state = StateIdle
	}
	s.mu.Unlock()

	if current {
		s.debounce.Reset()
		metrics.ScannerActive.Set(0)
	}
	close(r.done)

	if fatal != nil && current {
		s.log.Error().Err(fatal).Msg("Scan session ended by capture failure")
		if onError != nil {
			onError(fatal)
		}
	}
}

// sample runs one loop iteration. Only capture failures are returned.
func (s *FrameScanner) sample(ctx context.Context, stream Stream, onCode CodeHandler) error {
	img, err := stream.Frame(ctx)
	if err != nil {
		if errors.Is(err, ErrNoFrame) || ctx.Err() != nil {
			return nil
		}
		return err
	}
	metrics.FramesSampled.Inc()

	sym, err := s.decoder.Decode(img)
	if err != nil || sym.Text == "" {
		metrics.DecodeFailures.Inc()
		return nil
	}

	if !domain.IsValidBarcode(sym.Text) {
		metrics.CodesEmitted.WithLabelValues("rejected").Inc()
		s.log.Debug().Str("barcode", sym.Text).Str("format", sym.Format).Msg("Decoded value rejected")
		return nil
	}
	if !s.debounce.Allow(sym.Text) {
		metrics.CodesEmitted.WithLabelValues("debounced").Inc()
		return nil
	}

	metrics.CodesEmitted.WithLabelValues("emitted").Inc()
	s.log.Info().Str("barcode", sym.Text).Str("format", sym.Format).Msg("Barcode detected")
	if onCode != nil {
		onCode(sym.Text)
	}
	return nil
}
