package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/notification"
	"github.com/tair/stock-scanner/internal/scanner"
)

type fakeScanner struct {
	mu       sync.Mutex
	startErr error
	onCode   scanner.CodeHandler
	starts   int
	stops    int
	state    scanner.State
}

func (s *fakeScanner) Start(_ context.Context, onCode scanner.CodeHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.startErr != nil {
		return s.startErr
	}
	s.onCode = onCode
	s.state = scanner.StateScanning
	return nil
}

func (s *fakeScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.state = scanner.StateIdle
}

func (s *fakeScanner) State() scanner.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *fakeScanner) emit(code string) {
	s.mu.Lock()
	fn := s.onCode
	s.mu.Unlock()
	fn(code)
}

type fakeWorkflow struct {
	mu      sync.Mutex
	codes   []string
	cancels int
	events  []string
	err     error

	// when set, OnCodeDetected signals entered and waits for gate
	entered chan struct{}
	gate    chan struct{}
}

func (w *fakeWorkflow) OnCodeDetected(_ context.Context, code string) error {
	if w.gate != nil {
		close(w.entered)
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.codes = append(w.codes, code)
	w.events = append(w.events, "code")
	return w.err
}

func (w *fakeWorkflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancels++
	w.events = append(w.events, "cancel")
}

func neverExpire(time.Duration, func()) func() { return func() {} }

func newManager() (*Manager, *fakeScanner, *fakeWorkflow, *notification.Queue) {
	sc := &fakeScanner{state: scanner.StateIdle}
	wf := &fakeWorkflow{}
	q := notification.NewQueue(notification.WithScheduler(neverExpire))
	return NewManager(sc, wf, q), sc, wf, q
}

func TestManager_Open(t *testing.T) {
	t.Run("FeedsDetectedCodes", func(t *testing.T) {
		m, sc, wf, _ := newManager()
		require.NoError(t, m.Open(context.Background()))
		require.True(t, m.IsOpen())

		sc.emit("012345678905")
		require.Equal(t, []string{"012345678905"}, wf.codes)
	})

	t.Run("TearsDownPreviousSession", func(t *testing.T) {
		m, sc, wf, _ := newManager()
		require.NoError(t, m.Open(context.Background()))
		require.NoError(t, m.Open(context.Background()))

		require.Equal(t, 2, sc.starts)
		require.Equal(t, 2, sc.stops)
		require.Equal(t, 2, wf.cancels)
		require.True(t, m.IsOpen())
	})

	t.Run("CameraErrorLeavesSessionClosed", func(t *testing.T) {
		m, sc, _, _ := newManager()
		sc.startErr = &scanner.CameraError{Kind: scanner.PermissionDenied}

		err := m.Open(context.Background())
		require.ErrorIs(t, err, scanner.ErrPermissionDenied)
		require.False(t, m.IsOpen())
	})
}

func TestManager_Close(t *testing.T) {
	m, sc, wf, _ := newManager()
	require.NoError(t, m.Open(context.Background()))

	m.Close()
	require.False(t, m.IsOpen())
	require.Equal(t, scanner.StateIdle, sc.State())
	require.Equal(t, 2, wf.cancels)

	m.Close()
	require.Equal(t, 2, wf.cancels)
}

func TestManager_SubmitCode(t *testing.T) {
	t.Run("RequiresOpenSession", func(t *testing.T) {
		m, _, _, _ := newManager()
		require.ErrorIs(t, m.SubmitCode(context.Background(), "12345678"), ErrNotOpen)
	})

	t.Run("ValidatesBeforeWorkflow", func(t *testing.T) {
		m, _, wf, _ := newManager()
		m.OpenManual()

		err := m.SubmitCode(context.Background(), "123")
		require.ErrorIs(t, err, domain.ErrValidation)
		require.Empty(t, wf.codes)
	})

	t.Run("ManualSession", func(t *testing.T) {
		m, sc, wf, _ := newManager()
		m.OpenManual()

		require.NoError(t, m.SubmitCode(context.Background(), "1234567890123"))
		require.Equal(t, []string{"1234567890123"}, wf.codes)
		require.Equal(t, 0, sc.starts)
	})

	t.Run("CloseWaitsForHandOff", func(t *testing.T) {
		m, _, wf, _ := newManager()
		m.OpenManual()
		wf.events = nil
		wf.entered = make(chan struct{})
		wf.gate = make(chan struct{})

		submitted := make(chan error, 1)
		go func() { submitted <- m.SubmitCode(context.Background(), "12345678") }()
		<-wf.entered

		closed := make(chan struct{})
		go func() {
			m.Close()
			close(closed)
		}()

		select {
		case <-closed:
			t.Fatal("Close returned while a code was being handed off")
		case <-time.After(50 * time.Millisecond):
		}

		close(wf.gate)
		require.NoError(t, <-submitted)
		<-closed

		require.False(t, m.IsOpen())
		require.Equal(t, []string{"code", "cancel"}, wf.events)
	})

	t.Run("PropagatesBusy", func(t *testing.T) {
		m, _, wf, _ := newManager()
		wf.err = errors.New("busy")
		m.OpenManual()
		require.Error(t, m.SubmitCode(context.Background(), "12345678"))
	})
}

func TestManager_HandleScannerError(t *testing.T) {
	m, _, wf, q := newManager()
	require.NoError(t, m.Open(context.Background()))

	m.HandleScannerError(scanner.ErrStreamClosed)
	require.False(t, m.IsOpen())
	require.Equal(t, 2, wf.cancels)

	active := q.Active()
	require.Len(t, active, 1)
	require.Equal(t, notification.KindError, active[0].Kind)
	require.True(t, active[0].Sticky())
}
