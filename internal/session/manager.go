package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/notification"
	"github.com/tair/stock-scanner/internal/scanner"
	"github.com/tair/stock-scanner/pkg/logger"
)

// ErrNotOpen is returned when a code is submitted with no session open
var ErrNotOpen = errors.New("scan session not open")

// Scanner is the camera loop driven by a session
type Scanner interface {
	Start(ctx context.Context, onCode scanner.CodeHandler) error
	Stop()
	State() scanner.State
}

// Workflow is the edit state machine fed by a session
type Workflow interface {
	OnCodeDetected(ctx context.Context, code string) error
	Cancel()
}

// Notifier surfaces fatal scanner errors to the user
type Notifier interface {
	Push(kind notification.Kind, message string, ttl time.Duration) notification.Notification
}

// Manager keeps at most one scan session alive. Opening a session tears the
// previous one down first so there is never more than one camera handle or
// staged edit.
type Manager struct {
	scanner  Scanner
	workflow Workflow
	notify   Notifier
	log      zerolog.Logger

	mu     sync.Mutex
	open   bool
	manual bool
}

func NewManager(s Scanner, wf Workflow, notify Notifier) *Manager {
	return &Manager{
		scanner:  s,
		workflow: wf,
		notify:   notify,
		log:      logger.Component("scan_session"),
	}
}

// Open starts a camera session. A camera failure leaves the session closed and
// is returned as *scanner.CameraError.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardown()

	codeCtx := context.WithoutCancel(ctx)
	err := m.scanner.Start(ctx, func(code string) {
		if err := m.workflow.OnCodeDetected(codeCtx, code); err != nil {
			m.log.Debug().Err(err).Str("barcode", code).Msg("Detected code ignored")
		}
	})
	if err != nil {
		m.log.Warn().Err(err).Msg("Scan session could not start")
		return err
	}

	m.open = true
	m.log.Info().Msg("Scan session opened")
	return nil
}

// OpenManual starts a session without the camera; codes arrive through
// SubmitCode only
func (m *Manager) OpenManual() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardown()
	m.open = true
	m.manual = true
	m.log.Info().Msg("Manual scan session opened")
}

// Close stops the camera synchronously and discards any staged edit
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return
	}
	m.teardown()
	m.log.Info().Msg("Scan session closed")
}

// IsOpen reports whether a session is active
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// SubmitCode feeds a typed code into the open session
func (m *Manager) SubmitCode(ctx context.Context, code string) error {
	if !domain.IsValidBarcode(code) {
		return domain.NewValidationError(map[string]string{"barcode": "must be 8 to 13 digits"})
	}

	// m.mu stays held across the hand-off; Close must not run in between
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return ErrNotOpen
	}
	return m.workflow.OnCodeDetected(ctx, code)
}

// HandleScannerError is registered as the scanner's fatal error callback
func (m *Manager) HandleScannerError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open || m.manual {
		return
	}
	m.log.Error().Err(err).Msg("Scanner failed, closing session")
	m.open = false
	m.workflow.Cancel()
	// sticky: scanning cannot continue until the user reopens the session
	m.notify.Push(notification.KindError, fmt.Sprintf("Camera stopped: %v", err), 0)
}

// teardown requires m.mu
func (m *Manager) teardown() {
	m.scanner.Stop()
	m.workflow.Cancel()
	m.open = false
	m.manual = false
}
