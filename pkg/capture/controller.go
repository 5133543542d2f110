package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/scan"
)

// State is the view mode of the entry screen.
type State int

const (
	StateAwaitingPermission State = iota
	StateEntry
	StateScanning
)

func (s State) String() string {
	switch s {
	case StateAwaitingPermission:
		return "awaiting_permission"
	case StateEntry:
		return "entry"
	case StateScanning:
		return "scanning"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ScanListener is notified after an accepted scan has been written to the form
// and the controller is back in entry mode.
type ScanListener func(event scan.Event)

// TransitionListener observes state changes.
type TransitionListener func(from, to State)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebouncerOptions forwards options to the debouncer built for every
// scanning session.
func WithDebouncerOptions(options ...scan.Option) Option {
	return func(c *Controller) {
		c.debounceOpts = append(c.debounceOpts, options...)
	}
}

// WithScanListener registers a listener for accepted scans.
func WithScanListener(fn ScanListener) Option {
	return func(c *Controller) {
		if fn != nil {
			c.scanListeners = append(c.scanListeners, fn)
		}
	}
}

// WithTransitionListener registers a listener for state changes.
func WithTransitionListener(fn TransitionListener) Option {
	return func(c *Controller) {
		if fn != nil {
			c.transitionListeners = append(c.transitionListeners, fn)
		}
	}
}

// WithClock overrides the clock used to stamp sessions.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Session describes the active scanning session.
type Session struct {
	ID            string
	Active        bool
	DebounceState scan.State
	StartedAt     time.Time
}

type session struct {
	id        string
	startedAt time.Time
	debouncer *scan.Debouncer
}

type transition struct {
	from, to State
}

// Controller gates the camera behind the permission capability and routes
// accepted scans into the form. All transitions and form writes happen under
// one lock; camera calls and listeners run outside it.
type Controller struct {
	mu         sync.Mutex
	state      State
	session    *session
	model      *form.Model
	camera     Camera
	permission Permission

	debounceOpts        []scan.Option
	scanListeners       []ScanListener
	transitionListeners []TransitionListener
	logger              *slog.Logger
	now                 func() time.Time
}

// New builds a controller. It starts in StateAwaitingPermission and moves to
// StateEntry right away when the permission is already granted.
func New(model *form.Model, camera Camera, permission Permission, options ...Option) (*Controller, error) {
	if model == nil {
		return nil, errors.New("capture: form model is required")
	}
	if camera == nil {
		return nil, errors.New("capture: camera is required")
	}
	if permission == nil {
		return nil, errors.New("capture: permission is required")
	}

	c := &Controller{
		state:      StateAwaitingPermission,
		model:      model,
		camera:     camera,
		permission: permission,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	c.Refresh()
	return c, nil
}

// Form returns the model the controller writes scans into.
func (c *Controller) Form() *form.Model {
	return c.model
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the active scanning session, if any.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return Session{
		ID:            c.session.id,
		Active:        c.state == StateScanning,
		DebounceState: c.session.debouncer.State(),
		StartedAt:     c.session.startedAt,
	}, true
}

// Refresh re-reads the permission grant and leaves StateAwaitingPermission
// once it is granted. Presentations call it on every render.
func (c *Controller) Refresh() State {
	c.mu.Lock()
	var changes []transition
	if c.state == StateAwaitingPermission && c.permission.Granted() {
		changes = append(changes, c.setStateLocked(StateEntry))
	}
	state := c.state
	c.mu.Unlock()

	c.emitTransitions(changes)
	return state
}

// RequestPermission asks the permission subsystem for the camera grant.
func (c *Controller) RequestPermission(ctx context.Context) error {
	if _, err := c.permission.Request(ctx); err != nil {
		return fmt.Errorf("capture: request permission: %w", err)
	}
	if c.Refresh() == StateAwaitingPermission {
		c.logger.Info("camera permission still missing")
		return ErrPermissionDenied
	}
	return nil
}

// OpenScanner switches from entry to scanning mode and activates the camera.
func (c *Controller) OpenScanner(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	var changes []transition
	if c.state == StateAwaitingPermission && c.permission.Granted() {
		changes = append(changes, c.setStateLocked(StateEntry))
	}
	switch c.state {
	case StateAwaitingPermission:
		c.mu.Unlock()
		c.emitTransitions(changes)
		return ErrPermissionDenied
	case StateScanning:
		c.mu.Unlock()
		return fmt.Errorf("%w: scanner already open", ErrInvalidTransition)
	}
	if !c.permission.Granted() {
		changes = append(changes, c.setStateLocked(StateAwaitingPermission))
		c.mu.Unlock()
		c.emitTransitions(changes)
		c.logger.Info("camera permission revoked")
		return ErrPermissionDenied
	}

	s := &session{
		id:        uuid.NewString(),
		startedAt: c.now(),
		debouncer: scan.NewDebouncer(append([]scan.Option{scan.WithLogger(c.logger)}, c.debounceOpts...)...),
	}
	c.session = s
	changes = append(changes, c.setStateLocked(StateScanning))
	c.mu.Unlock()
	c.emitTransitions(changes)

	c.logger.Debug("scanner opened", "session", s.id)

	if err := c.camera.Activate(ctx, func(batch []scan.Event) { c.handle(s, batch) }); err != nil {
		c.mu.Lock()
		var rollback []transition
		if c.session == s {
			c.endSessionLocked()
			rollback = append(rollback, c.setStateLocked(StateEntry))
		}
		c.mu.Unlock()
		c.emitTransitions(rollback)
		c.logger.Warn("camera activation failed", "session", s.id, "error", err)
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}

	c.mu.Lock()
	stale := c.session != s
	c.mu.Unlock()
	if stale {
		// the session ended while the camera was starting
		c.deactivate()
	}
	return nil
}

// CloseScanner leaves scanning mode without writing to the form. It is a
// no-op outside StateScanning.
func (c *Controller) CloseScanner() error {
	c.mu.Lock()
	if c.state != StateScanning {
		c.mu.Unlock()
		return nil
	}
	id := c.session.id
	c.endSessionLocked()
	change := c.setStateLocked(StateEntry)
	c.mu.Unlock()

	err := c.deactivate()
	c.emitTransitions([]transition{change})
	c.logger.Debug("scanner closed", "session", id)
	return err
}

func (c *Controller) handle(s *session, batch []scan.Event) {
	c.mu.Lock()
	if c.session != s || c.state != StateScanning {
		c.mu.Unlock()
		return
	}
	event, ok := s.debouncer.Offer(batch)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.model.Set(form.BarCode, event.Payload)
	c.endSessionLocked()
	change := c.setStateLocked(StateEntry)
	listeners := append([]ScanListener(nil), c.scanListeners...)
	c.mu.Unlock()

	c.deactivate()
	c.emitTransitions([]transition{change})
	c.logger.Info("barcode scanned", "session", s.id, "payload", event.Payload, "symbology", event.Symbology)
	for _, fn := range listeners {
		fn(event)
	}
}

func (c *Controller) endSessionLocked() {
	if c.session == nil {
		return
	}
	c.session.debouncer.Cancel()
	c.session = nil
}

func (c *Controller) setStateLocked(next State) transition {
	t := transition{from: c.state, to: next}
	c.state = next
	return t
}

func (c *Controller) deactivate() error {
	if err := c.camera.Deactivate(); err != nil {
		c.logger.Warn("camera deactivation failed", "error", err)
		return fmt.Errorf("capture: deactivate camera: %w", err)
	}
	return nil
}

func (c *Controller) emitTransitions(changes []transition) {
	if len(changes) == 0 || len(c.transitionListeners) == 0 {
		return
	}
	for _, t := range changes {
		if t.from == t.to {
			continue
		}
		for _, fn := range c.transitionListeners {
			fn(t.from, t.to)
		}
	}
}
