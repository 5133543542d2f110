package scan

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Window is the fixed suppression interval that follows an accepted scan.
const Window = 500 * time.Millisecond

// State reports whether the debouncer currently lets detections through.
type State string

const (
	StateIdle        State = "idle"
	StateSuppressing State = "suppressing"
)

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithScheduler overrides the scheduler used for the release timer.
func WithScheduler(s Scheduler) Option {
	return func(d *Debouncer) {
		if s != nil {
			d.scheduler = s
		}
	}
}

// WithSymbologies restricts accepted detections to the listed code types.
// Detections without a symbology are always considered.
func WithSymbologies(symbologies ...string) Option {
	return func(d *Debouncer) {
		if len(symbologies) == 0 {
			d.symbologies = nil
			return
		}
		d.symbologies = make(map[string]struct{}, len(symbologies))
		for _, s := range symbologies {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				d.symbologies[s] = struct{}{}
			}
		}
	}
}

// WithLogger sets the logger used for accept/drop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Debouncer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Debouncer accepts at most one detection per Window. It is safe for
// concurrent use; the release timer fires on its own goroutine.
type Debouncer struct {
	mu          sync.Mutex
	scheduler   Scheduler
	symbologies map[string]struct{}
	logger      *slog.Logger

	suppressing bool
	release     Timer
	generation  uint64
}

// NewDebouncer builds an idle debouncer backed by RealScheduler unless
// overridden.
func NewDebouncer(options ...Option) *Debouncer {
	d := &Debouncer{
		scheduler: RealScheduler{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Offer feeds one detection batch. It returns the accepted event and true when
// the batch opens a new window, or false when the batch is empty or arrives
// while suppressing. Dropped batches are not queued and do not extend the
// window.
func (d *Debouncer) Offer(batch []Event) (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.suppressing {
		return Event{}, false
	}

	event, ok := d.first(batch)
	if !ok {
		return Event{}, false
	}

	d.suppressing = true
	d.generation++
	gen := d.generation
	d.release = d.scheduler.AfterFunc(Window, func() {
		d.releaseWindow(gen)
	})

	d.logger.Debug("scan accepted", "payload", event.Payload, "symbology", event.Symbology)
	return event, true
}

// State reports the current debounce state.
func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.suppressing {
		return StateSuppressing
	}
	return StateIdle
}

// Cancel stops a pending release and returns the debouncer to idle. Calling
// it while idle is a no-op.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.release != nil {
		d.release.Stop()
		d.release = nil
	}
	d.generation++
	d.suppressing = false
}

func (d *Debouncer) releaseWindow(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// a cancelled window may still fire if Stop lost the race
	if gen != d.generation {
		return
	}
	d.suppressing = false
	d.release = nil
}

func (d *Debouncer) first(batch []Event) (Event, bool) {
	for _, event := range batch {
		if event.Empty() {
			continue
		}
		if !d.allowed(event.Symbology) {
			d.logger.Debug("scan dropped: symbology disabled", "symbology", event.Symbology)
			continue
		}
		return event, true
	}
	return Event{}, false
}

func (d *Debouncer) allowed(symbology string) bool {
	if len(d.symbologies) == 0 {
		return true
	}
	symbology = strings.ToLower(strings.TrimSpace(symbology))
	if symbology == "" {
		return true
	}
	_, ok := d.symbologies[symbology]
	return ok
}
