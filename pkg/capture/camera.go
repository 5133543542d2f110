package capture

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-scanform/pkg/scan"
)

// Sink receives detection batches from an active capture surface.
type Sink func(batch []scan.Event)

// Camera is the capture surface. Activate starts delivering detections to sink
// until Deactivate is called. Implementations may call sink synchronously from
// inside Activate.
type Camera interface {
	Activate(ctx context.Context, sink Sink) error
	Deactivate() error
}

// ErrCameraBusy is returned when Activate is called on an active surface.
var ErrCameraBusy = errors.New("capture: camera already active")

// Feed is an in-process capture surface. Detections pushed through Emit reach
// the sink only while the feed is active, which matches keyboard-wedge
// scanners typing into a focused prompt.
type Feed struct {
	mu          sync.Mutex
	sink        Sink
	activations int
}

// NewFeed returns an inactive feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Activate implements Camera.
func (f *Feed) Activate(_ context.Context, sink Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sink != nil {
		return ErrCameraBusy
	}
	f.sink = sink
	f.activations++
	return nil
}

// Deactivate implements Camera.
func (f *Feed) Deactivate() error {
	f.mu.Lock()
	f.sink = nil
	f.mu.Unlock()
	return nil
}

// Active reports whether a sink is attached.
func (f *Feed) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sink != nil
}

// Activations counts how many times the feed was activated.
func (f *Feed) Activations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activations
}

// Emit delivers a batch to the active sink. It reports false when the feed is
// inactive and the batch was dropped.
func (f *Feed) Emit(batch ...scan.Event) bool {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink == nil {
		return false
	}
	sink(batch)
	return true
}

// ReaderCamera reads newline-terminated codes from a scanner device (HID or
// serial line discipline) and forwards each line as a detection while active.
// Lines read while inactive are discarded.
type ReaderCamera struct {
	feed      *Feed
	symbology string

	startOnce sync.Once
	src       io.Reader
	done      chan struct{}
	err       error
}

// NewReaderCamera wraps src. symbology is attached to every detection and may
// be empty.
func NewReaderCamera(src io.Reader, symbology string) *ReaderCamera {
	return &ReaderCamera{
		feed:      NewFeed(),
		symbology: symbology,
		src:       src,
		done:      make(chan struct{}),
	}
}

// Activate implements Camera. The reader goroutine starts on first activation
// and lives until the source is exhausted.
func (c *ReaderCamera) Activate(ctx context.Context, sink Sink) error {
	if c.src == nil {
		return errors.New("capture: reader camera has no source")
	}
	if err := c.feed.Activate(ctx, sink); err != nil {
		return err
	}
	c.startOnce.Do(func() {
		go c.readLoop()
	})
	return nil
}

// Deactivate implements Camera.
func (c *ReaderCamera) Deactivate() error {
	return c.feed.Deactivate()
}

// Done is closed once the source is exhausted.
func (c *ReaderCamera) Done() <-chan struct{} {
	return c.done
}

// Err returns the read error that ended the loop, if any.
func (c *ReaderCamera) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *ReaderCamera) readLoop() {
	defer close(c.done)
	scanner := bufio.NewScanner(c.src)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		c.feed.Emit(scan.Event{Payload: line, Symbology: c.symbology})
	}
	c.err = scanner.Err()
}
