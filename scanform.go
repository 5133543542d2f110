// Package scanform wires the garment entry flow: a form model, a capture
// controller that writes scanned barcodes into it, and an inventory client
// that submits it.
package scanform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goliatone/go-scanform/pkg/capture"
	"github.com/goliatone/go-scanform/pkg/entry"
	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/inventory"
	"github.com/goliatone/go-scanform/pkg/notify"
	"github.com/goliatone/go-scanform/pkg/scan"
)

// Field aliases form.Field for callers that only need the facade.
type Field = form.Field

// Notification aliases notify.Notification.
type Notification = notify.Notification

// Option configures NewSession.
type Option func(*settings)

type settings struct {
	baseURL      string
	productsPath string
	timeout      time.Duration
	httpClient   *http.Client
	camera       capture.Camera
	permission   capture.Permission
	driver       entry.PromptDriver
	source       entry.ScanSource
	catalog      *form.Catalog
	messages     map[notify.MessageKey]notify.Message
	notifier     notify.Notifier
	logger       *slog.Logger
	symbology    string
	scanOptions  []scan.Option
	captureOpts  []capture.Option
}

// WithBaseURL sets the inventory service origin.
func WithBaseURL(base string) Option {
	return func(s *settings) { s.baseURL = base }
}

// WithProductsPath overrides the inventory collection path.
func WithProductsPath(path string) Option {
	return func(s *settings) { s.productsPath = path }
}

// WithTimeout bounds every inventory request.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithHTTPClient swaps the inventory transport.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) { s.httpClient = client }
}

// WithCamera sets the capture surface. A capture.Feed is used when omitted.
func WithCamera(camera capture.Camera) Option {
	return func(s *settings) { s.camera = camera }
}

// WithPermission sets the camera grant. Granted by default.
func WithPermission(p capture.Permission) Option {
	return func(s *settings) { s.permission = p }
}

// WithPromptDriver enables the terminal screen.
func WithPromptDriver(driver entry.PromptDriver) Option {
	return func(s *settings) { s.driver = driver }
}

// WithScanSource overrides how the terminal screen collects codes.
func WithScanSource(source entry.ScanSource) Option {
	return func(s *settings) { s.source = source }
}

// WithCatalog sets the dropdown options.
func WithCatalog(catalog form.Catalog) Option {
	return func(s *settings) { s.catalog = &catalog }
}

// WithMessages overrides notification templates.
func WithMessages(messages map[notify.MessageKey]notify.Message) Option {
	return func(s *settings) { s.messages = messages }
}

// WithNotifier sets where outcomes are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(s *settings) { s.notifier = n }
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithSymbologies restricts accepted code types.
func WithSymbologies(symbologies ...string) Option {
	return func(s *settings) {
		s.scanOptions = append(s.scanOptions, scan.WithSymbologies(symbologies...))
	}
}

// WithScanSymbology tags codes typed at the terminal prompt. Untagged codes
// pass any symbology filter.
func WithScanSymbology(symbology string) Option {
	return func(s *settings) { s.symbology = symbology }
}

// WithCaptureOptions forwards extra options to the controller.
func WithCaptureOptions(options ...capture.Option) Option {
	return func(s *settings) { s.captureOpts = append(s.captureOpts, options...) }
}

// Session bundles the components of one entry screen.
type Session struct {
	Form       *form.Model
	Controller *capture.Controller
	Client     *inventory.Client
	// Screen is nil unless a prompt driver was configured.
	Screen   *entry.Screen
	Messages *notify.Catalog
}

// NewSession builds and wires every component.
func NewSession(options ...Option) (*Session, error) {
	cfg := settings{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.notifier == nil {
		cfg.notifier = notify.Discard
	}
	if cfg.permission == nil {
		cfg.permission = capture.NewStaticPermission(true)
	}
	catalog := form.DefaultCatalog()
	if cfg.catalog != nil {
		catalog = *cfg.catalog
	}

	messages, err := notify.NewCatalog(cfg.messages)
	if err != nil {
		return nil, fmt.Errorf("scanform: %w", err)
	}

	feed, _ := cfg.camera.(*capture.Feed)
	if cfg.camera == nil {
		feed = capture.NewFeed()
		cfg.camera = feed
	}

	client := inventory.New(
		inventory.WithBaseURL(cfg.baseURL),
		inventory.WithProductsPath(cfg.productsPath),
		inventory.WithTimeout(cfg.timeout),
		inventory.WithHTTPClient(cfg.httpClient),
		inventory.WithNotifier(cfg.notifier),
		inventory.WithCatalog(messages),
		inventory.WithLogger(cfg.logger.With("component", "inventory")),
	)

	session := &Session{
		Form:     form.New(),
		Client:   client,
		Messages: messages,
	}

	captureOpts := []capture.Option{
		capture.WithLogger(cfg.logger.With("component", "capture")),
		capture.WithDebouncerOptions(cfg.scanOptions...),
	}
	if cfg.driver != nil {
		source := cfg.source
		if source == nil {
			if feed == nil {
				return nil, errors.New("scanform: a scan source is required for custom cameras")
			}
			source = entry.PromptSource{Feed: feed, Symbology: cfg.symbology}
		}
		screen, err := entry.NewScreen(cfg.driver, client,
			entry.WithCatalog(catalog),
			entry.WithMessages(messages),
			entry.WithNotifier(cfg.notifier),
			entry.WithScanSource(source),
			entry.WithLogger(cfg.logger.With("component", "entry")),
		)
		if err != nil {
			return nil, fmt.Errorf("scanform: %w", err)
		}
		session.Screen = screen
		captureOpts = append(captureOpts, capture.WithScanListener(screen.OnScan))
	}
	captureOpts = append(captureOpts, cfg.captureOpts...)

	ctrl, err := capture.New(session.Form, cfg.camera, cfg.permission, captureOpts...)
	if err != nil {
		return nil, fmt.Errorf("scanform: %w", err)
	}
	session.Controller = ctrl
	return session, nil
}

// Run drives the terminal screen until the operator exits.
func (s *Session) Run(ctx context.Context) error {
	if s.Screen == nil {
		return errors.New("scanform: no prompt driver configured")
	}
	return s.Screen.Run(ctx, s.Controller)
}

// Submit sends the current form.
func (s *Session) Submit(ctx context.Context) (inventory.Receipt, error) {
	return s.Client.Submit(ctx, s.Form.Snapshot())
}
