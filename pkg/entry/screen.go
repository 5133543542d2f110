// Package entry is the terminal presentation of the garment entry screen. It
// renders the form, routes menu actions to the capture controller and the
// inventory client, and shows notifications.
package entry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/goliatone/go-scanform/pkg/capture"
	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/inventory"
	"github.com/goliatone/go-scanform/pkg/notify"
	"github.com/goliatone/go-scanform/pkg/scan"
)

// Inventory is the part of inventory.Client the screen needs.
type Inventory interface {
	Submit(ctx context.Context, snapshot form.Snapshot) (inventory.Receipt, error)
	List(ctx context.Context) ([]inventory.Record, error)
}

// Action is an entry-mode menu item.
type Action int

const (
	ActionScan Action = iota
	ActionFill
	ActionEdit
	ActionSave
	ActionList
	ActionExit
)

var actionLabels = []string{
	ActionScan: "Escanear código",
	ActionFill: "Llenar formulario",
	ActionEdit: "Editar campo",
	ActionSave: "Guardar",
	ActionList: "Ver productos",
	ActionExit: "Salir",
}

const (
	permissionGrant = "Conceder permiso"
	permissionExit  = "Salir"
)

// Option configures a Screen.
type Option func(*Screen)

// WithCatalog sets the dropdown options.
func WithCatalog(catalog form.Catalog) Option {
	return func(s *Screen) {
		s.catalog = catalog
	}
}

// WithMessages sets the templates used for screen-level notices.
func WithMessages(messages *notify.Catalog) Option {
	return func(s *Screen) {
		if messages != nil {
			s.messages = messages
		}
	}
}

// WithNotifier sets where scan notices are reported. Submission outcomes are
// reported by the inventory client itself.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Screen) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithScanSource selects how codes reach the camera surface.
func WithScanSource(source ScanSource) Option {
	return func(s *Screen) {
		if source != nil {
			s.source = source
		}
	}
}

// WithLogger sets the screen logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Screen) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Screen is a single-operator terminal loop.
type Screen struct {
	driver   PromptDriver
	client   Inventory
	catalog  form.Catalog
	messages *notify.Catalog
	notifier notify.Notifier
	source   ScanSource
	logger   *slog.Logger
	accepted chan scan.Event
}

// NewScreen builds a screen. Scanning reports an error until a ScanSource is
// set with WithScanSource.
func NewScreen(driver PromptDriver, client Inventory, options ...Option) (*Screen, error) {
	if driver == nil {
		return nil, errors.New("entry: prompt driver is required")
	}
	if client == nil {
		return nil, errors.New("entry: inventory client is required")
	}
	s := &Screen{
		driver:   driver,
		client:   client,
		catalog:  form.DefaultCatalog(),
		messages: notify.MustCatalog(nil),
		notifier: notify.Discard,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		accepted: make(chan scan.Event, 1),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// OnScan is meant to be registered with capture.WithScanListener.
func (s *Screen) OnScan(event scan.Event) {
	select {
	case s.accepted <- event:
	default:
	}
	s.notifier.Notify(context.Background(), s.messages.MustRender(notify.KindInfo, notify.KeyScanAccepted, map[string]any{
		"code":      event.Payload,
		"symbology": event.Symbology,
	}))
}

// Run drives ctrl until the operator exits. ErrAborted is returned when the
// operator interrupts a prompt.
func (s *Screen) Run(ctx context.Context, ctrl *capture.Controller) error {
	if ctrl == nil {
		return errors.New("entry: controller is required")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if ctrl.Refresh() == capture.StateAwaitingPermission {
			done, err := s.PromptPermission(ctx, ctrl)
			if err != nil || done {
				return err
			}
			continue
		}

		action, err := s.menu(ctx, ctrl.Form())
		if err != nil {
			return err
		}
		switch action {
		case ActionScan:
			err = s.scan(ctx, ctrl)
		case ActionFill:
			err = s.fill(ctx, ctrl.Form())
		case ActionEdit:
			err = s.edit(ctx, ctrl.Form())
		case ActionSave:
			s.save(ctx, ctrl.Form())
		case ActionList:
			s.list(ctx)
		case ActionExit:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// PromptPermission shows the permission notice and offers to request the
// grant. done is true when the operator chose to leave.
func (s *Screen) PromptPermission(ctx context.Context, ctrl *capture.Controller) (done bool, err error) {
	notice := s.messages.MustRender(notify.KindInfo, notify.KeyPermissionRequired, nil)
	if err := s.driver.Info(ctx, notice.String()); err != nil {
		return false, err
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message: notice.Title,
		Options: []string{permissionGrant, permissionExit},
	})
	if err != nil {
		return false, err
	}
	if idx != 0 {
		return true, nil
	}
	if err := ctrl.RequestPermission(ctx); err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			return false, nil
		}
		s.logger.Warn("permission request failed", "error", err)
	}
	return false, nil
}

func (s *Screen) menu(ctx context.Context, model *form.Model) (Action, error) {
	if err := s.driver.Info(ctx, Summary(model.Snapshot())); err != nil {
		return ActionExit, err
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message: "Ingresar prendas",
		Help:    "Ingresa los siguientes datos o escanea el código de barras en la prenda para ingresarla al inventario.",
		Options: append([]string(nil), actionLabels...),
	})
	if err != nil {
		return ActionExit, err
	}
	if idx < 0 || idx >= len(actionLabels) {
		return ActionExit, fmt.Errorf("entry: unknown menu option %d", idx)
	}
	return Action(idx), nil
}

func (s *Screen) scan(ctx context.Context, ctrl *capture.Controller) error {
	s.drainAccepted()
	if err := ctrl.OpenScanner(ctx); err != nil {
		switch {
		case errors.Is(err, capture.ErrPermissionDenied):
			return nil
		case errors.Is(err, capture.ErrCameraUnavailable):
			s.logger.Warn("scanner unavailable", "error", err)
			return s.driver.Info(ctx, "No se pudo abrir el escáner.")
		default:
			return err
		}
	}
	if s.source == nil {
		_ = ctrl.CloseScanner()
		return errors.New("entry: no scan source configured")
	}
	return s.source.Await(ctx, ctrl, s.driver, s.accepted)
}

func (s *Screen) drainAccepted() {
	for {
		select {
		case <-s.accepted:
		default:
			return
		}
	}
}

func (s *Screen) fill(ctx context.Context, model *form.Model) error {
	for _, f := range form.Fields() {
		if err := s.editField(ctx, model, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Screen) edit(ctx context.Context, model *form.Model) error {
	fields := form.Fields()
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label()
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Campo", Options: labels})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(fields) {
		return nil
	}
	return s.editField(ctx, model, fields[idx])
}

func (s *Screen) editField(ctx context.Context, model *form.Model, f form.Field) error {
	current := model.Value(f)

	if choices := s.catalog.Choices(f); len(choices) > 0 {
		labels := make([]string, len(choices))
		selected := make(map[string]struct{})
		for _, v := range form.Split(current) {
			selected[v] = struct{}{}
		}
		var defaults []int
		for i, c := range choices {
			labels[i] = c.Label
			if _, ok := selected[c.Value]; ok {
				defaults = append(defaults, i)
			}
		}
		picked, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  f.Label(),
			Options:  labels,
			Defaults: defaults,
		})
		if err != nil {
			return err
		}
		values := make([]string, 0, len(picked))
		for _, i := range picked {
			if i >= 0 && i < len(choices) {
				values = append(values, choices[i].Value)
			}
		}
		model.Set(f, form.Join(values))
		return nil
	}

	cfg := InputConfig{Message: f.Label(), Default: current}
	if f.Numeric() {
		cfg.Validator = digitsOnly
	}
	value, err := s.driver.Input(ctx, cfg)
	if err != nil {
		return err
	}
	model.Set(f, value)
	return nil
}

func (s *Screen) save(ctx context.Context, model *form.Model) {
	if _, err := s.client.Submit(ctx, model.Snapshot()); err != nil {
		s.logger.Debug("submission failed", "error", err)
	}
}

func (s *Screen) list(ctx context.Context) {
	if _, err := s.client.List(ctx); err != nil {
		s.logger.Debug("listing failed", "error", err)
	}
}

// Summary renders a snapshot as labelled lines in display order.
func Summary(snapshot form.Snapshot) string {
	var b strings.Builder
	for i, f := range form.Fields() {
		if i > 0 {
			b.WriteString("\n")
		}
		value := snapshot.Get(f)
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%s: %s", f.Label(), value)
	}
	return b.String()
}

func digitsOnly(value string) error {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return errors.New("solo se permiten números")
		}
	}
	return nil
}
