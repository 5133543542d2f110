package entry

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-scanform/pkg/capture"
	"github.com/goliatone/go-scanform/pkg/scan"
)

// ScanSource drives one scanning session on the terminal. The controller is
// already in scanning mode when Await is called; Await returns once the
// session ended, either through an accepted scan or by closing the scanner.
type ScanSource interface {
	Await(ctx context.Context, ctrl *capture.Controller, driver PromptDriver, accepted <-chan scan.Event) error
}

// PromptSource reads codes typed (or wedged in by a USB scanner) at the prompt
// and feeds them to the camera surface.
type PromptSource struct {
	Feed      *capture.Feed
	Symbology string
}

// Await implements ScanSource.
func (p PromptSource) Await(ctx context.Context, ctrl *capture.Controller, driver PromptDriver, _ <-chan scan.Event) error {
	raw, err := driver.Input(ctx, InputConfig{
		Message: "Escanee el código de barras",
		Help:    "Deje vacío para cerrar el escáner",
	})
	if err != nil {
		_ = ctrl.CloseScanner()
		return err
	}
	code := strings.TrimSpace(raw)
	if code == "" {
		return ctrl.CloseScanner()
	}

	p.Feed.Emit(scan.Event{Payload: code, Symbology: p.Symbology})
	if ctrl.State() == capture.StateScanning {
		// the debouncer dropped the event
		if err := driver.Info(ctx, "Código no reconocido."); err != nil {
			_ = ctrl.CloseScanner()
			return err
		}
		return ctrl.CloseScanner()
	}
	return nil
}

// DeviceSource waits for a camera that produces detections on its own, such
// as capture.ReaderCamera.
type DeviceSource struct {
	// Timeout closes the scanner when no code arrives in time. Zero waits
	// until ctx is done.
	Timeout time.Duration
}

// Await implements ScanSource.
func (d DeviceSource) Await(ctx context.Context, ctrl *capture.Controller, driver PromptDriver, accepted <-chan scan.Event) error {
	if err := driver.Info(ctx, "Esperando lectura del escáner..."); err != nil {
		_ = ctrl.CloseScanner()
		return err
	}

	var timeout <-chan time.Time
	if d.Timeout > 0 {
		timer := time.NewTimer(d.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-accepted:
		return nil
	case <-timeout:
		if err := ctrl.CloseScanner(); err != nil {
			return err
		}
		return driver.Info(ctx, "No se detectó ningún código.")
	case <-ctx.Done():
		_ = ctrl.CloseScanner()
		return ctx.Err()
	}
}
