package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/notify"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "scanform.yaml", `
inventory:
  base_url: http://192.168.20.242:3010
  timeout: 5s
capture:
  device: /dev/hidraw0
  scan_timeout: 10s
catalog:
  sizes:
    - label: XL
      value: xl
messages:
  submit_success:
    title: Listo
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Inventory.BaseURL != "http://192.168.20.242:3010" || cfg.Inventory.Timeout != 5*time.Second {
		t.Fatalf("unexpected inventory section %+v", cfg.Inventory)
	}
	if cfg.Capture.Device != "/dev/hidraw0" || cfg.Capture.ScanTimeout != 10*time.Second {
		t.Fatalf("unexpected capture section %+v", cfg.Capture)
	}
	if diff := cmp.Diff([]form.Choice{{Label: "XL", Value: "xl"}}, cfg.Catalog.Sizes); diff != "" {
		t.Fatalf("sizes mismatch (-want +got):\n%s", diff)
	}
	if len(cfg.Catalog.Colors) != 3 {
		t.Fatalf("colours should keep their defaults, got %v", cfg.Catalog.Colors)
	}
	if got := cfg.Messages[notify.KeySubmitSuccess].Title; got != "Listo" {
		t.Fatalf("unexpected message override %q", got)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Log.Format)
	}
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeFile(t, "scanform.yaml", "inventory:\n  base_url: http://file:3010\n")
	t.Setenv("SCANFORM_BASE_URL", "http://env:3010")
	t.Setenv("SCANFORM_TIMEOUT", "2s")
	t.Setenv("SCANFORM_CAMERA_PERMISSION", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Inventory.BaseURL != "http://env:3010" || cfg.Inventory.Timeout != 2*time.Second {
		t.Fatalf("env overrides not applied: %+v", cfg.Inventory)
	}
	if cfg.Capture.PermissionGranted {
		t.Fatalf("expected permission override")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	// registers the restore; godotenv never overrides variables already set
	t.Setenv("SCANFORM_STUB_ADDR", "")
	os.Unsetenv("SCANFORM_STUB_ADDR")
	env := writeFile(t, ".env", "SCANFORM_STUB_ADDR=127.0.0.1:4000\n")

	cfg, err := Load("", env)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stub.Addr != "127.0.0.1:4000" {
		t.Fatalf("expected .env value, got %q", cfg.Stub.Addr)
	}
}

func TestLoad_InvalidEnvDuration(t *testing.T) {
	t.Setenv("SCANFORM_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected duration error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "relative url", mutate: func(c *Config) { c.Inventory.BaseURL = "/api" }},
		{name: "ftp url", mutate: func(c *Config) { c.Inventory.BaseURL = "ftp://host" }},
		{name: "negative timeout", mutate: func(c *Config) { c.Inventory.Timeout = -time.Second }},
		{name: "no sizes", mutate: func(c *Config) { c.Catalog.Sizes = nil }},
		{name: "blank value", mutate: func(c *Config) { c.Catalog.Colors = []form.Choice{{Label: "Rojo"}} }},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }},
		{name: "symbology filtered out", mutate: func(c *Config) { c.Capture.Symbologies = []string{"qr"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidate_SymbologyMatchesFilter(t *testing.T) {
	cfg := Default()
	cfg.Capture.Symbology = "QR"
	cfg.Capture.Symbologies = []string{"qr"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLogLogger(t *testing.T) {
	logger, err := Log{Level: "warn", Format: "json"}.Logger(os.Stderr)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug should be disabled at warn level")
	}
}
