// Package config loads the scanform settings from YAML, an optional .env file
// and SCANFORM_* environment variables, in that order of precedence (later
// wins).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/notify"
	"github.com/goliatone/go-scanform/pkg/scan"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCANFORM_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Inventory Inventory                            `yaml:"inventory"`
	Capture   Capture                              `yaml:"capture"`
	Catalog   form.Catalog                         `yaml:"catalog"`
	Messages  map[notify.MessageKey]notify.Message `yaml:"messages"`
	Log       Log                                  `yaml:"log"`
	Stub      Stub                                 `yaml:"stub"`
}

type Inventory struct {
	BaseURL string        `yaml:"base_url"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type Capture struct {
	// Device is a file or character device producing one code per line, as
	// keyboard-wedge scanners do. Empty means codes are typed at the prompt.
	Device      string        `yaml:"device"`
	Symbology   string        `yaml:"symbology"`
	Symbologies []string      `yaml:"symbologies"`
	ScanTimeout time.Duration `yaml:"scan_timeout"`

	// PermissionGranted is the initial camera grant.
	PermissionGranted bool `yaml:"permission_granted"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Stub struct {
	Addr     string `yaml:"addr"`
	BasePath string `yaml:"base_path"`
	Sanitize bool   `yaml:"sanitize"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Inventory: Inventory{
			BaseURL: "http://localhost:3010",
			Path:    "/api/products",
		},
		Capture: Capture{
			Symbology:         scan.SymbologyCode128,
			Symbologies:       append([]string(nil), scan.DefaultSymbologies...),
			ScanTimeout:       30 * time.Second,
			PermissionGranted: true,
		},
		Catalog: form.DefaultCatalog(),
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Stub: Stub{
			Addr:     ":3010",
			Sanitize: true,
		},
	}
}

// Load reads path (optional), then envFiles (missing ones are skipped), then
// the process environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "BASE_URL"); ok {
		c.Inventory.BaseURL = v
	}
	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Inventory.Timeout = d
	}
	if v, ok := lookup(EnvPrefix + "SCANNER_DEVICE"); ok {
		c.Capture.Device = v
	}
	if v, ok := lookup(EnvPrefix + "CAMERA_PERMISSION"); ok {
		granted, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sCAMERA_PERMISSION: %w", EnvPrefix, err)
		}
		c.Capture.PermissionGranted = granted
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvPrefix + "STUB_ADDR"); ok {
		c.Stub.Addr = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Inventory.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: inventory.base_url %q must be an absolute URL", ErrInvalid, c.Inventory.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: inventory.base_url scheme %q", ErrInvalid, u.Scheme)
	}
	if c.Inventory.Timeout < 0 {
		return fmt.Errorf("%w: inventory.timeout must not be negative", ErrInvalid)
	}
	if c.Capture.ScanTimeout < 0 {
		return fmt.Errorf("%w: capture.scan_timeout must not be negative", ErrInvalid)
	}
	if !symbologyEnabled(c.Capture.Symbology, c.Capture.Symbologies) {
		return fmt.Errorf("%w: capture.symbology %q is not listed in capture.symbologies", ErrInvalid, c.Capture.Symbology)
	}
	if len(c.Catalog.Sizes) == 0 || len(c.Catalog.Colors) == 0 {
		return fmt.Errorf("%w: catalog needs sizes and colors", ErrInvalid)
	}
	for _, choice := range append(append([]form.Choice(nil), c.Catalog.Sizes...), c.Catalog.Colors...) {
		if strings.TrimSpace(choice.Value) == "" {
			return fmt.Errorf("%w: catalog option %q has no value", ErrInvalid, choice.Label)
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

func symbologyEnabled(symbology string, enabled []string) bool {
	symbology = strings.TrimSpace(symbology)
	if symbology == "" || len(enabled) == 0 {
		return true
	}
	for _, s := range enabled {
		if strings.EqualFold(strings.TrimSpace(s), symbology) {
			return true
		}
	}
	return false
}

// Logger builds the process logger described by the log section.
func (l Log) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(raw string) (slog.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, raw)
	}
	return level, nil
}
