package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-scanform"
	"github.com/goliatone/go-scanform/internal/config"
	"github.com/goliatone/go-scanform/pkg/capture"
	"github.com/goliatone/go-scanform/pkg/entry"
	"github.com/goliatone/go-scanform/pkg/notify"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env", ".env", "dotenv file loaded before environment overrides")
	baseURL := flag.String("base-url", "", "inventory service origin, overrides config")
	device := flag.String("device", "", "scanner device or file producing one code per line, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *baseURL != "" {
		cfg.Inventory.BaseURL = *baseURL
	}
	if *device != "" {
		cfg.Capture.Device = *device
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	driver := entry.NewSurveyDriver(os.Stdout)
	options := []scanform.Option{
		scanform.WithBaseURL(cfg.Inventory.BaseURL),
		scanform.WithProductsPath(cfg.Inventory.Path),
		scanform.WithTimeout(cfg.Inventory.Timeout),
		scanform.WithCatalog(cfg.Catalog),
		scanform.WithMessages(cfg.Messages),
		scanform.WithNotifier(notify.NewWriterNotifier(os.Stdout, notify.DefaultTheme())),
		scanform.WithLogger(logger),
		scanform.WithPromptDriver(driver),
		scanform.WithPermission(entry.NewConsentPermission(driver, cfg.Capture.PermissionGranted)),
		scanform.WithSymbologies(cfg.Capture.Symbologies...),
		scanform.WithScanSymbology(cfg.Capture.Symbology),
	}

	if cfg.Capture.Device != "" {
		f, err := os.Open(cfg.Capture.Device)
		if err != nil {
			log.Fatalf("Failed to open scanner device: %v", err)
		}
		defer f.Close()
		options = append(options,
			scanform.WithCamera(capture.NewReaderCamera(f, cfg.Capture.Symbology)),
			scanform.WithScanSource(entry.DeviceSource{Timeout: cfg.Capture.ScanTimeout}),
		)
	}

	session, err := scanform.NewSession(options...)
	if err != nil {
		log.Fatalf("Failed to build session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("entry screen started", "inventory", session.Client.Endpoint())
	if err := session.Run(ctx); err != nil && !errors.Is(err, entry.ErrAborted) && !errors.Is(err, context.Canceled) {
		log.Fatalf("Entry screen failed: %v", err)
	}
}
