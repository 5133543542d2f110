package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-scanform/components/inventorystub"
	"github.com/goliatone/go-scanform/internal/config"
	"github.com/goliatone/go-scanform/pkg/contract"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env", ".env", "dotenv file loaded before environment overrides")
	addr := flag.String("addr", "", "listen address, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Stub.Addr = *addr
	}

	logger, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := contract.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load contract: %v", err)
	}

	router := mux.NewRouter()
	pattern, err := inventorystub.RegisterRoutes(router, cfg.Stub.BasePath,
		inventorystub.WithContract(c),
		inventorystub.WithSanitize(cfg.Stub.Sanitize),
		inventorystub.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Stub.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Stub.Addr)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	logger.Info("inventory stub listening", "addr", ln.Addr().String(), "path", pattern)
	if err := serve(ctx, srv, ln, shutdownGrace); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("inventory stub stopped")
}

const shutdownGrace = 5 * time.Second

// serve runs srv on ln until ctx is done, then waits for in-flight requests to
// drain or for grace to elapse.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	drained := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		drained <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-drained
}
