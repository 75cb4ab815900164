package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/perbu/sessmon/internal/alert"
	"github.com/perbu/sessmon/internal/config"
	"github.com/perbu/sessmon/internal/metrics"
	"github.com/perbu/sessmon/internal/monitor"
	"github.com/perbu/sessmon/internal/store"
	"github.com/perbu/sessmon/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed .version
var version string

// setupLogger configures the global slog logger based on debug setting
func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	// Parse command-line flags
	var (
		port       = flag.Int("port", 8080, "Port to listen on")
		host       = flag.String("host", "localhost", "Host to bind to")
		configPath = flag.String("config", "", "Config file path")
		dataDir    = flag.String("data-dir", "", "Data directory")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		showVer    = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(strings.TrimSpace(version))
		return nil
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override data dir if specified
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	// Override debug if specified via CLI flag
	if *debug {
		cfg.Debug = true
	}

	// Set up slog based on debug setting
	setupLogger(cfg.Debug)
	slog.Info("starting sessmon", "version", strings.TrimSpace(version))

	// The sqlite backend keeps its database in the data directory
	if cfg.Store.Driver != "postgres" && cfg.DataDir == "" {
		return fmt.Errorf("data directory must be specified via --data-dir flag or config file")
	}

	if cfg.DataDir != "" {
		if err := cfg.EnsureDataDir(); err != nil {
			return err
		}
	}

	// Open the audit store
	st, err := store.Open(cfg.Store.Driver, cfg.GetStoreDSN(), cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New("sessmon", registry)

	// Failure alerting
	var notifier *alert.Notifier
	if cfg.Alert.Enabled {
		apiKey := cfg.GetSendGridAPIKey()
		if apiKey == "" || cfg.Alert.ToEmail == "" {
			return fmt.Errorf("alerting enabled but sendgrid api key or to_email missing")
		}
		sender := alert.NewClient(apiKey, cfg.Alert.FromEmail, cfg.Alert.FromName)
		notifier = alert.NewNotifier(sender, cfg.Alert.ToEmail, cfg.Alert.SubjectPrefix, cfg.Alert.FailureThreshold)
		slog.Info("failure alerting enabled", "to", cfg.Alert.ToEmail, "threshold", cfg.Alert.FailureThreshold)
	}

	// Session monitor
	mon, err := monitor.New(cfg, st, collector, notifier)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	// Create the web server
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	server, err := web.NewServer(mon, st, cfg, metricsHandler, *host, *port)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monDone := make(chan error, 1)
	go func() { monDone <- mon.Run(ctx) }()

	srvDone := make(chan error, 1)
	go func() { srvDone <- server.Start() }()

	slog.Info("sessmon ready", "address", server.Address())

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return <-monDone
	case err := <-srvDone:
		stop()
		<-monDone
		return fmt.Errorf("web server stopped: %w", err)
	}
}
