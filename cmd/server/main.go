package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/me/gofleet/internal/config"
	"github.com/me/gofleet/internal/events"
	"github.com/me/gofleet/internal/logging"
	"github.com/me/gofleet/internal/mapselect"
	"github.com/me/gofleet/internal/mapstore"
	"github.com/me/gofleet/internal/robot"
	"github.com/me/gofleet/internal/scheduler"
	"github.com/me/gofleet/internal/server"
	"github.com/me/gofleet/internal/store"
	"github.com/me/gofleet/pkg/model"
)

func main() {
	configFile := flag.String("config", os.Getenv("GOFLEET_CONFIG"), "Path to YAML config file (or GOFLEET_CONFIG env)")
	addr := flag.String("addr", "", "Listen address")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	dbPath := flag.String("db", "", "Database path (default ~/.gofleet/gofleet.db)")
	pollInterval := flag.Duration("poll-interval", 0, "Mission dispatch poll interval")
	mapsBackend := flag.String("maps-backend", "", "Map store backend: s3 or dir")
	mapsDir := flag.String("maps-dir", "", "Map directory for the dir backend")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "db":
			cfg.DBPath = *dbPath
		case "poll-interval":
			cfg.Scheduler.PollInterval = *pollInterval
		case "maps-backend":
			cfg.Maps.Backend = *mapsBackend
		case "maps-dir":
			cfg.Maps.DirRoot = *mapsDir
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.ServerConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open store and run migrations.
	dbPath, err := resolveDBPath(cfg.DBPath)
	if err != nil {
		return err
	}
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", "path", dbPath)

	maps, err := openMapStore(ctx, cfg.Maps, logger)
	if err != nil {
		return err
	}
	mapService := mapselect.NewService(maps, st, logger)

	// Dispatchers by transport. MQTT is optional.
	reg := robot.NewRegistry(logger)
	reg.Register(model.TransportHTTP, robot.NewHTTPDispatcher(cfg.Robots.HTTPTimeout, logger))
	if cfg.Robots.MQTTBroker != "" {
		mqttDispatcher, disconnect, err := robot.NewMQTTDispatcher(robot.MQTTConfig{
			Broker:      cfg.Robots.MQTTBroker,
			ClientID:    cfg.Robots.MQTTClientID,
			Username:    cfg.Robots.MQTTUsername,
			Password:    cfg.Robots.MQTTPassword,
			TopicPrefix: cfg.Robots.MQTTTopic,
			AckTimeout:  cfg.Robots.MQTTAckTimeout,
		}, logger)
		if err != nil {
			return err
		}
		defer disconnect()
		reg.Register(model.TransportMQTT, mqttDispatcher)
	}

	var publisher events.Publisher
	if cfg.Events.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	controller := robot.NewController(reg, st, logger)
	loop := scheduler.NewLoop(st, controller, publisher, scheduler.Config{PollInterval: cfg.Scheduler.PollInterval}, logger)
	srv := server.New(cfg, st, mapService, logger, server.WithScheduler(loop))

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loop.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func resolveDBPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".gofleet")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "gofleet.db"), nil
}

func openMapStore(ctx context.Context, cfg config.MapsConfig, logger *slog.Logger) (mapstore.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.MapBackendS3:
		s3Store, err := mapstore.NewS3Store(ctx, mapstore.S3Config{
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			BucketPrefix: cfg.BucketPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open S3 map store: %w", err)
		}
		logger.Info("map store ready", "backend", "s3", "bucket_prefix", cfg.BucketPrefix)
		return s3Store, nil
	default:
		logger.Info("map store ready", "backend", "dir", "root", cfg.DirRoot)
		return mapstore.NewDirStore(cfg.DirRoot, logger), nil
	}
}
