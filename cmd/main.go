package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "wifi_tracker/docs"
	"wifi_tracker/internal/config"
	"wifi_tracker/internal/handlers"
	"wifi_tracker/internal/logger"
	"wifi_tracker/internal/parser"
	"wifi_tracker/internal/repository"
	"wifi_tracker/internal/server"
	"wifi_tracker/internal/service"
	"wifi_tracker/internal/tailer"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

// @title        wifi tracker API
// @version      1.0
// @description  Read-only queries over wifi client associations learned from hostapd logs.
// @BasePath     /
func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		logger.Get(logger.Options{Level: logger.InfoLevel}).Fatalw("invalid configuration", "err", err)
	}

	// init logger
	log := logger.Get(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	defer func() { _ = log.Sync() }()
	if cfg.Log.Level != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	p, err := parser.New(cfg.Parser.Patterns, parser.WithPrograms(cfg.Parser.Programs...))
	if err != nil {
		log.Fatalw("invalid parser patterns", "err", err)
	}
	src := tailer.New(cfg.Tail.Path,
		tailer.WithPollInterval(cfg.Tail.PollInterval),
		tailer.WithFromStart(cfg.Tail.FromStart),
		tailer.WithWatch(cfg.Tail.Watch),
		tailer.WithBackoff(cfg.Tail.BackoffInitial, cfg.Tail.BackoffMax),
		tailer.WithLogger(log),
	)

	// wire dependencies
	repos := repository.NewRepository()
	services := service.NewService(repos, src, p, service.Options{
		QueueSize:        cfg.Tail.QueueSize,
		WatchdogURL:      cfg.Watchdog.URL,
		WatchdogPeriod:   cfg.Watchdog.Period,
		WatchdogInterval: cfg.Watchdog.Interval,
		Log:              log,
	})
	apiHandler := handlers.NewHandler(services, log)

	// bind before starting background work so a bad address exits early
	srv := &server.Server{}
	if err := srv.Listen(cfg.HTTP.Listen, apiHandler.InitRoutes()); err != nil {
		log.Fatalw("error starting server", "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fatal := make(chan error, 2)
	go func() {
		if err := services.Ingest.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fatal <- err
		}
	}()
	if services.Watchdog != nil {
		go services.Watchdog.Run(ctx)
	}
	runHTTPServer(srv, fatal)

	log.Infow("wifi tracker started",
		"listen", srv.Addr(),
		"file", cfg.Tail.Path,
		"watchdog", cfg.Watchdog.URL != "",
	)

	// graceful shutdown
	waitForShutdown(cancel, srv, fatal, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, fatal chan<- error) {
	go func() {
		if err := srv.Serve(); err != nil {
			fatal <- err
		}
	}()
}

// waitForShutdown blocks until a termination signal or a fatal background
// error, then performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, fatal <-chan error, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		log.Infow("shutting down server...")
	case err := <-fatal:
		log.Errorw("fatal error, shutting down", "err", err)
		exitCode = 1
	}

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
	if exitCode != 0 {
		_ = log.Sync()
		os.Exit(exitCode)
	}
}
