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
	"syscall"
	"time"

	"github.com/kolapsis/deskbridge/internal/api"
	"github.com/kolapsis/deskbridge/internal/config"
	"github.com/kolapsis/deskbridge/internal/notify"
	"github.com/kolapsis/deskbridge/internal/server"
	"github.com/kolapsis/deskbridge/internal/store"
	"github.com/kolapsis/deskbridge/internal/tickets"
	"github.com/kolapsis/deskbridge/internal/tracker"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	case "version":
		fmt.Printf("deskbridge %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: deskbridge <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the local bridge server\n")
	fmt.Fprintf(os.Stderr, "  export    Write the time entries CSV to the export directory\n")
	fmt.Fprintf(os.Stderr, "  check     Validate configuration\n")
	fmt.Fprintf(os.Stderr, "  version   Print version\n")
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	slog.Info("starting deskbridge",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"api", cfg.API.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("bridge error", "error", err)
		os.Exit(1)
	}
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		slog.Error("opening database failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	engine := tracker.NewEngine(db)
	if len(engine.Entries()) == 0 {
		fmt.Println("no entries to export")
		return
	}

	path := filepath.Join(cfg.Export.Directory, tracker.ExportFilename(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		slog.Error("creating export file failed", "path", path, "error", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	if err := engine.ExportCSV(f); err != nil {
		slog.Error("csv export failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("exported %d entries to %s\n", len(engine.Entries()), path)
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	_, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("configuration is valid")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Server.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlers := []slog.Handler{
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	}

	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			slog.Warn("failed to open log file, using stdout only", "path", cfg.Server.LogFile, "error", err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}

	logger := slog.New(slog.NewMultiHandler(handlers...))
	slog.SetDefault(logger)
}

func run(ctx context.Context, cfg *config.Config) error {
	// --- SQLite Store ---
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	slog.Info("database opened", "path", cfg.Database.Path)

	// --- API Client ---
	client, err := api.New(cfg.API.BaseURL,
		api.WithCredentialStore(db),
		api.WithRefreshInterval(cfg.API.RefreshInterval),
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.RequestTimeout}),
		api.WithUserAgent(cfg.API.UserAgent+"/"+version),
	)
	if err != nil {
		return fmt.Errorf("constructing api client: %w", err)
	}
	// Environment-seeded tokens override whatever the store holds, so a
	// headless deployment can start with a session and no interactive login.
	if cfg.API.AccessToken != "" {
		client.SetAccessToken(cfg.API.AccessToken)
	}
	if cfg.API.RefreshToken != "" {
		client.SetRefreshToken(cfg.API.RefreshToken)
	}
	client.StartAutoRefresh(ctx)

	// --- Tracker Engine ---
	hub := notify.NewHub(notify.LogNotifier{})
	engine := tracker.NewEngine(db, tracker.WithHub(hub))

	// --- Ticket Provider ---
	provider := tickets.NewProvider(client.Tickets())

	// --- HTTP Server ---
	bridge := server.New(engine, client, provider)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      bridge.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("deskbridge is ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	// The session is intentionally NOT cleared on shutdown; logout is an
	// explicit bridge call. Tokens survive restarts via the store.
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
