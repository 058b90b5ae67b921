package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Paxto2002/project-vidora/internal/config"
	"github.com/Paxto2002/project-vidora/internal/db"
	"github.com/Paxto2002/project-vidora/internal/handlers"
	"github.com/Paxto2002/project-vidora/internal/httpserver"
	"github.com/Paxto2002/project-vidora/internal/logging"
	"github.com/Paxto2002/project-vidora/internal/middleware"
)

// Run bootstraps the Vidora backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		return fmt.Errorf("prepare upload directory: %w", err)
	}

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}

	handler := middleware.RequestLogger(logger)(handlers.NewRouter(deps))
	srv := httpserver.New(cfg.AppPort, handler, cfg.HTTP)

	return runServer(ctx, srv, logger, cfg.HTTP.ShutdownTimeout, cleanup)
}

// runServer serves until ctx is canceled or the listener fails, then shuts the server down
// and runs cleanup within shutdownTimeout. The caller cancels ctx on SIGINT or SIGTERM.
func runServer(ctx context.Context, srv *httpserver.Server, logger *slog.Logger, shutdownTimeout time.Duration, cleanup func(context.Context) error) error {
	logger.Info("starting http server", "addr", srv.Addr())

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down http server", "cause", context.Cause(ctx))
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("shutdown http server: %w", err))
	}
	// In-flight requests may still queue media deletions until the server has stopped.
	if err := cleanup(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("drain media janitor: %w", err))
	}
	return serveErr
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	dir, err := resolveDir(cfg.MigrationDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := db.NewMigrator(pool, dir, os.Stdout)

	switch command {
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, status := range statuses {
			mark := " "
			if status.Applied {
				mark = "x"
			}
			fmt.Printf("[%s] %s\n", mark, status.Name)
		}
		return nil
	case "up", "":
		_, err := migrator.Up(ctx)
		return err
	case "down":
		return errors.New("down migrations are not supported yet")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir, err := resolveDir(cfg.SeedDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Seed(ctx, pool, dir, args[0]); err != nil {
		return err
	}
	fmt.Printf("applied seed %s\n", args[0])
	return nil
}

func newLogger(level string) *slog.Logger {
	return logging.New(level, func(opts *slog.HandlerOptions) slog.Handler {
		return slog.NewJSONHandler(os.Stdout, opts)
	})
}

// resolveDir anchors a relative directory at the working directory.
func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}
