// Command trendit-collector runs the collection job engine: it polls the
// pending queue, executes jobs against the upstream API, and writes records
// to the primary and mirror stores.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/trendit/collector-go/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting trendit collector",
		slog.String("db_host", cfg.Postgres.Host),
		slog.Int("db_port", cfg.Postgres.Port),
		slog.String("db_name", cfg.Postgres.Name),
		slog.Bool("mirror_enabled", cfg.Redis.Enabled),
		slog.Int("workers", cfg.Collector.Workers))

	db, err := bootstrap.ConnectDB(cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	sink, err := bootstrap.NewMetricsSink(cfg.Observability, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics sink failed", "error", cerr)
		}
	}()

	mirror := bootstrap.NewMirrorStore(redisClient, cfg.Redis)
	jobRunner, err := bootstrap.NewRunner(db, cfg, mirror, sink, logger)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = jobRunner.Run(runCtx)
	if err == nil || runCtx.Err() != nil {
		logger.InfoContext(ctx, "collector stopped")
		return nil
	}
	return err
}
