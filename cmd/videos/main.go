package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tabular/internal/config"
	"github.com/JonMunkholm/tabular/internal/core"
	_ "github.com/JonMunkholm/tabular/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/tabular/internal/logging"
	"github.com/JonMunkholm/tabular/internal/pipeline"
	"github.com/JonMunkholm/tabular/internal/sink"
	"github.com/JonMunkholm/tabular/internal/source"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("videos run failed",
			"error", err,
			"code", core.ErrorCode(err),
			"message", core.FormatUserError(err),
			"fatal", core.IsFatal(err),
		)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var coll sink.Collection
	if cfg.Mongo.Configured() {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		client, err := sink.OpenMongo(connectCtx, cfg.Mongo.URI())
		cancel()
		if err != nil {
			slog.Error("failed to connect to mongodb", "error", err, "code", core.ErrorCode(err))
		} else {
			defer func() {
				if err := client.Disconnect(context.Background()); err != nil {
					slog.Warn("mongodb disconnect", "error", err)
				}
			}()
			coll = client.Database(cfg.Mongo.DB).Collection(cfg.Videos.Collection)
		}
	} else {
		slog.Info("mongodb not configured", "collection", cfg.Videos.Collection)
	}

	p := &pipeline.Videos{
		Source: source.Archive{
			URL:    cfg.Videos.ArchiveURL,
			Dir:    cfg.Videos.DataDir,
			Client: &http.Client{Timeout: cfg.Videos.DownloadTimeout},
		},
		Collection: cfg.Videos.Collection,
		Categories: cfg.Videos.Categories,
		Seed:       cfg.Videos.Seed,
		Dispatcher: sink.NewDispatcher(cfg.Reports.SinkTimeout).
			Route(cfg.Videos.Collection, sink.NewMongo(coll, cfg.Videos.Collection)),
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}
	for _, r := range summary.Failed() {
		slog.Warn("export failed", "collection", r.Report, "target", r.Target, "code", core.ErrorCode(r.Err))
	}
	return nil
}
