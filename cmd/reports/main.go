package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tabular/internal/config"
	"github.com/JonMunkholm/tabular/internal/core"
	_ "github.com/JonMunkholm/tabular/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/tabular/internal/enrich"
	"github.com/JonMunkholm/tabular/internal/loader"
	"github.com/JonMunkholm/tabular/internal/logging"
	"github.com/JonMunkholm/tabular/internal/notify"
	"github.com/JonMunkholm/tabular/internal/pipeline"
	"github.com/JonMunkholm/tabular/internal/report"
	"github.com/JonMunkholm/tabular/internal/sink"
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
		slog.Error("reports run failed",
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
	dispatcher, closeSinks := buildSinks(ctx, cfg)
	defer closeSinks()

	p := &pipeline.Reports{
		Source:     cfg.Reports.WineCSVPath,
		Options:    loader.Options{Strict: cfg.Reports.Strict},
		Reference:  enrich.NewHTTPReferenceFetcher(cfg.Reference.URL, cfg.Reference.Timeout),
		Dispatcher: dispatcher,
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	for _, r := range summary.Failed() {
		slog.Warn("report failed", "report", r.Report, "target", r.Target, "code", core.ErrorCode(r.Err))
	}

	mailer := &notify.Mailer{
		Host:    cfg.Email.SMTPHost,
		Port:    cfg.Email.SMTPPort,
		User:    cfg.Email.User,
		Pass:    cfg.Email.Pass,
		To:      cfg.Email.To,
		Timeout: cfg.Email.Timeout,
	}
	if !mailer.Enabled() {
		slog.Info("e-mail notification disabled")
		return nil
	}

	mailCtx, cancel := context.WithTimeout(logging.WithRunID(ctx, summary.RunID), cfg.Email.Timeout)
	defer cancel()
	pattern := filepath.Join(cfg.Reports.Dir, "*.csv")
	if err := mailer.SendFiles(mailCtx, notify.DefaultSubject, notify.DefaultBody, pattern); err != nil {
		slog.Error("e-mail notification failed", "error", err, "code", core.ErrorCode(err))
	}
	return nil
}

// buildSinks routes each wine report to its destination. The returned func
// releases any database connections.
func buildSinks(ctx context.Context, cfg *config.Config) (*sink.Dispatcher, func()) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	dir := cfg.Reports.Dir
	d := sink.NewDispatcher(cfg.Reports.SinkTimeout).
		Route(report.ContinentSummary, sink.NewCSVFile(filepath.Join(dir, report.ContinentSummary+".csv"))).
		Route(report.BestWines, sink.NewSpreadsheet(filepath.Join(dir, report.BestWines+".xlsx")))

	switch strings.ToLower(cfg.Relational.Backend) {
	case config.BackendPostgres:
		pool, err := sink.OpenPostgres(ctx, cfg.Relational.DatabaseURL, cfg.Relational.MaxConns)
		if err != nil {
			// The report then fails with SNK001; the others are still written.
			slog.Error("failed to connect to postgres", "error", err, "code", core.ErrorCode(err))
			d.Route(report.PriceQuality, sink.NewPostgres(nil, cfg.Relational.Table))
			break
		}
		closers = append(closers, pool.Close)
		d.Route(report.PriceQuality, sink.NewPostgres(pool, cfg.Relational.Table))
	default:
		d.Route(report.PriceQuality, sink.NewSQLite(filepath.Join(dir, report.PriceQuality+".sqlite"), cfg.Relational.Table))
	}

	var coll sink.Collection
	if cfg.Mongo.Configured() {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		client, err := sink.OpenMongo(connectCtx, cfg.Mongo.URI())
		cancel()
		if err != nil {
			slog.Error("failed to connect to mongodb", "error", err, "code", core.ErrorCode(err))
		} else {
			closers = append(closers, func() {
				if err := client.Disconnect(context.Background()); err != nil {
					slog.Warn("mongodb disconnect", "error", err)
				}
			})
			coll = client.Database(cfg.Mongo.DB).Collection(report.TopRatio)
		}
	} else {
		slog.Info("mongodb not configured", "report", report.TopRatio)
	}
	d.Route(report.TopRatio, sink.NewMongo(coll, report.TopRatio))

	return d, closeAll
}
