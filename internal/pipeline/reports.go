// Package pipeline wires loaders, enrichment, reports and sinks into the two
// batch runs: the wine reports and the video export.
//
// Components are passed in explicitly; nothing here reads the environment.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tabular/internal/core"
	"github.com/JonMunkholm/tabular/internal/core/tables"
	"github.com/JonMunkholm/tabular/internal/enrich"
	"github.com/JonMunkholm/tabular/internal/loader"
	"github.com/JonMunkholm/tabular/internal/logging"
	"github.com/JonMunkholm/tabular/internal/report"
	"github.com/JonMunkholm/tabular/internal/sink"
)

// Summary describes one completed run.
type Summary struct {
	RunID    string
	Load     *core.LoadReport
	Join     enrich.JoinStats
	Results  []sink.Result
	Duration time.Duration
}

// Failed returns the sink results that carry an error.
func (s *Summary) Failed() []sink.Result {
	return sink.Failed(s.Results)
}

// Reports runs the wine pipeline: load, enrich, aggregate, dispatch.
type Reports struct {
	// Source is the wine review CSV path.
	Source  string
	Options loader.Options

	// Reference resolves countries to continents. A nil fetcher, or one that
	// fails, leaves every row with the sentinel continent.
	Reference enrich.ReferenceFetcher

	Dispatcher *sink.Dispatcher
}

// Run executes the pipeline once. The returned error is non-nil only for
// failures that prevent any report from being built; individual sink failures
// are reported in Summary.Results.
func (p *Reports) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.FromContext(ctx)

	logger.Info("loading wine reviews", "path", p.Source)
	wines, load, err := loader.LoadDelimited(p.Source, core.MustGet(tables.Wines), p.Options)
	if err != nil {
		return summary, fmt.Errorf("load wines: %w", err)
	}
	summary.Load = load
	logLoad(ctx, load)

	ref := p.fetchReference(ctx)

	enriched, stats, err := EnrichWines(wines, ref)
	if err != nil {
		return summary, fmt.Errorf("enrich wines: %w", err)
	}
	summary.Join = stats
	logger.Info("wines enriched",
		"rows", stats.Rows,
		"matched", stats.Matched,
		"unmatched", stats.Unmatched,
		"reference_available", stats.ReferenceAvailable,
	)

	reports, err := report.BuildWineReports(enriched)
	if err != nil {
		return summary, fmt.Errorf("build reports: %w", err)
	}

	summary.Results = p.Dispatcher.Dispatch(ctx, reports)
	summary.Duration = time.Since(start)

	logger.Info("reports run finished",
		"reports", len(summary.Results),
		"failed", len(summary.Failed()),
		"duration", summary.Duration,
	)
	return summary, nil
}

func (p *Reports) fetchReference(ctx context.Context) *enrich.Reference {
	if p.Reference == nil {
		return nil
	}
	ref, err := p.Reference.FetchReference(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("continuing without reference table",
			"error", err,
			"code", core.ErrorCode(err),
		)
		return nil
	}
	return ref
}

// EnrichWines adds the quality and price categories, the points/price ratio
// and the continent looked up in ref (nil ref yields the sentinel everywhere).
func EnrichWines(t *core.Table, ref *enrich.Reference) (*core.Table, enrich.JoinStats, error) {
	t, err := enrich.ApplyBins(t, tables.ColPoints, tables.ColQuality, enrich.QualityBins)
	if err != nil {
		return nil, enrich.JoinStats{}, err
	}
	t, err = enrich.ApplyBins(t, tables.ColPrice, tables.ColPriceCategory, enrich.PriceBins)
	if err != nil {
		return nil, enrich.JoinStats{}, err
	}
	t, err = enrich.Ratio(t, tables.ColPoints, tables.ColPrice, tables.ColPointsRatio)
	if err != nil {
		return nil, enrich.JoinStats{}, err
	}
	return enrich.Join(t, tables.ColCountry, tables.ColContinent, ref)
}

func logLoad(ctx context.Context, load *core.LoadReport) {
	logger := logging.FromContext(ctx)
	logger.Info("source loaded",
		"source", load.Source,
		"total", load.TotalRows,
		"loaded", load.Loaded,
		"dropped", load.Dropped(),
		"discarded", load.Discarded,
	)
	for _, f := range load.FailedRows {
		logger.Debug("row dropped", "line", f.LineNumber, "code", core.ErrorCode(f.Err), "reason", f.Reason)
	}
}
