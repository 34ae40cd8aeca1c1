package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tabular/internal/core"
	"github.com/JonMunkholm/tabular/internal/core/tables"
	"github.com/JonMunkholm/tabular/internal/loader"
	"github.com/JonMunkholm/tabular/internal/logging"
	"github.com/JonMunkholm/tabular/internal/report"
	"github.com/JonMunkholm/tabular/internal/sink"
)

// Synthetic video columns.
const (
	ColAge      = "age"
	ColCategory = "category"
)

// VideoCategories are the synthetic category labels.
var VideoCategories = []string{"Music", "Sports", "Education", "Comedy", "News"}

// Synthetic age range in days, inclusive.
const (
	MinAge = 100
	MaxAge = 4999
)

// FallbackRows is how many rows are exported when no row matches the filter.
const FallbackRows = 5

// Locator returns the local path of a data file with the given extension,
// fetching it first if needed. source.Archive implements it.
type Locator interface {
	Fetch(ctx context.Context, ext string) (string, error)
}

// Videos runs the video export: fetch, parse, shape, filter, dispatch.
type Videos struct {
	Source Locator

	// Collection is the report name the exported table is dispatched under.
	Collection string

	// Categories is the export filter.
	Categories []string

	// Seed drives the synthetic attributes; 0 picks a time-based seed.
	Seed int64

	Dispatcher *sink.Dispatcher
}

// Run executes the export once.
func (p *Videos) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.FromContext(ctx)

	path, err := p.Source.Fetch(ctx, ".txt")
	if err != nil {
		return summary, fmt.Errorf("locate video data: %w", err)
	}

	videos, load, err := loader.LoadFlatFile(path, core.MustGet(tables.Videos))
	if err != nil {
		return summary, fmt.Errorf("load videos: %w", err)
	}
	summary.Load = load
	logLoad(ctx, load)

	rng := newRand(p.Seed)
	shaped, err := ShapeVideos(videos, rng)
	if err != nil {
		return summary, fmt.Errorf("shape videos: %w", err)
	}

	export, fallback, err := FilterCategories(shaped, p.Categories, rng)
	if err != nil {
		return summary, fmt.Errorf("filter videos: %w", err)
	}
	logger.Info("videos selected",
		"rows", export.Len(),
		"categories", p.Categories,
		"fallback", fallback,
	)

	summary.Results = p.Dispatcher.Dispatch(ctx, []report.Report{{Name: p.Collection, Table: export}})
	summary.Duration = time.Since(start)

	logger.Info("videos run finished",
		"failed", len(summary.Failed()),
		"duration", summary.Duration,
	)
	return summary, nil
}

func newRand(seed int64) *rand.Rand {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s>>1|1))
}

// ShapeVideos appends a synthetic age (MinAge..MaxAge days) and a category
// drawn uniformly from VideoCategories to every row.
func ShapeVideos(t *core.Table, rng *rand.Rand) (*core.Table, error) {
	ages := make([]any, t.Len())
	cats := make([]any, t.Len())
	for i := range ages {
		ages[i] = int64(MinAge + rng.IntN(MaxAge-MinAge+1))
		cats[i] = VideoCategories[rng.IntN(len(VideoCategories))]
	}

	t, err := t.WithColumn(core.Column{Name: ColAge, Type: core.ColumnInteger}, ages)
	if err != nil {
		return nil, err
	}
	return t.WithColumn(core.Column{Name: ColCategory, Type: core.ColumnCategorical, Levels: VideoCategories}, cats)
}

// FilterCategories keeps the rows whose category is in categories. When none
// match, the first FallbackRows rows are returned instead, relabelled with
// categories drawn from the filter set, and fallback is true.
func FilterCategories(t *core.Table, categories []string, rng *rand.Rand) (out *core.Table, fallback bool, err error) {
	if len(categories) == 0 {
		return nil, false, fmt.Errorf("no categories to filter by")
	}
	idx, ok := t.ColumnIndex(ColCategory)
	if !ok {
		return nil, false, fmt.Errorf("table %q: column not found: %s", t.Name, ColCategory)
	}

	out = t.Filter(func(_ int, row core.Row) bool {
		c, ok := row[idx].(string)
		return ok && slices.Contains(categories, c)
	})
	if out.Len() > 0 {
		return out, false, nil
	}

	out = t.Head(FallbackRows)
	for _, row := range out.Rows {
		row[idx] = categories[rng.IntN(len(categories))]
	}
	return out, true, nil
}
