// Package sink persists report tables to their destinations.
//
// Every Sink has replace semantics: after a successful Write the destination
// holds exactly the rows of the written table and nothing from earlier runs.
// The Dispatcher routes reports to sinks by name and keeps going when one
// destination fails.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/tabular/internal/core"
	"github.com/JonMunkholm/tabular/internal/logging"
	"github.com/JonMunkholm/tabular/internal/report"
)

// Sink writes one table to one destination, replacing its previous contents.
type Sink interface {
	Write(ctx context.Context, t *core.Table) error

	// Target describes the destination for logs and summaries.
	Target() string
}

// Result is the outcome of writing one report.
type Result struct {
	Report   string
	Target   string
	Rows     int
	Duration time.Duration
	Err      error
}

// OK reports whether the write succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Dispatcher routes reports to sinks by report name.
type Dispatcher struct {
	routes  map[string]Sink
	timeout time.Duration
}

// NewDispatcher creates a dispatcher applying timeout to every write.
// A zero timeout leaves writes bounded only by the caller's context.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		routes:  make(map[string]Sink),
		timeout: timeout,
	}
}

// Route sends the report called name to s, replacing any earlier route.
func (d *Dispatcher) Route(name string, s Sink) *Dispatcher {
	d.routes[name] = s
	return d
}

// Dispatch writes every report to its sink, in order, and returns one result
// per report. A failing write is recorded and the remaining reports are
// still written.
func (d *Dispatcher) Dispatch(ctx context.Context, reports []report.Report) []Result {
	results := make([]Result, 0, len(reports))
	for _, r := range reports {
		results = append(results, d.write(ctx, r))
	}
	return results
}

func (d *Dispatcher) write(ctx context.Context, r report.Report) Result {
	res := Result{Report: r.Name, Rows: r.Table.Len()}

	s, ok := d.routes[r.Name]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", core.ErrNoRoute, r.Name)
		logging.WithFields(ctx, "report", r.Name).Error("report not written", "error", res.Err)
		return res
	}
	res.Target = s.Target()
	logger := logging.WithFields(ctx, "report", r.Name, "target", res.Target)

	writeCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.Write(writeCtx, r.Table); err != nil {
		res.Err = fmt.Errorf("write %s to %s: %w", r.Name, res.Target, err)
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		logger.Error("report not written",
			"error", res.Err,
			"code", core.ErrorCode(res.Err),
		)
		return res
	}
	logger.Info("report written", "rows", res.Rows, "duration", res.Duration)
	return res
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
