// Package pipeline drives one catalog through search, selection, cleanup
// retry, and export.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/catalog"
	"github.com/sells-group/asin-match/internal/match"
	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/progress"
)

// Default output file names.
const (
	DefaultIntermediateFile = "products_with_amazon_searches.csv"
	DefaultFinalFile        = "products_matched.csv"
)

// Output says where a run writes its tables. An empty Dir disables writing.
type Output struct {
	Dir              string
	IntermediateFile string
	FinalFile        string
}

func (o Output) path(name, fallback string) string {
	if o.Dir == "" {
		return ""
	}
	if name == "" {
		name = fallback
	}
	return filepath.Join(o.Dir, name)
}

// Result is everything a run produced.
type Result struct {
	Summary   model.RunSummary
	Final     model.Table
	Unmatched []model.UnmatchedRow
}

// Runner wires the stages together.
type Runner struct {
	searcher match.Searcher
	selector *match.Selector
	retrier  *match.Retrier
	output   Output
	reporter progress.Reporter
	onStatus func(model.RunStatus)
}

// Option configures a Runner.
type Option func(*Runner)

// WithReporter sends progress events to r.
func WithReporter(r progress.Reporter) Option {
	return func(rn *Runner) { rn.reporter = r }
}

// WithStatusFunc is called as the run moves between stages.
func WithStatusFunc(fn func(model.RunStatus)) Option {
	return func(rn *Runner) { rn.onStatus = fn }
}

// New creates a runner. The selector and retrier share the given oracle.
func New(searcher match.Searcher, oracle match.Oracle, out Output, opts ...Option) *Runner {
	rn := &Runner{searcher: searcher, output: out, reporter: progress.Nop}
	for _, o := range opts {
		o(rn)
	}
	rn.selector = match.NewSelector(oracle, rn.reporter)
	rn.retrier = match.NewRetrier(oracle, searcher, rn.selector, rn.reporter)
	return rn
}

// Run processes rows end to end. Transport and oracle errors abort the run.
// An empty first-pass search returns an error wrapping search.ErrEmptyResult.
func (rn *Runner) Run(ctx context.Context, rows []model.CatalogRow) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.Int("rows", len(rows)))
	log.Info("pipeline: starting run")

	rn.status(model.RunStatusSearching)
	table, err := rn.searcher.Run(ctx, rows, nil, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: search")
	}

	intermediate := rn.output.path(rn.output.IntermediateFile, DefaultIntermediateFile)
	if err := rn.write(intermediate, table); err != nil {
		return nil, err
	}

	rn.status(model.RunStatusMatching)
	matched, unmatched, err := rn.selector.SelectBestMatches(ctx, table)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: select best matches")
	}

	var still []model.UnmatchedRow
	if len(unmatched) > 0 {
		rn.status(model.RunStatusCleaning)
		retried, rest, err := rn.retrier.Retry(ctx, unmatched)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: retry unmatched")
		}
		matched = append(matched, retried...)
		still = rest
	}

	final := Finalize(matched)
	finalPath := rn.output.path(rn.output.FinalFile, DefaultFinalFile)
	if err := rn.write(finalPath, final); err != nil {
		return nil, err
	}

	res := &Result{
		Final:     final,
		Unmatched: still,
		Summary: model.RunSummary{
			CatalogRows:      len(rows),
			CandidateRecords: len(matched),
			Matched:          len(final),
			RetriedTerms:     len(unmatched),
			IntermediatePath: intermediate,
			FinalPath:        finalPath,
			Duration:         time.Since(start),
		},
	}
	for _, u := range still {
		res.Summary.Unmatched = append(res.Summary.Unmatched, u.SearchTerm)
	}

	log.Info("pipeline: run complete",
		zap.Int("candidates", res.Summary.CandidateRecords),
		zap.Int("matched", res.Summary.Matched),
		zap.Int("unmatched", len(still)),
		zap.Duration("duration", res.Summary.Duration),
	)
	return res, nil
}

// Finalize keeps the flagged record of every search term. When a term has
// more than one flagged record (first pass and retry both matched), the
// first one wins. The flag itself is not part of the exported columns.
func Finalize(table model.Table) model.Table {
	seen := make(map[string]bool)
	var out model.Table
	for _, r := range table {
		if !r.IsBestMatch || seen[r.SearchTerm] {
			continue
		}
		seen[r.SearchTerm] = true
		out = append(out, r)
	}
	return out
}

func (rn *Runner) write(path string, table model.Table) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "pipeline: create output dir")
	}
	if err := catalog.WriteTableFile(path, table); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", filepath.Base(path))
	}
	progress.Emit(rn.reporter, progress.PhaseExport, progress.SeverityInfo,
		fmt.Sprintf("Saved %d records to %s", len(table), path))
	return nil
}

func (rn *Runner) status(s model.RunStatus) {
	if rn.onStatus != nil {
		rn.onStatus(s)
	}
}
