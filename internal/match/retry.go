package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/progress"
	"github.com/sells-group/asin-match/internal/search"
)

// Searcher runs catalog searches for a set of rows.
type Searcher interface {
	Run(ctx context.Context, rows []model.CatalogRow, query, label search.TermFunc) (model.Table, error)
}

// Retrier gives unmatched terms one more chance with a cleaned search term.
type Retrier struct {
	oracle   Oracle
	searcher Searcher
	selector *Selector
	reporter progress.Reporter
}

// NewRetrier creates a retrier. A nil reporter discards progress.
func NewRetrier(oracle Oracle, searcher Searcher, selector *Selector, reporter progress.Reporter) *Retrier {
	if reporter == nil {
		reporter = progress.Nop
	}
	return &Retrier{oracle: oracle, searcher: searcher, selector: selector, reporter: reporter}
}

// Retry cleans each unmatched term, searches again with the cleaned term while
// labeling records with the original term, and re-runs selection. It makes a
// single pass: the returned unmatched rows are not retried again.
func (r *Retrier) Retry(ctx context.Context, unmatched []model.UnmatchedRow) (model.Table, []model.UnmatchedRow, error) {
	if len(unmatched) == 0 {
		return nil, nil, nil
	}

	r.emit(progress.PhaseCleaning, progress.SeverityInfo, "Cleaning up search terms for unmatched items...")

	cleaned := make([]model.CatalogRow, len(unmatched))
	for i, row := range unmatched {
		term, err := r.oracle.CleanSearchTerm(ctx, row.SearchTerm)
		if err != nil {
			return nil, nil, err
		}
		row.CleanedSearchTerm = term
		cleaned[i] = row
		r.emit(progress.PhaseCleaning, progress.SeverityInfo,
			fmt.Sprintf("Original product: %s\nCleaned product: %s", row.SearchTerm, term))
	}
	r.emit(progress.PhaseCleaning, progress.SeverityInfo, "Cleaning up search terms complete!")

	table, err := r.searcher.Run(ctx, cleaned, search.ByCleanedTerm, search.BySearchTerm)
	if errors.Is(err, search.ErrEmptyResult) {
		r.emit(progress.PhaseSearching, progress.SeverityWarning, "Retry search found no candidates for any cleaned term")
		return nil, cleaned, nil
	}
	if err != nil {
		return nil, nil, err
	}

	matched, still, err := r.selector.SelectBestMatches(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	for _, row := range still {
		r.emit(progress.PhaseCleaning, progress.SeverityWarning, fmt.Sprintf("Still unmatched after cleanup: %s", row.SearchTerm))
	}
	return matched, stillUnmatched(matched, cleaned), nil
}

// stillUnmatched returns the cleaned rows whose term has no flagged record in
// table, in input order. This covers terms the retry search found nothing for
// as well as terms the oracle rejected again.
func stillUnmatched(table model.Table, cleaned []model.CatalogRow) []model.UnmatchedRow {
	var out []model.UnmatchedRow
	for _, row := range cleaned {
		if table.BestMatchCount(row.SearchTerm) == 0 {
			out = append(out, row)
		}
	}
	return out
}

func (r *Retrier) emit(phase progress.Phase, sev progress.Severity, msg string) {
	progress.Emit(r.reporter, phase, sev, msg)
}
