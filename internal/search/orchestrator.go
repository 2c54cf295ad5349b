// Package search fans catalog rows out to keyword and barcode searches and
// collects the candidate listings.
package search

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/progress"
	"github.com/sells-group/asin-match/pkg/spapi"
)

// ErrEmptyResult is returned when no catalog row produced any candidate.
var ErrEmptyResult = eris.New("search: no candidate records")

// TermFunc picks a string out of a catalog row.
type TermFunc func(model.CatalogRow) string

// BySearchTerm uses the row's original search term.
func BySearchTerm(r model.CatalogRow) string { return r.SearchTerm }

// ByCleanedTerm uses the cleaned term, falling back to the original.
func ByCleanedTerm(r model.CatalogRow) string {
	if r.CleanedSearchTerm != "" {
		return r.CleanedSearchTerm
	}
	return r.SearchTerm
}

// Orchestrator runs the searches for a catalog, one query at a time.
type Orchestrator struct {
	client    spapi.Client
	pacer     Pacer
	extractor Extractor
	reporter  progress.Reporter
}

// NewOrchestrator creates an orchestrator. A nil pacer disables pacing and a
// nil reporter discards progress.
func NewOrchestrator(client spapi.Client, pacer Pacer, maxCandidates int, reporter progress.Reporter) *Orchestrator {
	if pacer == nil {
		pacer = NewRatePacer(0)
	}
	if reporter == nil {
		reporter = progress.Nop
	}
	return &Orchestrator{
		client:    client,
		pacer:     pacer,
		extractor: Extractor{MaxCandidates: maxCandidates},
		reporter:  reporter,
	}
}

// Run searches every row in order: a keyword search with query(row) and, when
// the row has a code, a barcode search. Records are labeled with label(row).
// Transport errors abort the run.
func (o *Orchestrator) Run(ctx context.Context, rows []model.CatalogRow, query, label TermFunc) (model.Table, error) {
	if query == nil {
		query = BySearchTerm
	}
	if label == nil {
		label = BySearchTerm
	}

	o.emit(progress.SeverityInfo, "Starting the search on Amazon...")

	var table model.Table
	for i, row := range rows {
		term := query(row)
		name := label(row)

		o.emit(progress.SeverityInfo, fmt.Sprintf("Searching for Product: %s", term))
		if err := o.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := o.client.SearchByKeyword(ctx, term)
		if err != nil {
			return nil, eris.Wrapf(err, "search: keyword search row %d", i)
		}
		if resp.NumberOfResults == 0 || len(resp.Items) == 0 {
			o.emit(progress.SeverityWarning, fmt.Sprintf("No results found for %s", term))
		} else {
			o.emit(progress.SeveritySuccess, fmt.Sprintf("Found result(s) for %s", term))
			table = append(table, o.extractor.Extract(row.Code, name, row.Cost, resp)...)
		}

		if row.Code == "" {
			continue
		}

		o.emit(progress.SeverityInfo, fmt.Sprintf("Searching for UPC/EAN: %s", row.Code))
		if err := o.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err = o.client.SearchByCode(ctx, row.Code)
		if err != nil {
			return nil, eris.Wrapf(err, "search: code search row %d", i)
		}
		if resp.NumberOfResults == 0 || len(resp.Items) == 0 {
			o.emit(progress.SeverityWarning, fmt.Sprintf("No results found for %s", row.Code))
			continue
		}
		o.emit(progress.SeveritySuccess, fmt.Sprintf("Found result(s) for %s", row.Code))
		table = append(table, o.extractor.Extract(row.Code, name, row.Cost, resp)...)
	}

	zap.L().Debug("search: complete",
		zap.Int("rows", len(rows)),
		zap.Int("records", len(table)),
	)

	if len(table) == 0 {
		o.emit(progress.SeverityError, "Amazon search returned no results for any product")
		return nil, ErrEmptyResult
	}

	o.emit(progress.SeverityInfo, "Amazon search complete!")
	return table, nil
}

func (o *Orchestrator) emit(sev progress.Severity, msg string) {
	progress.Emit(o.reporter, progress.PhaseSearching, sev, msg)
}
