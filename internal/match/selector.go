package match

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/progress"
)

// Selector flags the best candidate in every search-term group.
type Selector struct {
	oracle   Oracle
	reporter progress.Reporter
}

// NewSelector creates a selector. A nil reporter discards progress.
func NewSelector(oracle Oracle, reporter progress.Reporter) *Selector {
	if reporter == nil {
		reporter = progress.Nop
	}
	return &Selector{oracle: oracle, reporter: reporter}
}

// SelectBestMatches returns a copy of table with IsBestMatch set on at most
// one record per search term, plus one UnmatchedRow for every term whose
// oracle answer did not name any of its candidates. Groups are visited in
// sorted term order.
func (s *Selector) SelectBestMatches(ctx context.Context, table model.Table) (model.Table, []model.UnmatchedRow, error) {
	out := slices.Clone(table)

	groups := make(map[string][]int)
	for i := range out {
		out[i].IsBestMatch = false
		groups[out[i].SearchTerm] = append(groups[out[i].SearchTerm], i)
	}
	terms := make([]string, 0, len(groups))
	for term := range groups {
		terms = append(terms, term)
	}
	slices.Sort(terms)

	s.emit(progress.SeverityInfo, "Starting the matching process...")

	var unmatched []model.UnmatchedRow
	for _, term := range terms {
		idx := groups[term]
		names := make([]string, len(idx))
		for j, i := range idx {
			names[j] = out[i].ItemName
		}

		decision, err := s.oracle.ChooseBestMatch(ctx, term, names)
		if err != nil {
			return nil, nil, err
		}

		chosen := -1
		if decision.Outcome == Matched {
			for _, i := range idx {
				if out[i].ItemName == decision.Name {
					chosen = i
					break
				}
			}
		}

		if chosen < 0 {
			first := out[idx[0]]
			unmatched = append(unmatched, model.UnmatchedRow{
				Code:       first.Code,
				SearchTerm: term,
				Cost:       first.Cost,
			})
			zap.L().Debug("match: no match",
				zap.String("term", term),
				zap.String("outcome", decision.Outcome.String()),
				zap.String("reply", decision.Name),
			)
			s.emit(progress.SeverityWarning, fmt.Sprintf("No Match: %s", term))
			continue
		}

		out[chosen].IsBestMatch = true
		s.emit(progress.SeveritySuccess, fmt.Sprintf("Match Found: %s", term))
	}

	s.emit(progress.SeverityInfo, "Match process complete!")
	return out, unmatched, nil
}

func (s *Selector) emit(sev progress.Severity, msg string) {
	progress.Emit(s.reporter, progress.PhaseMatching, sev, msg)
}
