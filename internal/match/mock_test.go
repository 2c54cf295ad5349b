package match

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/search"
)

// --- Oracle mock ---

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) ChooseBestMatch(ctx context.Context, term string, candidates []string) (Decision, error) {
	args := m.Called(ctx, term, candidates)
	return args.Get(0).(Decision), args.Error(1)
}

func (m *mockOracle) CleanSearchTerm(ctx context.Context, term string) (string, error) {
	args := m.Called(ctx, term)
	return args.String(0), args.Error(1)
}

// --- Completer mock ---

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

// --- Searcher mock ---

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Run(ctx context.Context, rows []model.CatalogRow, query, label search.TermFunc) (model.Table, error) {
	args := m.Called(ctx, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Table), args.Error(1)
}

// --- fixtures ---

func rec(term, asin, name string) model.CandidateRecord {
	return model.CandidateRecord{ASIN: asin, SearchTerm: term, ItemName: name, PackageQuantity: model.NotAvailable}
}
