package search

import (
	"context"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/asin-match/pkg/spapi"
)

// --- Catalog client mock ---

type mockCatalogClient struct {
	mock.Mock
}

func (m *mockCatalogClient) Authenticate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockCatalogClient) SearchByKeyword(ctx context.Context, keyword string) (*spapi.SearchResponse, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spapi.SearchResponse), args.Error(1)
}

func (m *mockCatalogClient) SearchByCode(ctx context.Context, code string) (*spapi.SearchResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spapi.SearchResponse), args.Error(1)
}

// countingPacer records how many queries were gated.
type countingPacer struct {
	calls atomic.Int32
	err   error
}

func (p *countingPacer) Wait(context.Context) error {
	p.calls.Add(1)
	return p.err
}

// --- fixtures ---

func listing(asin, name string) spapi.Item {
	return spapi.Item{
		ASIN:      asin,
		Summaries: []spapi.Summary{{MarketplaceID: "ATVPDKIKX0DER", ItemName: name}},
	}
}

func results(items ...spapi.Item) *spapi.SearchResponse {
	return &spapi.SearchResponse{NumberOfResults: len(items), Items: items}
}

func noResults() *spapi.SearchResponse {
	return &spapi.SearchResponse{}
}
