package spapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
	"numberOfResults": 1,
	"items": [{
		"asin": "B000TEST01",
		"summaries": [{"marketplaceId": "ATVPDKIKX0DER", "itemName": "Widget"}],
		"attributes": {"item_package_quantity": [{"marketplace_id": "ATVPDKIKX0DER", "value": 2}]},
		"dimensions": [{
			"marketplaceId": "ATVPDKIKX0DER",
			"package": {
				"height": {"unit": "inches", "value": 10},
				"weight": {"unit": "pounds", "value": 1}
			}
		}]
	}]
}`

// newTestServer serves both the token and the search endpoints.
func newTestServer(t *testing.T, search http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/o2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET "+searchPath, search)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls
}

func newTestClient(srv *httptest.Server) Client {
	return NewClient(
		Credentials{RefreshToken: "rt", ClientID: "cid", ClientSecret: "secret"},
		WithEndpoint(srv.URL),
		WithTokenURL(srv.URL+"/auth/o2/token"),
	)
}

func TestSearchByKeyword(t *testing.T) {
	srv, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-123", r.Header.Get("x-amz-access-token"))
		q := r.URL.Query()
		assert.Equal(t, "ATVPDKIKX0DER", q.Get("marketplaceIds"))
		assert.Equal(t, "Widget 500ml", q.Get("keywords"))
		assert.Empty(t, q.Get("identifiers"))
		assert.Equal(t, "identifiers,images,summaries,salesRanks,attributes,dimensions", q.Get("includedData"))
		_, _ = w.Write([]byte(searchBody))
	})

	resp, err := newTestClient(srv).SearchByKeyword(context.Background(), "Widget 500ml")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.NumberOfResults)
	assert.Equal(t, "B000TEST01", resp.Items[0].ASIN)
	assert.Equal(t, "Widget", resp.Items[0].Summaries[0].ItemName)
	require.NotNil(t, resp.Items[0].Dimensions[0].Package)
	assert.InDelta(t, 10.0, resp.Items[0].Dimensions[0].Package.Height.Value, 1e-9)
	assert.Nil(t, resp.Items[0].Dimensions[0].Package.Width)
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestSearchByCode(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "5012345678900", q.Get("identifiers"))
		assert.Equal(t, "EAN", q.Get("identifiersType"))
		assert.Empty(t, q.Get("keywords"))
		_, _ = w.Write([]byte(`{"numberOfResults":0,"items":[]}`))
	})

	resp, err := newTestClient(srv).SearchByCode(context.Background(), "5012345678900")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.NumberOfResults)
	assert.Empty(t, resp.Items)
}

func TestSearch_ReauthenticatesEveryCall(t *testing.T) {
	srv, tokenCalls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"numberOfResults":0,"items":[]}`))
	})
	c := newTestClient(srv)

	for range 3 {
		_, err := c.SearchByKeyword(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), tokenCalls.Load())
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server_error", http.StatusInternalServerError, `{"errors":[]}`, "unexpected status 500"},
		{"throttled", http.StatusTooManyRequests, `{"errors":[{"code":"QuotaExceeded"}]}`, "QuotaExceeded"},
		{"malformed", http.StatusOK, `{not json`, "unmarshal search response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := newTestClient(srv).SearchByKeyword(context.Background(), "x")
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, int32(1), calls.Load(), "no retry at the client layer")
		})
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid_grant"}`},
		{"missing_token", http.StatusOK, `{"token_type":"bearer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Credentials{}, WithTokenURL(srv.URL), WithEndpoint(srv.URL))
			_, err := c.Authenticate(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAuth))

			_, err = c.SearchByKeyword(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAuth))
		})
	}
}

func TestWithMarketplaceID(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "A1F83G8C2ARO7P", r.URL.Query().Get("marketplaceIds"))
		_, _ = w.Write([]byte(`{"numberOfResults":0}`))
	})

	c := NewClient(
		Credentials{RefreshToken: "rt", ClientID: "cid", ClientSecret: "secret"},
		WithEndpoint(srv.URL+"/"),
		WithTokenURL(srv.URL+"/auth/o2/token"),
		WithMarketplaceID("A1F83G8C2ARO7P"),
	)
	_, err := c.SearchByKeyword(context.Background(), "x")
	require.NoError(t, err)
}

func TestContextCancellation(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"numberOfResults":0}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).SearchByKeyword(ctx, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient(Credentials{ClientID: "id"}).(*httpClient)
	assert.Equal(t, defaultEndpoint, c.endpoint)
	assert.Equal(t, defaultTokenURL, c.tokenURL)
	assert.Equal(t, defaultMarketplaceID, c.marketplaceID)
	assert.Equal(t, "id", c.creds.ClientID)
	assert.NotNil(t, c.http)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()
	hc := &http.Client{}
	c := NewClient(Credentials{}, WithHTTPClient(hc)).(*httpClient)
	assert.Same(t, hc, c.http)
}
