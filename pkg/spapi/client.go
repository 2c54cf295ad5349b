// Package spapi provides a client for the Amazon Selling Partner Catalog Items API.
package spapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultEndpoint      = "https://sellingpartnerapi-na.amazon.com"
	defaultTokenURL      = "https://api.amazon.com/auth/o2/token"
	defaultMarketplaceID = "ATVPDKIKX0DER" // amazon.com

	searchPath = "/catalog/2022-04-01/items"
)

// IncludedData lists the data facets requested on every search.
var IncludedData = []string{"identifiers", "images", "summaries", "salesRanks", "attributes", "dimensions"}

// ErrAuth is returned when the token exchange fails.
var ErrAuth = eris.New("spapi: authentication failed")

// Client searches the catalog. Every call exchanges the refresh token for a
// fresh access token; nothing is cached between calls.
type Client interface {
	Authenticate(ctx context.Context) (string, error)
	SearchByKeyword(ctx context.Context, keyword string) (*SearchResponse, error)
	SearchByCode(ctx context.Context, code string) (*SearchResponse, error)
}

// Credentials are the long-lived Login with Amazon app credentials.
type Credentials struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// Option configures the client.
type Option func(*httpClient)

// WithEndpoint overrides the regional SP-API endpoint.
func WithEndpoint(u string) Option {
	return func(c *httpClient) {
		c.endpoint = strings.TrimRight(u, "/")
	}
}

// WithTokenURL overrides the LWA token endpoint.
func WithTokenURL(u string) Option {
	return func(c *httpClient) {
		c.tokenURL = u
	}
}

// WithMarketplaceID overrides the marketplace searched.
func WithMarketplaceID(id string) Option {
	return func(c *httpClient) {
		c.marketplaceID = id
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	creds         Credentials
	endpoint      string
	tokenURL      string
	marketplaceID string
	http          *http.Client
}

// NewClient creates a catalog client for the given credentials.
func NewClient(creds Credentials, opts ...Option) Client {
	c := &httpClient{
		creds:         creds,
		endpoint:      defaultEndpoint,
		tokenURL:      defaultTokenURL,
		marketplaceID: defaultMarketplaceID,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Authenticate(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.creds.RefreshToken},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "spapi: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(req)
	if err != nil {
		return "", eris.Wrap(err, "spapi: send token request")
	}
	if status < 200 || status > 299 {
		return "", eris.Wrapf(ErrAuth, "token endpoint returned %d: %s", status, string(body))
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", eris.Wrap(err, "spapi: unmarshal token response")
	}
	if tok.AccessToken == "" {
		return "", eris.Wrap(ErrAuth, "token response has no access_token")
	}
	return tok.AccessToken, nil
}

func (c *httpClient) SearchByKeyword(ctx context.Context, keyword string) (*SearchResponse, error) {
	params := c.baseParams()
	params.Set("keywords", keyword)
	return c.search(ctx, params)
}

func (c *httpClient) SearchByCode(ctx context.Context, code string) (*SearchResponse, error) {
	params := c.baseParams()
	params.Set("identifiers", code)
	params.Set("identifiersType", "EAN")
	return c.search(ctx, params)
}

func (c *httpClient) baseParams() url.Values {
	return url.Values{
		"marketplaceIds": {c.marketplaceID},
		"includedData":   {strings.Join(IncludedData, ",")},
	}
}

func (c *httpClient) search(ctx context.Context, params url.Values) (*SearchResponse, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "spapi: create search request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-amz-access-token", token)

	body, status, err := c.do(req)
	if err != nil {
		return nil, eris.Wrap(err, "spapi: send search request")
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("spapi: unexpected status %d: %s", status, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "spapi: unmarshal search response")
	}
	return &result, nil
}

func (c *httpClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "read body")
	}
	return body, resp.StatusCode, nil
}
