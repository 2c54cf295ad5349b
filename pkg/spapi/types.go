package spapi

import "encoding/json"

// SearchResponse is the response from GET /catalog/2022-04-01/items.
type SearchResponse struct {
	NumberOfResults int    `json:"numberOfResults"`
	Items           []Item `json:"items"`
}

// Item is a single catalog listing. Only the facets used downstream are
// decoded; the rest of the payload is ignored.
type Item struct {
	ASIN       string                      `json:"asin"`
	Summaries  []Summary                   `json:"summaries"`
	Attributes map[string][]AttributeValue `json:"attributes"`
	Dimensions []Dimensions                `json:"dimensions"`
}

// Summary holds the marketplace-specific display data of a listing.
type Summary struct {
	MarketplaceID string `json:"marketplaceId"`
	ItemName      string `json:"itemName"`
	BrandName     string `json:"brandName,omitempty"`
}

// AttributeValue is one value of a catalog attribute. Values are numbers,
// strings or objects depending on the attribute.
type AttributeValue struct {
	MarketplaceID string          `json:"marketplace_id,omitempty"`
	Value         json.RawMessage `json:"value,omitempty"`
}

// Dimensions groups item and package dimensions for one marketplace.
type Dimensions struct {
	MarketplaceID string        `json:"marketplaceId"`
	Item          *DimensionSet `json:"item,omitempty"`
	Package       *DimensionSet `json:"package,omitempty"`
}

// DimensionSet holds the measured sides and weight; any of them may be absent.
type DimensionSet struct {
	Height *Dimension `json:"height,omitempty"`
	Length *Dimension `json:"length,omitempty"`
	Width  *Dimension `json:"width,omitempty"`
	Weight *Dimension `json:"weight,omitempty"`
}

// Dimension is a measured value with its unit (e.g. "inches", "pounds").
type Dimension struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// TokenResponse is the response from the LWA token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
