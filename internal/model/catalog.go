package model

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"
)

// NotAvailable is written in place of any attribute missing from a listing.
const NotAvailable = "N/A"

// CatalogRow is one product from the merchant's uploaded catalog.
type CatalogRow struct {
	SearchTerm string  `json:"search_term"`
	Cost       float64 `json:"cost"`
	Code       string  `json:"code,omitempty"` // UPC/EAN, may be empty

	// CleanedSearchTerm is set by the retry pass when the term is rewritten.
	CleanedSearchTerm string `json:"cleaned_search_term,omitempty"`
}

// UnmatchedRow is a catalog row whose candidate group had no confident match.
type UnmatchedRow = CatalogRow

// Measure is a numeric dimension or weight that may be absent from a listing.
type Measure struct {
	Value float64
	Valid bool
}

// MeasureOf returns a present Measure rounded to two decimals.
func MeasureOf(v float64) Measure {
	return Measure{Value: math.Round(v*100) / 100, Valid: true}
}

// String renders the value, or N/A when absent.
func (m Measure) String() string {
	if !m.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MarshalText implements encoding.TextMarshaler for CSV and JSON output.
func (m Measure) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Measure) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "" || s == NotAvailable {
		*m = Measure{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "model: parse measure %q", s)
	}
	*m = Measure{Value: v, Valid: true}
	return nil
}

// CandidateRecord is one catalog listing returned for a query.
//
// Code and SearchTerm always carry the values the query was issued for, not
// the identifiers found on the listing.
type CandidateRecord struct {
	ASIN            string  `csv:"asin" json:"asin"`
	Code            string  `csv:"ean" json:"ean"`
	SearchTerm      string  `csv:"search_term" json:"search_term"`
	ItemName        string  `csv:"item_name" json:"item_name"`
	Cost            float64 `csv:"cost" json:"cost"`
	PackageQuantity string  `csv:"package_quantity" json:"package_quantity"`
	Height          Measure `csv:"height" json:"height"` // cm
	Length          Measure `csv:"length" json:"length"` // cm
	Width           Measure `csv:"width" json:"width"`   // cm
	Weight          Measure `csv:"weight" json:"weight"` // kg

	IsBestMatch bool `csv:"-" json:"is_best_match"`
}

// Table is an ordered collection of candidate records.
type Table []CandidateRecord

// Terms returns the distinct search terms in first-seen order.
func (t Table) Terms() []string {
	seen := make(map[string]bool, len(t))
	var terms []string
	for _, r := range t {
		if seen[r.SearchTerm] {
			continue
		}
		seen[r.SearchTerm] = true
		terms = append(terms, r.SearchTerm)
	}
	return terms
}

// BestMatchCount returns how many records in the group for term are flagged.
func (t Table) BestMatchCount(term string) int {
	n := 0
	for _, r := range t {
		if r.SearchTerm == term && r.IsBestMatch {
			n++
		}
	}
	return n
}
