package search

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/pkg/spapi"
)

// DefaultMaxCandidates is how many listings are kept per query. Results past
// this are discarded.
const DefaultMaxCandidates = 3

const packageQuantityAttr = "item_package_quantity"

// Conversion factors to the output units (cm, kg).
const (
	inchesToCm = 2.54
	poundsToKg = 0.453592
	ouncesToKg = 0.0283495
	mmToCm     = 0.1
	gramsToKg  = 0.001
	cmToCm     = 1.0
	kgToKg     = 1.0
	metersToCm = 100.0
)

// Extractor flattens raw search results into candidate records.
type Extractor struct {
	MaxCandidates int
}

// Extract returns one record per listing for the first MaxCandidates items of
// resp. code, searchTerm and cost are copied from the query, never from the
// listing.
func (x Extractor) Extract(code, searchTerm string, cost float64, resp *spapi.SearchResponse) []model.CandidateRecord {
	if resp == nil {
		return nil
	}
	limit := x.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}

	items := resp.Items
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]model.CandidateRecord, 0, len(items))
	for _, item := range items {
		rec := model.CandidateRecord{
			ASIN:            item.ASIN,
			Code:            code,
			SearchTerm:      searchTerm,
			ItemName:        itemName(item),
			Cost:            cost,
			PackageQuantity: packageQuantity(item),
		}
		if pkg := packageDimensions(item); pkg != nil {
			rec.Height = length(pkg.Height)
			rec.Length = length(pkg.Length)
			rec.Width = length(pkg.Width)
			rec.Weight = weight(pkg.Weight)
		}
		out = append(out, rec)
	}
	return out
}

func itemName(item spapi.Item) string {
	if len(item.Summaries) == 0 {
		return ""
	}
	return item.Summaries[0].ItemName
}

func packageQuantity(item spapi.Item) string {
	values := item.Attributes[packageQuantityAttr]
	if len(values) == 0 || len(values[0].Value) == 0 {
		return model.NotAvailable
	}

	var v any
	if err := json.Unmarshal(values[0].Value, &v); err != nil {
		return model.NotAvailable
	}
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		if t == "" {
			return model.NotAvailable
		}
		return t
	case nil:
		return model.NotAvailable
	default:
		return string(values[0].Value)
	}
}

func packageDimensions(item spapi.Item) *spapi.DimensionSet {
	if len(item.Dimensions) == 0 {
		return nil
	}
	return item.Dimensions[0].Package
}

// length converts a side to centimeters. A missing unit is read as inches.
func length(d *spapi.Dimension) model.Measure {
	if d == nil {
		return model.Measure{}
	}
	factor := inchesToCm
	switch strings.ToLower(d.Unit) {
	case "centimeters", "centimetres", "cm":
		factor = cmToCm
	case "millimeters", "millimetres", "mm":
		factor = mmToCm
	case "meters", "metres", "m":
		factor = metersToCm
	}
	return model.MeasureOf(d.Value * factor)
}

// weight converts a weight to kilograms. A missing unit is read as pounds.
func weight(d *spapi.Dimension) model.Measure {
	if d == nil {
		return model.Measure{}
	}
	factor := poundsToKg
	switch strings.ToLower(d.Unit) {
	case "kilograms", "kg":
		factor = kgToKg
	case "grams", "g":
		factor = gramsToKg
	case "ounces", "oz":
		factor = ouncesToKg
	}
	return model.MeasureOf(d.Value * factor)
}
