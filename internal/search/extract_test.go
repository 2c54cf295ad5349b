package search

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/pkg/spapi"
)

func TestExtract_CapsAtThree(t *testing.T) {
	t.Parallel()

	for _, n := range []int{3, 4, 10} {
		t.Run(fmt.Sprintf("%d_items", n), func(t *testing.T) {
			t.Parallel()
			var items []spapi.Item
			for i := range n {
				items = append(items, listing(fmt.Sprintf("B%03d", i), fmt.Sprintf("Item %d", i)))
			}

			recs := Extractor{}.Extract("", "term", 1, results(items...))
			require.Len(t, recs, 3)
			assert.Equal(t, "B000", recs[0].ASIN)
			assert.Equal(t, "B002", recs[2].ASIN)
		})
	}
}

func TestExtract_FewerThanCap(t *testing.T) {
	t.Parallel()
	recs := Extractor{MaxCandidates: 3}.Extract("", "term", 1, results(listing("B1", "One")))
	assert.Len(t, recs, 1)
}

func TestExtract_CustomCap(t *testing.T) {
	t.Parallel()
	recs := Extractor{MaxCandidates: 1}.Extract("", "term", 1, results(listing("B1", "One"), listing("B2", "Two")))
	require.Len(t, recs, 1)
	assert.Equal(t, "B1", recs[0].ASIN)
}

func TestExtract_NilResponse(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Extractor{}.Extract("", "term", 1, nil))
}

func TestExtract_CopiesQueryFields(t *testing.T) {
	t.Parallel()
	recs := Extractor{}.Extract("5012345678900", "Widget 500ml", 9.99, results(listing("B1", "Widget")))
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "B1", rec.ASIN)
	assert.Equal(t, "5012345678900", rec.Code)
	assert.Equal(t, "Widget 500ml", rec.SearchTerm)
	assert.Equal(t, "Widget", rec.ItemName)
	assert.InDelta(t, 9.99, rec.Cost, 1e-9)
	assert.False(t, rec.IsBestMatch)
}

func TestExtract_UnitConversion(t *testing.T) {
	t.Parallel()
	item := listing("B1", "Widget")
	item.Dimensions = []spapi.Dimensions{{
		Package: &spapi.DimensionSet{
			Height: &spapi.Dimension{Unit: "inches", Value: 10},
			Length: &spapi.Dimension{Unit: "inches", Value: 3},
			Width:  &spapi.Dimension{Value: 1.5},
			Weight: &spapi.Dimension{Unit: "pounds", Value: 1},
		},
	}}

	rec := Extractor{}.Extract("", "t", 0, results(item))[0]
	assert.Equal(t, model.MeasureOf(25.4), rec.Height)
	assert.Equal(t, model.MeasureOf(7.62), rec.Length)
	assert.Equal(t, model.MeasureOf(3.81), rec.Width)
	assert.Equal(t, model.MeasureOf(0.45), rec.Weight)
	assert.Equal(t, "25.4", rec.Height.String())
	assert.Equal(t, "0.45", rec.Weight.String())
}

func TestExtract_MetricUnits(t *testing.T) {
	t.Parallel()
	item := listing("B1", "Widget")
	item.Dimensions = []spapi.Dimensions{{
		Package: &spapi.DimensionSet{
			Height: &spapi.Dimension{Unit: "centimeters", Value: 12},
			Length: &spapi.Dimension{Unit: "millimeters", Value: 55},
			Weight: &spapi.Dimension{Unit: "grams", Value: 250},
		},
	}}

	rec := Extractor{}.Extract("", "t", 0, results(item))[0]
	assert.InDelta(t, 12.0, rec.Height.Value, 1e-9)
	assert.InDelta(t, 5.5, rec.Length.Value, 1e-9)
	assert.InDelta(t, 0.25, rec.Weight.Value, 1e-9)
	assert.False(t, rec.Width.Valid)
}

func TestExtract_MissingPackage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dims []spapi.Dimensions
	}{
		{"no_dimensions", nil},
		{"no_package", []spapi.Dimensions{{Item: &spapi.DimensionSet{Height: &spapi.Dimension{Value: 4}}}}},
		{"empty_package", []spapi.Dimensions{{Package: &spapi.DimensionSet{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			item := listing("B1", "Widget")
			item.Dimensions = tt.dims

			rec := Extractor{}.Extract("", "t", 0, results(item))[0]
			for _, m := range []model.Measure{rec.Height, rec.Length, rec.Width, rec.Weight} {
				assert.False(t, m.Valid)
				assert.Equal(t, "N/A", m.String())
			}
		})
	}
}

func TestExtract_PartialPackage(t *testing.T) {
	t.Parallel()
	item := listing("B1", "Widget")
	item.Dimensions = []spapi.Dimensions{{
		Package: &spapi.DimensionSet{Height: &spapi.Dimension{Unit: "inches", Value: 2}},
	}}

	rec := Extractor{}.Extract("", "t", 0, results(item))[0]
	assert.True(t, rec.Height.Valid)
	assert.InDelta(t, 5.08, rec.Height.Value, 1e-9)
	assert.Equal(t, "N/A", rec.Length.String())
	assert.Equal(t, "N/A", rec.Width.String())
	assert.Equal(t, "N/A", rec.Weight.String())
}

func TestExtract_OnlyFirstDimensionEntry(t *testing.T) {
	t.Parallel()
	item := listing("B1", "Widget")
	item.Dimensions = []spapi.Dimensions{
		{MarketplaceID: "first"},
		{MarketplaceID: "second", Package: &spapi.DimensionSet{Height: &spapi.Dimension{Value: 1}}},
	}

	rec := Extractor{}.Extract("", "t", 0, results(item))[0]
	assert.False(t, rec.Height.Valid)
}

func TestExtract_PackageQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		attrs map[string][]spapi.AttributeValue
		want  string
	}{
		{"absent", nil, "N/A"},
		{"empty_list", map[string][]spapi.AttributeValue{"item_package_quantity": {}}, "N/A"},
		{"number", map[string][]spapi.AttributeValue{"item_package_quantity": {{Value: json.RawMessage(`6`)}}}, "6"},
		{"string", map[string][]spapi.AttributeValue{"item_package_quantity": {{Value: json.RawMessage(`"12"`)}}}, "12"},
		{"null", map[string][]spapi.AttributeValue{"item_package_quantity": {{Value: json.RawMessage(`null`)}}}, "N/A"},
		{"no_value", map[string][]spapi.AttributeValue{"item_package_quantity": {{MarketplaceID: "x"}}}, "N/A"},
		{"first_wins", map[string][]spapi.AttributeValue{"item_package_quantity": {
			{Value: json.RawMessage(`2`)}, {Value: json.RawMessage(`4`)},
		}}, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			item := listing("B1", "Widget")
			item.Attributes = tt.attrs
			rec := Extractor{}.Extract("", "t", 0, results(item))[0]
			assert.Equal(t, tt.want, rec.PackageQuantity)
		})
	}
}

func TestExtract_MissingSummary(t *testing.T) {
	t.Parallel()
	rec := Extractor{}.Extract("", "t", 0, results(spapi.Item{ASIN: "B1"}))[0]
	assert.Equal(t, "", rec.ItemName)
	assert.Equal(t, "N/A", rec.PackageQuantity)
}
