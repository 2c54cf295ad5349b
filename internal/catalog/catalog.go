// Package catalog reads merchant catalog files and writes candidate tables.
package catalog

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/model"
)

// Default column headers.
const (
	DefaultProductColumn = "product"
	DefaultCostColumn    = "cost"
	DefaultCodeColumn    = "UPC/EAN"
)

// Columns names the header cells holding each catalog field.
type Columns struct {
	Product string
	Cost    string
	Code    string
}

func (c Columns) withDefaults() Columns {
	if c.Product == "" {
		c.Product = DefaultProductColumn
	}
	if c.Cost == "" {
		c.Cost = DefaultCostColumn
	}
	if c.Code == "" {
		c.Code = DefaultCodeColumn
	}
	return c
}

// Load reads a catalog from path, choosing the parser by file extension.
func Load(path string, cols Columns) ([]model.CatalogRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadXLSX(path, cols)
	case ".csv", ".txt", "":
		return LoadCSVFile(path, cols)
	default:
		return nil, eris.Errorf("catalog: unsupported file type %q", filepath.Ext(path))
	}
}

// parseRows maps a header row plus data rows onto catalog rows. Rows with a
// blank product are skipped. The product column is required; cost and code
// columns are optional.
func parseRows(header []string, rows [][]string, cols Columns) ([]model.CatalogRow, error) {
	cols = cols.withDefaults()

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}
	if _, ok := colIdx[cols.Product]; !ok {
		return nil, eris.Errorf("catalog: missing required column %q", cols.Product)
	}
	for _, col := range []string{cols.Cost, cols.Code} {
		if _, ok := colIdx[col]; !ok {
			zap.L().Warn("catalog: optional column missing", zap.String("column", col))
		}
	}

	out := make([]model.CatalogRow, 0, len(rows))
	for i, row := range rows {
		term := getCol(row, colIdx, cols.Product)
		if term == "" {
			continue
		}
		cost, err := parseCost(getCol(row, colIdx, cols.Cost))
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: row %d", i+2)
		}
		out = append(out, model.CatalogRow{
			SearchTerm: term,
			Cost:       cost,
			Code:       NormalizeCode(getCol(row, colIdx, cols.Code)),
		})
	}
	return out, nil
}

func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCost(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse cost %q", s)
	}
	return v, nil
}

// NormalizeCode cleans a UPC/EAN cell. Spreadsheet exports often turn codes
// into floats ("5012345678900.0", "5.0123456789e+12"); those are restored to
// digits. Blank and "nan" cells become empty, meaning no barcode search.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return ""
	}
	if strings.ContainsAny(s, ".eE") {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return s
}
