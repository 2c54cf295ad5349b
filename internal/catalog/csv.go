package catalog

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/asin-match/internal/model"
)

// LoadCSVFile reads a CSV catalog from disk.
func LoadCSVFile(path string, cols Columns) ([]model.CatalogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open csv")
	}
	defer f.Close() //nolint:errcheck

	return LoadCSV(f, cols)
}

// LoadCSV reads a UTF-8 CSV catalog with a header row. A leading byte order
// mark is stripped.
func LoadCSV(r io.Reader, cols Columns) ([]model.CatalogRow, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("catalog: csv has no header row")
	}
	return parseRows(records[0], records[1:], cols)
}

// WriteTableFile writes table to path as CSV, creating or truncating it.
func WriteTableFile(path string, table model.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "catalog: create output file")
	}
	if err := WriteTable(f, table); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrap(f.Close(), "catalog: close output file")
}

// WriteTable writes table as CSV with a header row. The best-match flag is
// not written. An empty table produces just the header.
func WriteTable(w io.Writer, table model.Table) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(table) == 0 {
		if err := enc.EncodeHeader(model.CandidateRecord{}); err != nil {
			return eris.Wrap(err, "catalog: encode header")
		}
	}
	for i := range table {
		if err := enc.Encode(table[i]); err != nil {
			return eris.Wrapf(err, "catalog: encode record %d", i)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "catalog: flush csv")
}

// ReadTable parses a CSV previously written by WriteTable.
func ReadTable(r io.Reader) (model.Table, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read table header")
	}

	var table model.Table
	for {
		var rec model.CandidateRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "catalog: decode record")
		}
		table = append(table, rec)
	}
	return table, nil
}
