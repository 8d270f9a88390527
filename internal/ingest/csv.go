// Package ingest loads station and vehicle CSV exports into the database.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Record is one CSV row keyed by normalized column name. Every column of the
// file is present, possibly with an empty value.
type Record map[string]string

// Table is a fully read CSV file.
type Table struct {
	Columns  []string
	Records  []Record
	Encoding string
}

// Cell values treated as absent, the same set pandas reads as NaN.
var missingValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isMissing(v string) bool {
	_, ok := missingValues[strings.TrimSpace(v)]
	return ok
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8. Input that is not valid UTF-8 is read as
// Latin-1.
func decodeText(data []byte) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, "utf-8", nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("decoding latin-1: %w", err)
	}
	return decoded, "latin-1", nil
}

// NormalizeColumn maps a CSV header to a column key: lower case, accents
// folded, spaces and dashes replaced by underscores and parentheses removed.
func NormalizeColumn(name string) string {
	foldAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(foldAccents, strings.TrimSpace(name))
	if err != nil {
		folded = name
	}
	return strings.NewReplacer(" ", "_", "-", "_", "(", "", ")", "").Replace(strings.ToLower(folded))
}

// ReadCSV reads a whole CSV file with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data, encoding, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("reading csv: file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	t := &Table{Columns: make([]string, len(header)), Encoding: encoding}
	for i, h := range header {
		t.Columns[i] = NormalizeColumn(h)
	}

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		rec := make(Record, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(fields) {
				rec[col] = fields[i]
			} else {
				rec[col] = ""
			}
		}
		t.Records = append(t.Records, rec)
	}

	return t, nil
}

// hasColumn reports whether the table has the given normalized column.
func (t *Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// lookup returns the value of the first of keys that is a column of the
// record. Later keys are only consulted when earlier columns do not exist,
// not when their value is missing.
func (r Record) lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if isMissing(v) {
				return "", false
			}
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func (r Record) String(keys ...string) *string {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	return &v
}

// Float returns nil for absent, unparsable or non-finite values.
func (r Record) Float(keys ...string) *float64 {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Int accepts integral floats such as "2021.0".
func (r Record) Int(keys ...string) *int {
	f := r.Float(keys...)
	if f == nil || *f != float64(int(*f)) {
		return nil
	}
	i := int(*f)
	return &i
}

func (r Record) Bool(keys ...string) *bool {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	var b bool
	switch strings.ToLower(v) {
	case "true", "yes", "y", "1", "t":
		b = true
	case "false", "no", "n", "0", "f":
		b = false
	default:
		return nil
	}
	return &b
}
