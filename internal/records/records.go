// Package records parses the tabular case dataset.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/casebars/internal/model"
)

// Policies for numeric fields that are missing or not numbers.
const (
	PolicyFail = "fail"
	PolicyZero = "zero"
)

// Default column names.
const (
	DefaultCountryColumn = "country_name"
	DefaultCasesColumn   = "cases"
	DefaultDeathsColumn  = "deaths"
)

// groupedNumber matches values written with thousands separators, e.g. 1,234.5.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ErrInvalidRecord marks a row whose cases or deaths value cannot be used.
var ErrInvalidRecord = errors.New("invalid record")

// InvalidRecordError describes the offending cell.
type InvalidRecordError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *InvalidRecordError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid record at line %d: missing %s", e.Line, e.Column)
	}
	return fmt.Sprintf("invalid record at line %d: %s=%q is not numeric", e.Line, e.Column, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidRecord.
func (e *InvalidRecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidRecord}
	}
	return []error{ErrInvalidRecord, e.Err}
}

// Options controls column mapping and invalid value handling.
type Options struct {
	CountryColumn string
	CasesColumn   string
	DeathsColumn  string
	OnInvalid     string
}

// Stats reports what happened while parsing.
type Stats struct {
	Rows    int
	Coerced int
}

// ValidatePolicy checks an invalid value policy name.
func ValidatePolicy(policy string) error {
	switch policy {
	case PolicyFail, PolicyZero:
		return nil
	default:
		return fmt.Errorf("unknown invalid-value policy %q (use %s or %s)", policy, PolicyFail, PolicyZero)
	}
}

func (o Options) withDefaults() Options {
	if o.CountryColumn == "" {
		o.CountryColumn = DefaultCountryColumn
	}
	if o.CasesColumn == "" {
		o.CasesColumn = DefaultCasesColumn
	}
	if o.DeathsColumn == "" {
		o.DeathsColumn = DefaultDeathsColumn
	}
	if o.OnInvalid == "" {
		o.OnInvalid = PolicyFail
	}
	return o
}

// Parse reads a header row followed by data rows. Extra columns are ignored.
func Parse(r io.Reader, opts Options) ([]model.RawRecord, Stats, error) {
	opts = opts.withDefaults()
	if err := ValidatePolicy(opts.OnInvalid); err != nil {
		return nil, Stats{}, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Stats{}, fmt.Errorf("dataset has no header row")
		}
		return nil, Stats{}, fmt.Errorf("failed to read header: %w", err)
	}
	index := headerIndex(header)
	countryIdx, err := columnIndex(index, opts.CountryColumn)
	if err != nil {
		return nil, Stats{}, err
	}
	casesIdx, err := columnIndex(index, opts.CasesColumn)
	if err != nil {
		return nil, Stats{}, err
	}
	deathsIdx, err := columnIndex(index, opts.DeathsColumn)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		out   []model.RawRecord
		stats Stats
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Stats{}, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}

		rec := model.RawRecord{CountryName: cell(row, countryIdx)}
		var coerced bool
		rec.Cases, coerced, err = numericCell(row, casesIdx, line, opts.CasesColumn, opts.OnInvalid)
		if err != nil {
			return nil, Stats{}, err
		}
		if coerced {
			stats.Coerced++
		}
		rec.Deaths, coerced, err = numericCell(row, deathsIdx, line, opts.DeathsColumn, opts.OnInvalid)
		if err != nil {
			return nil, Stats{}, err
		}
		if coerced {
			stats.Coerced++
		}
		out = append(out, rec)
		stats.Rows++
	}
	return out, stats, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return index
}

func columnIndex(index map[string]int, name string) (int, error) {
	idx, ok := index[name]
	if !ok {
		return 0, fmt.Errorf("dataset is missing required column %q", name)
	}
	return idx, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func numericCell(row []string, idx, line int, column, policy string) (float64, bool, error) {
	raw := strings.TrimSpace(cell(row, idx))
	value, err := parseNumber(raw)
	if err == nil {
		return value, false, nil
	}
	if policy == PolicyZero {
		return 0, true, nil
	}
	return 0, false, &InvalidRecordError{Line: line, Column: column, Value: raw, Err: err}
}

func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("empty value")
	}
	if strings.Contains(raw, ",") {
		if !groupedNumber.MatchString(raw) {
			return 0, errors.New("misplaced thousands separator")
		}
		raw = strings.ReplaceAll(raw, ",", "")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("not a finite number")
	}
	return value, nil
}
