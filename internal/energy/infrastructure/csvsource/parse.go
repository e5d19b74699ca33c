package csvsource

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

const (
	colRegionCode  = "code_insee_region"
	colRegionName  = "libelle_region"
	colTimestamp   = "date_heure"
	colDate        = "date"
	colConsumption = "consommation"
	colExchange    = "ech_physiques"
)

var (
	ErrMissingColumn    = errors.New("csvsource: missing required column")
	ErrInvalidTimestamp = errors.New("csvsource: invalid timestamp")
	ErrInvalidNumber    = errors.New("csvsource: invalid number")
	ErrEmptyInput       = errors.New("csvsource: empty input")
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Placeholders the publisher uses for missing measurements.
var missingValues = map[string]struct{}{
	"":    {},
	"ND":  {},
	"-":   {},
	"NaN": {},
	"nan": {},
}

type columns struct {
	code        int
	name        int
	timestamp   int
	date        int
	consumption int
	exchange    int
	sources     [6]int
}

// Parse reads hourly observations from a `;` or `,` delimited éCO2mix export.
// The delimiter is detected from the header line. Extra columns are ignored.
func Parse(r io.Reader) ([]dataset.Observation, error) {
	br := bufio.NewReader(r)
	delimiter, err := detectDelimiter(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("csvsource: read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []dataset.Observation
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvsource: read: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}
		row, err := parseRow(record, cols, delimiter == ';')
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func detectDelimiter(br *bufio.Reader) (rune, error) {
	first, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, fmt.Errorf("csvsource: read header: %w", err)
	}
	if len(first) == 0 {
		return 0, ErrEmptyInput
	}
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if bytes.Count(first, []byte{';'}) > bytes.Count(first, []byte{','}) {
		return ';', nil
	}
	return ',', nil
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	cols := columns{
		code:        lookup(colRegionCode),
		name:        lookup(colRegionName),
		timestamp:   lookup(colTimestamp),
		consumption: lookup(colConsumption),
		exchange:    lookup(colExchange),
		date:        -1,
	}
	for i, src := range dataset.Sources() {
		cols.sources[i] = lookup(string(src))
	}
	if i, ok := index[colDate]; ok {
		cols.date = i
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(record []string, cols columns, decimalComma bool) (dataset.Observation, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ts, err := parseTimestamp(field(cols.timestamp))
	if err != nil {
		return dataset.Observation{}, err
	}
	row := dataset.Observation{
		RegionCode: field(cols.code),
		RegionName: field(cols.name),
		Timestamp:  ts,
	}
	if raw := field(cols.date); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return dataset.Observation{}, fmt.Errorf("%w: date %q", ErrInvalidTimestamp, raw)
		}
		row.Date = date
	}

	number := func(column string, i int) (float64, error) {
		raw := field(i)
		if _, ok := missingValues[raw]; ok {
			return 0, nil
		}
		if decimalComma {
			raw = strings.Replace(raw, ",", ".", 1)
		}
		v, err := strconv.ParseFloat(raw, 64)
		switch {
		case err != nil, math.IsInf(v, 0):
			return 0, fmt.Errorf("%w: %s=%q", ErrInvalidNumber, column, raw)
		case math.IsNaN(v):
			return 0, nil
		}
		return v, nil
	}

	if row.Consumption, err = number(colConsumption, cols.consumption); err != nil {
		return dataset.Observation{}, err
	}
	if row.Exchange, err = number(colExchange, cols.exchange); err != nil {
		return dataset.Observation{}, err
	}
	for i, src := range dataset.Sources() {
		v, err := number(string(src), cols.sources[i])
		if err != nil {
			return dataset.Observation{}, err
		}
		row.Production = row.Production.With(src, v)
	}
	if err := row.Validate(); err != nil {
		return dataset.Observation{}, err
	}
	return row, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
