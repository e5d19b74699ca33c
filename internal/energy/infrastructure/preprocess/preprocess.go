// Package preprocess turns the raw éCO2mix regional exports into the merged
// dataset the service loads.
package preprocess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// UnusedColumns are dropped from the raw exports when present.
var UnusedColumns = []string{
	"nature", "heure", "column_68", "pompage",
	"stockage_batterie", "destockage_batterie",
	"eolien_terrestre", "eolien_offshore",
	"tco_thermique", "tch_thermique",
	"tco_nucleaire", "tch_nucleaire",
	"tco_eolien", "tch_eolien",
	"tco_solaire", "tch_solaire",
	"tco_hydraulique", "tch_hydraulique",
	"tco_bioenergies", "tch_bioenergies",
	"column_30",
}

var ErrEmptyTable = errors.New("preprocess: empty table")

// Table is a CSV table held in memory.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read loads a whole table delimited by comma.
func Read(r io.Reader, comma rune) (Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, ErrEmptyTable
		}
		return Table{}, fmt.Errorf("preprocess: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	table := Table{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("preprocess: read: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Drop returns a copy of the table without the named columns. Unknown names
// are ignored.
func (t Table) Drop(columns []string) Table {
	var keep []int
	out := Table{}
	for i, name := range t.Header {
		if slices.Contains(columns, name) {
			continue
		}
		keep = append(keep, i)
		out.Header = append(out.Header, name)
	}
	out.Rows = make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		next := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				next[j] = row[i]
			}
		}
		out.Rows = append(out.Rows, next)
	}
	return out
}

// Concat stacks tables. The header is the union of all headers in order of
// first appearance; cells missing from a table are left empty.
func Concat(tables ...Table) Table {
	out := Table{}
	index := make(map[string]int)
	for _, t := range tables {
		for _, name := range t.Header {
			if _, ok := index[name]; !ok {
				index[name] = len(out.Header)
				out.Header = append(out.Header, name)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			next := make([]string, len(out.Header))
			for i, name := range t.Header {
				if i < len(row) {
					next[index[name]] = row[i]
				}
			}
			out.Rows = append(out.Rows, next)
		}
	}
	return out
}

// Write writes the table comma-delimited.
func Write(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}
