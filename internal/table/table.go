// Package table holds the in-memory tabular model shared by every stage:
// named columns plus rows of nullable text cells.
//
// Cells are pgtype.Text so that a missing value (Valid=false) survives the
// whole pipeline and reaches each output in its native null form: an empty
// CSV field, an empty XLSX cell, or SQL NULL.
package table

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNoColumn is returned when an operation names a column the table lacks.
var ErrNoColumn = errors.New("column not found")

// Table is an ordered set of named columns and the rows beneath them.
// Every row has exactly len(Columns) cells.
type Table struct {
	Source  string // Where the rows came from: "archive.csv.zip/entry.csv"
	Columns []string
	Rows    [][]pgtype.Text
}

// New returns an empty table with the given header.
func New(source string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Source: source, Columns: cols}
}

// Text converts a raw field to a cell. Empty strings are null, matching how
// delimited readers treat empty fields.
func Text(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// Null returns the null marker.
func Null() pgtype.Text {
	return pgtype.Text{}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of col, or -1 if absent.
// Duplicate header names resolve to the first occurrence.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is part of the header.
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// ColumnSet returns the header as a set.
func (t *Table) ColumnSet() map[string]bool {
	set := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		set[c] = true
	}
	return set
}

// AppendRow adds a row, padding short rows with nulls.
// Rows wider than the header are rejected.
func (t *Table) AppendRow(row []pgtype.Text) error {
	if len(row) > len(t.Columns) {
		return fmt.Errorf("row has %d fields, header has %d", len(row), len(t.Columns))
	}
	if len(row) < len(t.Columns) {
		padded := make([]pgtype.Text, len(t.Columns))
		copy(padded, row)
		row = padded
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AddColumn appends a column with every cell set to fill.
// It is a no-op when the column already exists.
func (t *Table) AddColumn(name string, fill pgtype.Text) {
	if t.Has(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
}

// Rename changes a column name in place. It returns false if from is absent.
func (t *Table) Rename(from, to string) bool {
	idx := t.Index(from)
	if idx < 0 {
		return false
	}
	t.Columns[idx] = to
	return true
}

// Row returns an accessor for row i.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Project returns a new table holding only cols, in that order.
func (t *Table) Project(cols []string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("project %s: %w: %s", t.Source, ErrNoColumn, c)
		}
	}

	out := New(t.Source, cols)
	out.Rows = make([][]pgtype.Text, len(t.Rows))
	for r, row := range t.Rows {
		projected := make([]pgtype.Text, len(idx))
		for i, src := range idx {
			projected[i] = row[src]
		}
		out.Rows[r] = projected
	}
	return out, nil
}

// Strings renders row i with nulls as empty strings.
func (t *Table) Strings(i int) []string {
	row := t.Rows[i]
	out := make([]string, len(row))
	for c, cell := range row {
		if cell.Valid {
			out[c] = cell.String
		}
	}
	return out
}

// Concat stacks tables vertically. The result header is the union of all
// headers in first-seen order; rows from a table lacking a column get nulls.
func Concat(source string, tables ...*Table) *Table {
	var cols []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	out := New(source, cols)
	for _, t := range tables {
		mapping := make([]int, len(cols))
		for i, c := range cols {
			mapping[i] = t.Index(c)
		}
		for _, row := range t.Rows {
			merged := make([]pgtype.Text, len(cols))
			for i, src := range mapping {
				if src >= 0 {
					merged[i] = row[src]
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// Row is a read-only view of one table row addressed by column name.
type Row struct {
	t *Table
	i int
}

// Get returns the cell under col, or null if the column is absent.
func (r Row) Get(col string) pgtype.Text {
	idx := r.t.Index(col)
	if idx < 0 {
		return pgtype.Text{}
	}
	return r.t.Rows[r.i][idx]
}
