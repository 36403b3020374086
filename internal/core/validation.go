package core

// validation.go checks table shape before any value is transformed.
//
// Validation happens at two points:
//  1. Per contributing table: every Required column of the group must exist.
//  2. Per unified table, after reconciliation: every column a FieldSpec reads
//     must exist, so projection can never fail halfway through.
//
// Only header shape is checked. Cell values are never validated; the
// normalizers resolve anomalies to defaults or nulls.

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// ErrMissingColumn is the sentinel behind every SchemaError.
var ErrMissingColumn = errors.New("missing required column")

// SchemaError reports a column absent from a table that must carry it.
type SchemaError struct {
	Group  string // Group key: "client"
	Source string // Table the column is missing from
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s group: %s: %s %q", e.Group, e.Source, ErrMissingColumn, e.Column)
}

// Unwrap lets errors.Is match ErrMissingColumn.
func (e *SchemaError) Unwrap() error {
	return ErrMissingColumn
}

// ValidateRequired checks that t carries every Required column of def.
// The first missing column is reported.
func ValidateRequired(def GroupDefinition, t *table.Table) error {
	cols := t.ColumnSet()
	for _, c := range def.Required {
		if !cols[c] {
			return &SchemaError{Group: def.Info.Key, Source: t.Source, Column: c}
		}
	}
	return nil
}

// ValidateSources checks that a reconciled table carries every column the
// group's field specs read.
func ValidateSources(def GroupDefinition, t *table.Table) error {
	cols := t.ColumnSet()
	for _, spec := range def.FieldSpecs {
		needed := spec.DependsOn
		if spec.Derive == nil {
			needed = []string{spec.SourceColumn()}
		}
		for _, c := range needed {
			if !cols[c] {
				return &SchemaError{Group: def.Info.Key, Source: t.Source, Column: c}
			}
		}
	}
	return nil
}
