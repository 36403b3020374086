package core

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// Normalize applies the group's field specs to a reconciled table and
// returns the output table in the group's exact column order. Every unified
// row produces one output row.
func Normalize(def GroupDefinition, unified *table.Table) (*table.Table, error) {
	if err := ValidateSources(def, unified); err != nil {
		return nil, err
	}

	if def.projectionOnly() {
		return unified.Project(def.Columns())
	}

	specs := def.FieldSpecs
	srcIdx := make([]int, len(specs))
	for i, spec := range specs {
		srcIdx[i] = unified.Index(spec.SourceColumn())
	}

	out := table.New(def.Info.Key, def.Columns())
	out.Rows = make([][]pgtype.Text, unified.Len())

	for r := range unified.Rows {
		row := make([]pgtype.Text, len(specs))
		for i, spec := range specs {
			var v pgtype.Text
			if spec.Derive != nil {
				v = spec.Derive(unified.Row(r))
			} else {
				v = unified.Rows[r][srcIdx[i]]
			}
			if spec.Normalizer != nil {
				v = spec.Normalizer(v)
			}
			row[i] = v
		}
		out.Rows[r] = row
	}

	return out, nil
}

// projectionOnly reports whether every field copies its same-named column.
func (d GroupDefinition) projectionOnly() bool {
	for _, spec := range d.FieldSpecs {
		if spec.Normalizer != nil || spec.Derive != nil || spec.Source != "" {
			return false
		}
	}
	return true
}

// Build runs reconciliation and normalization for one group.
func Build(def GroupDefinition, sources []*table.Table) (*table.Table, error) {
	unified, err := Unify(def, sources)
	if err != nil {
		return nil, err
	}
	return Normalize(def, unified)
}
