package core

import (
	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// Unify concatenates a group's source tables and reconciles the result.
//
// Required columns are checked per source table first. Defaults are applied
// once, on the unified table: a column absent from every source is filled
// uniformly, while a column present in only some sources keeps null cells
// for the rows of the others.
func Unify(def GroupDefinition, sources []*table.Table) (*table.Table, error) {
	for _, t := range sources {
		if err := ValidateRequired(def, t); err != nil {
			return nil, err
		}
	}

	unified := table.Concat(def.Info.Key, sources...)
	if def.Reconcile != nil {
		def.Reconcile(unified)
	}
	return unified, nil
}

// Alias makes canonical available under its own name. When canonical is
// absent, the first alias present is renamed to it. Reports whether
// canonical exists afterwards.
func Alias(t *table.Table, canonical string, aliases ...string) bool {
	if t.Has(canonical) {
		return true
	}
	for _, a := range aliases {
		if t.Rename(a, canonical) {
			return true
		}
	}
	return false
}

// Default adds each absent column filled with value.
func Default(t *table.Table, value string, cols ...string) {
	for _, c := range cols {
		t.AddColumn(c, table.Text(value))
	}
}
