package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/campaignsplit/internal/table"
)

func newTable(source string, cols []string, rows ...[]string) *table.Table {
	t := table.New(source, cols)
	for _, r := range rows {
		cells := make([]pgtype.Text, len(r))
		for i, v := range r {
			cells[i] = table.Text(v)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func TestAlias(t *testing.T) {
	tbl := newTable("a", []string{"id", "previous_campaing_contacts"}, []string{"1", "7"})

	if !Alias(tbl, "previous_campaign_contacts", "previous_campaing_contacts") {
		t.Fatal("Alias() = false, want true")
	}
	if diff := cmp.Diff([]string{"id", "previous_campaign_contacts"}, tbl.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if got := tbl.Row(0).Get("previous_campaign_contacts"); got.String != "7" {
		t.Errorf("renamed value = %q, want 7", got.String)
	}

	// Canonical already present: alias left alone.
	both := newTable("b", []string{"previous_campaign_contacts", "previous_campaing_contacts"})
	if !Alias(both, "previous_campaign_contacts", "previous_campaing_contacts") {
		t.Error("Alias() = false with canonical present")
	}
	if !both.Has("previous_campaing_contacts") {
		t.Error("alias should not be renamed when canonical exists")
	}

	if Alias(newTable("c", []string{"id"}), "previous_campaign_contacts", "previous_campaing_contacts") {
		t.Error("Alias() = true with neither column present")
	}
}

func TestDefault(t *testing.T) {
	tbl := newTable("a", []string{"id", "day"}, []string{"1", "5"}, []string{"2", "6"})
	Default(tbl, "01", "day", "month")

	if got := tbl.Row(0).Get("day"); got.String != "5" {
		t.Errorf("existing column overwritten: day = %q", got.String)
	}
	for i := 0; i < tbl.Len(); i++ {
		if got := tbl.Row(i).Get("month"); got != table.Text("01") {
			t.Errorf("row %d month = %+v, want 01", i, got)
		}
	}
}

func campaignLikeDef() GroupDefinition {
	return GroupDefinition{
		Info:      GroupInfo{Key: "campaign"},
		Signature: []string{"number_contacts"},
		Match:     MatchAny,
		Reconcile: func(t *table.Table) {
			Default(t, "0", "contact_duration")
		},
		FieldSpecs: []FieldSpec{
			{Name: "client_id"},
			{Name: "contact_duration"},
			{Name: "outcome", Source: "campaign_outcome", Normalizer: FlagNormalizer("yes")},
			{
				Name:      "summary",
				Derive:    func(r table.Row) pgtype.Text { return table.Text(r.Get("client_id").String + "/" + r.Get("number_contacts").String) },
				DependsOn: []string{"client_id", "number_contacts"},
			},
		},
	}
}

func TestUnify_DefaultsOnceAfterConcat(t *testing.T) {
	def := campaignLikeDef()

	// contact_duration exists only in the first source: rows from the second
	// keep null cells instead of the group default.
	a := newTable("a", []string{"client_id", "number_contacts", "contact_duration", "campaign_outcome"},
		[]string{"1", "2", "261", "yes"})
	b := newTable("b", []string{"client_id", "number_contacts", "campaign_outcome"},
		[]string{"2", "3", "no"})

	unified, err := Unify(def, []*table.Table{a, b})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	if unified.Len() != 2 {
		t.Fatalf("unified rows = %d, want 2", unified.Len())
	}
	if got := unified.Row(1).Get("contact_duration"); got.Valid {
		t.Errorf("row from table lacking the column = %+v, want null", got)
	}

	// Absent from every source: uniformly defaulted.
	c := newTable("c", []string{"client_id", "number_contacts", "campaign_outcome"}, []string{"3", "1", "yes"})
	unified, err = Unify(def, []*table.Table{c})
	if err != nil {
		t.Fatal(err)
	}
	if got := unified.Row(0).Get("contact_duration"); got != table.Text("0") {
		t.Errorf("contact_duration = %+v, want 0", got)
	}

	// Sources are not mutated by reconciliation.
	if c.Has("contact_duration") {
		t.Error("Unify() mutated a source table")
	}
}

func TestUnify_RequiredPerSource(t *testing.T) {
	def := GroupDefinition{
		Info:       GroupInfo{Key: "economics"},
		Required:   []string{"client_id", "cons_price_idx"},
		FieldSpecs: []FieldSpec{{Name: "client_id"}, {Name: "cons_price_idx"}},
	}
	good := newTable("good", []string{"client_id", "cons_price_idx"}, []string{"1", "93.9"})
	bad := newTable("bad", []string{"cons_price_idx"}, []string{"94.1"})

	_, err := Unify(def, []*table.Table{good, bad})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Unify() error = %v, want ErrMissingColumn", err)
	}
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *SchemaError", err)
	}
	if se.Source != "bad" || se.Column != "client_id" || se.Group != "economics" {
		t.Errorf("SchemaError = %+v", se)
	}
}

func TestNormalize(t *testing.T) {
	def := campaignLikeDef()
	src := newTable("a", []string{"campaign_outcome", "number_contacts", "client_id"},
		[]string{"YES", "4", "9"},
		[]string{"", "1", "10"},
	)

	out, err := Build(def, []*table.Table{src})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if diff := cmp.Diff([]string{"client_id", "contact_duration", "outcome", "summary"}, out.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{
		{"9", "0", "1", "9/4"},
		{"10", "0", "0", "10/1"},
	}
	for i := range want {
		if diff := cmp.Diff(want[i], out.Strings(i)); diff != "" {
			t.Errorf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestNormalize_MissingSourceColumn(t *testing.T) {
	def := campaignLikeDef()
	src := newTable("a", []string{"client_id", "campaign_outcome"}, []string{"1", "yes"})

	_, err := Build(def, []*table.Table{src})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("Build() error = %v, want *SchemaError", err)
	}
	if se.Column != "number_contacts" {
		t.Errorf("missing column = %q, want number_contacts", se.Column)
	}
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Group: "client", Source: "bank.csv.zip/client.csv", Column: "mortgage"}
	want := `client group: bank.csv.zip/client.csv: missing required column "mortgage"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
