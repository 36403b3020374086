package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/campaignsplit/internal/core"
	"github.com/JonMunkholm/campaignsplit/internal/csvio"
	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// Compile-time checks.
var (
	_ core.Sink = (*CSVDir)(nil)
	_ core.Sink = (*XLSX)(nil)
	_ core.Sink = (*Postgres)(nil)
)

func sampleTable() *table.Table {
	t := table.New("client", []string{"client_id", "education", "mortgage"})
	t.Rows = [][]pgtype.Text{
		{table.Text("1"), table.Text("university_degree"), table.Text("0")},
		{table.Text("2"), table.Null(), table.Text("1")},
	}
	return t
}

var clientInfo = core.GroupInfo{Key: "client", Label: "Client", FileName: "client.csv"}

func TestCSVDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files", "output")

	s, err := NewCSVDir(dir, csvio.Options{})
	if err != nil {
		t.Fatalf("NewCSVDir() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("output dir not created: %v", err)
	}

	loc, err := s.Write(context.Background(), clientInfo, sampleTable())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if loc != filepath.Join(dir, "client.csv") {
		t.Errorf("Write() location = %q", loc)
	}

	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	want := "client_id,education,mortgage\n1,university_degree,0\n2,,1\n"
	if string(data) != want {
		t.Errorf("client.csv = %q, want %q", data, want)
	}

	if locs, err := s.Close(context.Background()); err != nil || len(locs) != 0 {
		t.Errorf("Close() = %v, %v", locs, err)
	}
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "campaign.xlsx")
	s := NewXLSX(path)

	ctx := context.Background()
	if _, err := s.Write(ctx, clientInfo, sampleTable()); err != nil {
		t.Fatalf("Write(client) error = %v", err)
	}
	econ := table.New("economics", []string{"client_id", "cons_price_idx"})
	econ.Rows = [][]pgtype.Text{{table.Text("1"), table.Text("93.994")}}
	if _, err := s.Write(ctx, core.GroupInfo{Key: "economics", Label: "Economics"}, econ); err != nil {
		t.Fatalf("Write(economics) error = %v", err)
	}

	locs, err := s.Close(ctx)
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if diff := cmp.Diff([]string{path}, locs); diff != "" {
		t.Errorf("Close() outputs mismatch (-want +got):\n%s", diff)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{"Client", "Economics"}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	rows, err := f.GetRows("Client")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("Client sheet has %d rows, want 3", len(rows))
	}
	if diff := cmp.Diff([]string{"1", "university_degree", "0"}, rows[1]); diff != "" {
		t.Errorf("row 1 mismatch (-want +got):\n%s", diff)
	}
	if rows[2][0] != "2" || (len(rows[2]) > 1 && rows[2][1] != "") {
		t.Errorf("row 2 = %v, want empty education", rows[2])
	}
}

func TestXLSX_NothingWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	locs, err := NewXLSX(path).Close(context.Background())
	if err != nil || len(locs) != 0 {
		t.Errorf("Close() = %v, %v; want no outputs", locs, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("workbook should not be created when no group was written")
	}
}

func TestCreateTableSQL(t *testing.T) {
	got := createTableSQL(pgx.Identifier{"public", "client"}, []string{"client_id", "job"})
	want := `CREATE TABLE "public"."client" ("client_id" TEXT, "job" TEXT)`
	if got != want {
		t.Errorf("createTableSQL() = %q, want %q", got, want)
	}

	if got := dropTableSQL(pgx.Identifier{"stage", "campaign"}); got != `DROP TABLE IF EXISTS "stage"."campaign"` {
		t.Errorf("dropTableSQL() = %q", got)
	}
}

func TestCopySource(t *testing.T) {
	src := copySource(sampleTable())

	var got [][]any
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, values)
	}
	if err := src.Err(); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("copy source yielded %d rows, want 2", len(got))
	}
	cell, ok := got[1][1].(pgtype.Text)
	if !ok || cell.Valid {
		t.Errorf("null education should be copied as invalid pgtype.Text, got %#v", got[1][1])
	}
}
