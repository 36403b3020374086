package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/campaignsplit/internal/core"
)

// Compile-time check.
var _ core.Recorder = (*DB)(nil)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordRun_ListRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := &core.RunResult{
		RunID:     "run-1",
		InputDir:  "files/input",
		OutputDir: "files/output",
		Archives:  []string{"files/input/bank_marketing.csv.zip"},
		Entries:   1,
		Groups: []core.GroupResult{
			{Key: "client", Sources: 1, Rows: 2},
			{Key: "campaign", Sources: 1, Rows: 2},
			{Key: "economics", Skipped: true},
		},
		Outputs:   []string{"files/output/client.csv", "files/output/campaign.csv"},
		Phase:     core.PhaseComplete,
		StartedAt: base,
		Duration:  1500 * time.Millisecond,
	}
	second := &core.RunResult{
		RunID:     "run-2",
		Phase:     core.PhaseFailed,
		StartedAt: base.Add(time.Hour),
		Error:     "discover: invalid csv",
	}

	for _, r := range []*core.RunResult{first, second} {
		if err := db.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun(%s) error = %v", r.RunID, err)
		}
	}

	runs, err := db.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}

	if runs[0].RunID != "run-2" || runs[0].Phase != "failed" || runs[0].Error != "discover: invalid csv" {
		t.Errorf("newest run = %+v", runs[0])
	}
	if len(runs[0].Outputs) != 0 {
		t.Errorf("failed run outputs = %v, want none", runs[0].Outputs)
	}

	got := runs[1]
	if got.Rows != 4 || got.Archives != 1 || got.Entries != 1 {
		t.Errorf("run-1 counts = rows %d archives %d entries %d", got.Rows, got.Archives, got.Entries)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("run-1 duration = %v", got.Duration)
	}
	if !got.StartedAt.Equal(base) {
		t.Errorf("run-1 started_at = %v, want %v", got.StartedAt, base)
	}
	if diff := cmp.Diff(first.Outputs, got.Outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}

	wantGroups := []GroupRecord{
		{Key: "client", Sources: 1, Rows: 2},
		{Key: "campaign", Sources: 1, Rows: 2},
		{Key: "economics", Skipped: true},
	}
	if diff := cmp.Diff(wantGroups, got.Groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRun_Overwrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := &core.RunResult{
		RunID:     "same",
		Phase:     core.PhaseWriting,
		StartedAt: time.Now(),
		Groups:    []core.GroupResult{{Key: "client", Rows: 1}},
	}
	if err := db.RecordRun(ctx, r); err != nil {
		t.Fatal(err)
	}

	r.Phase = core.PhaseComplete
	r.Groups = []core.GroupResult{{Key: "client", Rows: 3}}
	if err := db.RecordRun(ctx, r); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
	}
	if runs[0].Phase != "complete" {
		t.Errorf("phase = %q, want complete", runs[0].Phase)
	}
	if len(runs[0].Groups) != 1 || runs[0].Groups[0].Rows != 3 {
		t.Errorf("groups = %+v", runs[0].Groups)
	}
}
