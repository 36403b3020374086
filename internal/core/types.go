package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// MatchMode decides how a group's signature is tested against a header.
type MatchMode int

const (
	// MatchAll requires every signature column.
	MatchAll MatchMode = iota
	// MatchAny requires at least one signature column.
	MatchAny
)

func (m MatchMode) String() string {
	switch m {
	case MatchAll:
		return "all"
	case MatchAny:
		return "any"
	default:
		return "unknown"
	}
}

// GroupInfo identifies an entity group.
type GroupInfo struct {
	Key      string // Unique identifier: "client"
	Label    string // Display name: "Client"
	FileName string // Output file: "client.csv"
	Order    int    // Processing order; lower runs first
}

// FieldSpec defines one output column.
type FieldSpec struct {
	Name   string // Output column name
	Source string // Unified column to read; Name when empty

	// Normalizer transforms the source cell. Must be total: anomalies map to
	// a value or the null marker, never to an error.
	Normalizer func(pgtype.Text) pgtype.Text

	// Derive computes the cell from the whole row instead of a single source
	// column. DependsOn lists the columns it reads.
	Derive    func(table.Row) pgtype.Text
	DependsOn []string
}

// SourceColumn returns the unified column the spec reads.
func (f FieldSpec) SourceColumn() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Name
}

// ReconcileFunc fills structurally absent columns and resolves aliases on a
// unified table. It runs once per group, after concatenation.
type ReconcileFunc func(t *table.Table)

// GroupDefinition contains everything needed to build one output table.
type GroupDefinition struct {
	Info GroupInfo

	// Signature columns and how they are matched against a source header.
	Signature []string
	Match     MatchMode

	// Required columns every contributing table must carry. Groups without a
	// defaulting path list their full output schema here.
	Required []string

	Reconcile ReconcileFunc

	// FieldSpecs in output order.
	FieldSpecs []FieldSpec
}

// Columns returns the output column order.
func (d GroupDefinition) Columns() []string {
	cols := make([]string, len(d.FieldSpecs))
	for i, spec := range d.FieldSpecs {
		cols[i] = spec.Name
	}
	return cols
}

// Sink persists normalized group tables.
type Sink interface {
	// Name identifies the sink in logs and results: "csv", "xlsx", "postgres".
	Name() string
	// Write persists one group table and returns where it went.
	Write(ctx context.Context, group GroupInfo, t *table.Table) (string, error)
	// Close flushes buffered output. It is called once, after every group.
	Close(ctx context.Context) ([]string, error)
}

// Recorder keeps a ledger of completed runs.
type Recorder interface {
	RecordRun(ctx context.Context, result *RunResult) error
}

// RunPhase indicates the current stage of a run.
type RunPhase string

const (
	PhaseDiscovering RunPhase = "discovering"
	PhaseReconciling RunPhase = "reconciling"
	PhaseNormalizing RunPhase = "normalizing"
	PhaseWriting     RunPhase = "writing"
	PhaseComplete    RunPhase = "complete"
	PhaseFailed      RunPhase = "failed"
)

// GroupResult summarizes one group's outcome.
type GroupResult struct {
	Key     string   `json:"key"`
	Sources int      `json:"sources"`
	Rows    int      `json:"rows"`
	Skipped bool     `json:"skipped,omitempty"` // No unified rows; nothing written
	Outputs []string `json:"outputs,omitempty"`
}

// RunResult contains the final result of a pipeline run.
type RunResult struct {
	RunID     string        `json:"run_id"`
	InputDir  string        `json:"input_dir"`
	OutputDir string        `json:"output_dir"`
	Archives  []string      `json:"archives"`
	Entries   int           `json:"entries"`
	Groups    []GroupResult `json:"groups"`
	Outputs   []string      `json:"outputs,omitempty"`
	Phase     RunPhase      `json:"phase"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// TotalRows returns the number of rows written across groups.
func (r *RunResult) TotalRows() int {
	total := 0
	for _, g := range r.Groups {
		total += g.Rows
	}
	return total
}
