// Package sink provides the output destinations for normalized group tables.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/campaignsplit/internal/core"
	"github.com/JonMunkholm/campaignsplit/internal/csvio"
	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// CSVDir writes one delimited-text file per group into a directory,
// replacing files left by earlier runs.
type CSVDir struct {
	Dir  string
	opts csvio.Options
}

// NewCSVDir creates dir (and parents) if needed.
func NewCSVDir(dir string, opts csvio.Options) (*CSVDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &CSVDir{Dir: dir, opts: opts}, nil
}

// Name implements core.Sink.
func (s *CSVDir) Name() string { return "csv" }

// Write implements core.Sink.
func (s *CSVDir) Write(_ context.Context, group core.GroupInfo, t *table.Table) (string, error) {
	path := filepath.Join(s.Dir, group.FileName)
	if err := csvio.WriteFile(path, t, s.opts); err != nil {
		return "", err
	}
	return path, nil
}

// Close implements core.Sink. Files are complete after each Write.
func (s *CSVDir) Close(context.Context) ([]string, error) {
	return nil, nil
}
