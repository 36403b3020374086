package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/campaignsplit/internal/core"
	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// XLSX collects every group into one workbook, a sheet per group, and saves
// it on Close. Nothing is written when no group produced rows.
type XLSX struct {
	Path string
	file *excelize.File
}

// NewXLSX prepares a workbook that will be saved to path.
func NewXLSX(path string) *XLSX {
	return &XLSX{Path: path}
}

// Name implements core.Sink.
func (s *XLSX) Name() string { return "xlsx" }

// Write implements core.Sink. Cells are stored as text; nulls stay empty.
func (s *XLSX) Write(_ context.Context, group core.GroupInfo, t *table.Table) (string, error) {
	sheet := group.Label
	if sheet == "" {
		sheet = group.Key
	}

	if s.file == nil {
		s.file = excelize.NewFile()
		if err := s.file.SetSheetName(s.file.GetSheetName(0), sheet); err != nil {
			return "", fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := s.file.NewSheet(sheet); err != nil {
		return "", fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	sw, err := s.file.NewStreamWriter(sheet)
	if err != nil {
		return "", fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for r, row := range t.Rows {
		values := make([]any, len(row))
		for i, cell := range row {
			if cell.Valid {
				values[i] = cell.String
			}
		}
		ref, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return "", err
		}
		if err := sw.SetRow(ref, values); err != nil {
			return "", fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return "", fmt.Errorf("flush sheet %s: %w", sheet, err)
	}

	return "", nil
}

// Close implements core.Sink by saving the workbook.
func (s *XLSX) Close(context.Context) ([]string, error) {
	if s.file == nil {
		return nil, nil
	}
	defer func() {
		_ = s.file.Close()
		s.file = nil
	}()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, err
	}
	if err := s.file.SaveAs(s.Path); err != nil {
		return nil, fmt.Errorf("save workbook %s: %w", s.Path, err)
	}
	return []string{s.Path}, nil
}
