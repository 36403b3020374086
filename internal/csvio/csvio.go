// Package csvio reads and writes delimited text as tables.
//
// Reading expects a header row. Empty fields become nulls, short records are
// padded with nulls and records wider than the header are rejected, which is
// how the campaign source files have always been interpreted.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// ErrEmptyFile is returned when an entry has no header row.
var ErrEmptyFile = errors.New("empty file: no header row")

// Options control the delimited dialect.
type Options struct {
	Comma rune // Field delimiter; ',' when zero
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

// Read parses r as delimited text with a header row.
// The stream is passed through Wrap first: a leading BOM is dropped and
// bytes that are not valid UTF-8 fail the read with ErrInvalidUTF8.
func Read(r io.Reader, source string, opts Options) (*table.Table, error) {
	cr := csv.NewReader(Wrap(r))
	cr.Comma = opts.comma()
	cr.FieldsPerRecord = -1 // width is enforced against the header below

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv %s: %w", source, err)
	}

	t := table.New(source, header)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv %s: %w", source, err)
		}

		row := make([]pgtype.Text, len(record))
		for i, field := range record {
			row[i] = table.Text(field)
		}
		if err := t.AppendRow(row); err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("invalid csv %s line %d: %w", source, line, err)
		}
	}

	return t, nil
}

// Write serializes t with a header row and no index column.
// Nulls are written as empty fields.
func Write(w io.Writer, t *table.Table, opts Options) error {
	cw := csv.NewWriter(w)
	cw.Comma = opts.comma()

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.Rows {
		if err := cw.Write(t.Strings(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path, replacing any existing file. The data goes to a
// temporary sibling first so a failed run never leaves a truncated table.
func WriteFile(path string, t *table.Table, opts Options) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Write(tmp, t, opts); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ParseDelimiter validates a single-character delimiter setting.
func ParseDelimiter(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
