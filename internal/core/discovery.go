package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/JonMunkholm/campaignsplit/internal/archive"
	"github.com/JonMunkholm/campaignsplit/internal/csvio"
	"github.com/JonMunkholm/campaignsplit/internal/logging"
	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// Discovery is the outcome of scanning an input directory.
type Discovery struct {
	Archives []string                  // Archive paths, in processing order
	Entries  int                       // Entries read across all archives
	Groups   map[string][]*table.Table // Source tables per group key, in read order
}

// DiscoverOptions control which archives are read and how entries are parsed.
type DiscoverOptions struct {
	Pattern string // Archive glob; archive.DefaultPattern when empty
	CSV     csvio.Options
}

// Discover reads every entry of every matching archive under root and files
// each resulting table under all groups whose signature it satisfies.
//
// No matching archives is not an error: the result simply has no groups.
// Any unreadable archive or malformed entry aborts discovery.
func Discover(ctx context.Context, root string, opts DiscoverOptions) (*Discovery, error) {
	logger := logging.FromContext(ctx)

	paths, err := archive.Find(root, opts.Pattern)
	if err != nil {
		return nil, err
	}

	d := &Discovery{
		Archives: paths,
		Groups:   make(map[string][]*table.Table),
	}
	if len(paths) == 0 {
		logger.Warn("no archives found", "dir", root, "pattern", opts.Pattern)
		return d, nil
	}

	err = archive.Walk(paths, func(path string, e archive.Entry) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("operation cancelled: %w", err)
		}

		t, bytesRead, err := readEntry(path, e, opts.CSV)
		if err != nil {
			return err
		}
		d.Entries++

		keys := Classify(t.Columns)
		for _, k := range keys {
			d.Groups[k] = append(d.Groups[k], t)
		}

		logger.Debug("entry classified",
			"archive", filepath.Base(path),
			"entry", e.Name,
			"rows", t.Len(),
			"bytes", bytesRead,
			"size", e.Size,
			"groups", keys,
		)
		if len(keys) == 0 {
			logger.Warn("entry matched no group", "archive", filepath.Base(path), "entry", e.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

func readEntry(path string, e archive.Entry, opts csvio.Options) (*table.Table, int64, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	defer rc.Close()

	counter := csvio.NewCountingReader(rc)
	source := filepath.Base(path) + "/" + e.Name
	t, err := csvio.Read(counter, source, opts)
	if err != nil {
		return nil, 0, err
	}
	return t, counter.BytesRead, nil
}
