// Package archive enumerates compressed containers and their entries.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
)

// DefaultPattern matches the campaign export archives.
const DefaultPattern = "*.csv.zip"

// Find returns the archives in root whose base name matches pattern, sorted
// by name. A missing root yields no archives and no error.
func Find(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("archive pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", root, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			paths = append(paths, filepath.Join(root, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Archive is an open container.
type Archive struct {
	Path string
	rc   *zip.ReadCloser
}

// Entry is one file inside an archive.
type Entry struct {
	Name string
	Size int64
	file *zip.File
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", filepath.Base(path), err)
	}
	return &Archive{Path: path, rc: rc}, nil
}

// Entries lists the regular files of the archive in stored order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, 0, len(a.rc.File))
	for _, f := range a.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out = append(out, Entry{
			Name: f.Name,
			Size: int64(f.UncompressedSize64),
			file: f,
		})
	}
	return out
}

// Close releases the archive.
func (a *Archive) Close() error {
	return a.rc.Close()
}

// Open returns a reader over the decompressed entry. The reader verifies the
// entry checksum at EOF.
func (e Entry) Open() (io.ReadCloser, error) {
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", e.Name, err)
	}
	return rc, nil
}

// Walk opens every archive in paths and calls fn for each entry, in archive
// then entry order. Iteration stops at the first error.
func Walk(paths []string, fn func(archivePath string, e Entry) error) error {
	for _, path := range paths {
		if err := walkOne(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkOne(path string, fn func(string, Entry) error) error {
	a, err := Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, e := range a.Entries() {
		if err := fn(path, e); err != nil {
			return err
		}
	}
	return nil
}
