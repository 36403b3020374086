package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"
)

func writeZip(t *testing.T, path string, files map[string]string, order []string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, files[name]); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv.zip", "a.csv.zip", "notes.txt", "c.zip"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "d.csv.zip"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Find(dir, "")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.csv.zip"), filepath.Join(dir, "b.csv.zip")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_MissingDir(t *testing.T) {
	got, err := Find(filepath.Join(t.TempDir(), "nope"), DefaultPattern)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Find() = %v, want none", got)
	}
}

func TestFind_BadPattern(t *testing.T) {
	if _, err := Find(t.TempDir(), "["); err == nil {
		t.Error("Find() with malformed pattern should fail")
	}
}

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv.zip")
	second := filepath.Join(dir, "b.csv.zip")
	writeZip(t, first, map[string]string{"z.csv": "z", "y.csv": "y", "dir/": ""}, []string{"z.csv", "dir/", "y.csv"})
	writeZip(t, second, map[string]string{"x.csv": "x"}, []string{"x.csv"})

	var seen []string
	err := Walk([]string{first, second}, func(path string, e Entry) error {
		rc, err := e.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		seen = append(seen, filepath.Base(path)+":"+e.Name+"="+string(body))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"a.csv.zip:z.csv=z", "a.csv.zip:y.csv=y", "b.csv.zip:x.csv=x"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("Walk() order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv.zip")
	writeZip(t, path, map[string]string{"1.csv": "", "2.csv": ""}, []string{"1.csv", "2.csv"})

	boom := errors.New("boom")
	calls := 0
	err := Walk([]string{path}, func(string, Entry) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Walk() error = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}

func TestOpen_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv.zip")
	if err := os.WriteFile(path, []byte("definitely not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Open() of corrupt archive should fail")
	}
}
