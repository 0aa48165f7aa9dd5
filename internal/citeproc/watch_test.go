package citeproc

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.json")
	if err := os.WriteFile(path, []byte(`[{"id": "a"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary(path)
	if err := lib.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reloaded := make(chan error, 4)
	w, err := NewWatcher(lib, 50*time.Millisecond, func(err error) { reloaded <- err }, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`[{"id": "a"}, {"id": "b"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-reloaded:
		case <-deadline:
			t.Fatal("library was not reloaded")
		}
		if _, ok := lib.Lookup("b"); ok {
			return
		}
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "refs.json"))
	w, err := NewWatcher(lib, 0, nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
