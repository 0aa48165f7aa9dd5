package citeproc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadCSLJSON(t *testing.T) {
	entries, err := ReadFile("testdata/refs.jsonc")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := []Entry{
		{
			ID:        "doe2020",
			Type:      "book",
			Title:     "A Study of Things",
			Publisher: "Example Press",
			Authors:   []Name{{Family: "Doe", Given: "Jane"}},
			Year:      "2020",
		},
		{
			ID:             "roe04",
			Type:           "article-journal",
			Title:          "On Matters",
			ContainerTitle: "Journal of Matters",
			Volume:         "12",
			Issue:          "3",
			Page:           "33-45",
			DOI:            "10.1000/xyz",
			Authors:        []Name{{Family: "Roe", Given: "Richard"}, {Family: "Poe", Given: "Edgar"}},
			Year:           "2004",
		},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ReadFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSLYAML(t *testing.T) {
	entries, err := ReadFile("testdata/refs.yaml")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ReadFile() returned %d entries, want 2", len(entries))
	}
	if got := entries[0]; got.ID != "many" || got.Year != "2011" || len(got.Authors) != 3 {
		t.Errorf("entries[0] = %+v", got)
	}
	if got := entries[1]; got.ID != "anon" || got.Year != "" || len(got.Authors) != 0 {
		t.Errorf("entries[1] = %+v", got)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	bib := filepath.Join(dir, "refs.bib")
	if err := os.WriteFile(bib, []byte("@book{x,}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(bib); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ReadFile(.bib) error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := ParseCSLJSON([]byte(`[{"title": "no id"}]`)); err == nil {
		t.Error("ParseCSLJSON() accepted an item without id")
	}
	if _, err := ParseCSLJSON([]byte(`[{`)); err == nil {
		t.Error("ParseCSLJSON() accepted truncated input")
	}
}

func TestLibraryLoad(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	lib := NewLibrary("testdata/refs.jsonc", "testdata/refs.yaml", missing)

	err := lib.Load()
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Path != missing {
		t.Errorf("Load() error = %v, want LoadError for %s", err, missing)
	}
	if lib.Len() != 4 {
		t.Errorf("Len() = %d, want 4", lib.Len())
	}
	if _, ok := lib.Lookup("roe04"); !ok {
		t.Error("Lookup(roe04) not found")
	}
	if diff := cmp.Diff([]string{"anon", "doe2020", "many", "roe04"}, lib.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}
