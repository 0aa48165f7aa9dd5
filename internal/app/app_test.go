package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/citemark/internal/config"
	"github.com/dshills/citemark/internal/overlay/citations"
)

const noWatch = "[citeproc]\nwatch = false\n"

type fixture struct {
	dir    string
	doc    string
	config string
	lib    string
}

// newFixture writes a document, a config file and a copy of the test
// bibliography to a temporary directory.
func newFixture(t *testing.T, doc, cfg string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		doc:    filepath.Join(dir, "notes.md"),
		config: filepath.Join(dir, "citemark.toml"),
		lib:    filepath.Join(dir, "refs.jsonc"),
	}
	refs, err := os.ReadFile(filepath.Join("..", "citeproc", "testdata", "refs.jsonc"))
	if err != nil {
		t.Fatal(err)
	}
	for path, data := range map[string][]byte{f.doc: []byte(doc), f.config: []byte(cfg), f.lib: refs} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f fixture) open(t *testing.T) *Application {
	t.Helper()
	a, err := New(Options{
		ConfigPath: f.config,
		File:       f.doc,
		Library:    []string{f.lib},
		LogOutput:  &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func settleCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRender(t *testing.T) {
	doc := strings.Join([]string{
		"# Notes",
		"@doe2020 argues this [see also @roe04, p. 33].",
		"Unknown [@nobody].",
		"<!-- [@doe2020] -->",
		"- [x] done",
		"",
	}, "\n")
	a := newFixture(t, doc, noWatch).open(t)

	got, err := a.Render(settleCtx(t), false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := strings.Join([]string{
		"# Notes",
		"Doe (2020) argues this (see also Roe and Poe 2004, 33).",
		"Unknown [@nobody].",
		"<!-- [@doe2020] -->",
		"- [x] done",
		"",
	}, "\n")
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}

	eng := a.Citations()
	if eng.Count(citations.Resolved) != 2 || eng.Count(citations.Errored) != 1 {
		t.Errorf("resolved = %d, errored = %d, want 2, 1", eng.Count(citations.Resolved), eng.Count(citations.Errored))
	}
	if a.Modified() {
		t.Error("Render() modified the document")
	}
	if snap := a.Metrics().Snapshot(); snap.Scans == 0 || snap.Installed != 3 {
		t.Errorf("metrics = %+v, want scans and 3 installed", snap)
	}

	ansi, err := a.Render(settleCtx(t), true)
	if err != nil {
		t.Fatalf("Render(ansi) error = %v", err)
	}
	if !strings.Contains(ansi, "\x1b[") {
		t.Error("Render(ansi) has no escape sequences")
	}
}

func TestBibliography(t *testing.T) {
	a := newFixture(t, "See [@roe04] and @doe2020 and @nobody.\n", noWatch).open(t)
	ctx := settleCtx(t)
	if _, err := a.Render(ctx, false); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	bib, err := a.Bibliography(ctx)
	if err != nil {
		t.Fatalf("Bibliography() error = %v", err)
	}
	lines := strings.Split(bib, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Doe, Jane. 2020. A Study of Things.") ||
		!strings.HasPrefix(lines[1], "Roe, Richard") {
		t.Errorf("Bibliography() =\n%s", bib)
	}
}

func TestSave(t *testing.T) {
	f := newFixture(t, "hello", noWatch)
	a := f.open(t)
	if err := a.Document().Insert(a.Document().EndPos(), " world"); err != nil {
		t.Fatal(err)
	}
	if !a.Modified() {
		t.Error("Modified() = false after edit")
	}
	if err := a.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(f.doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" || a.Modified() {
		t.Errorf("file = %q, Modified() = %v", data, a.Modified())
	}
}

func TestSaveWithoutPath(t *testing.T) {
	f := newFixture(t, "", noWatch)
	a, err := New(Options{ConfigPath: f.config, LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()
	if err := a.Save(); !errors.Is(err, ErrNoFilePath) {
		t.Errorf("Save() error = %v, want ErrNoFilePath", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	f := newFixture(t, "", noWatch)
	f.doc = filepath.Join(f.dir, "new.md")
	a := f.open(t)
	if got := a.Document().Text(); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
}

func TestBadConfig(t *testing.T) {
	f := newFixture(t, "", "[editor]\ntab_width = 0\n")
	_, err := New(Options{ConfigPath: f.config, LogOutput: &bytes.Buffer{}})
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.Component != "config" {
		t.Fatalf("New() error = %v, want config InitError", err)
	}
	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("New() error = %v, want a ValidationError", err)
	}
}

func TestLibraryReloadRetriesErrored(t *testing.T) {
	f := newFixture(t, "See [@fresh] here.\n", noWatch)
	a := f.open(t)
	ctx := settleCtx(t)
	if _, err := a.Render(ctx, false); err != nil {
		t.Fatal(err)
	}
	if a.Citations().Count(citations.Errored) != 1 {
		t.Fatalf("errored = %d, want 1", a.Citations().Count(citations.Errored))
	}

	refs := `[{"id": "fresh", "author": [{"family": "New"}], "issued": {"date-parts": [[2024]]}}]`
	if err := os.WriteFile(f.lib, []byte(refs), 0o644); err != nil {
		t.Fatal(err)
	}
	a.host.batch = true
	a.libraryReloaded(a.library.Load())
	if err := a.Settle(ctx); err != nil {
		t.Fatal(err)
	}

	anns := a.Citations().Annotations()
	if len(anns) != 1 {
		t.Fatalf("annotations after reload = %d, want 1", len(anns))
	}
	if got := anns[0].Placeholder().Content(); anns[0].State() != citations.Resolved || got != "(New 2024)" {
		t.Errorf("after reload state = %v, content = %q, want resolved (New 2024)", anns[0].State(), got)
	}
}

func TestRunInteractive(t *testing.T) {
	f := newFixture(t, "See @doe2020.\n", noWatch)
	a := f.open(t)

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(40, 6)

	screen.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	screen.InjectKey(tcell.KeyCtrlS, 0, tcell.ModCtrl)
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)

	if err := a.Run(settleCtx(t), screen); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(f.doc)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "See @doe2020.\nx"; got != want {
		t.Errorf("saved file = %q, want %q", got, want)
	}
}

func TestQuitNeedsConfirmationWhenModified(t *testing.T) {
	a := newFixture(t, "text", noWatch).open(t)
	if err := a.insert("!"); err != nil {
		t.Fatal(err)
	}
	quit := tcell.NewEventKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	if err := a.handleKey(quit); err != nil {
		t.Errorf("first Ctrl-Q = %v, want nil", err)
	}
	if err := a.handleKey(quit); !errors.Is(err, ErrQuit) {
		t.Errorf("second Ctrl-Q = %v, want ErrQuit", err)
	}
}

func TestCursorMovement(t *testing.T) {
	a := newFixture(t, "héllo\nab", noWatch).open(t)
	doc := a.Document()

	steps := []struct {
		key  tcell.Key
		want string
	}{
		{tcell.KeyRight, "(0:1)"},
		{tcell.KeyRight, "(0:3)"},
		{tcell.KeyDown, "(1:2)"},
		{tcell.KeyLeft, "(1:1)"},
		{tcell.KeyHome, "(1:0)"},
		{tcell.KeyLeft, "(0:6)"},
		{tcell.KeyBackspace2, "(0:5)"},
	}
	for i, s := range steps {
		if err := a.handleKey(tcell.NewEventKey(s.key, 0, tcell.ModNone)); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := doc.Cursor().String(); got != s.want {
			t.Errorf("step %d cursor = %s, want %s", i, got, s.want)
		}
	}
	if got := doc.Line(0); got != "héll" {
		t.Errorf("Line(0) = %q, want %q", got, "héll")
	}
}
