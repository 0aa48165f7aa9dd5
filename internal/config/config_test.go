package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/citemark/internal/config/loader"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFromLayers(t *testing.T) {
	fsys := loader.MapFS{"/cfg/citemark.toml": []byte(`
[citations]
zone = "markdown-zkn"

[citeproc]
library = ["refs.json", "/abs/more.yaml"]
formatter_script = "fmt.lua"
`)}
	file := loader.NewTOMLLoaderWithFS(fsys, "/cfg/citemark.toml")
	env := loader.NewEnvLoaderFrom(loader.EnvPrefix, []string{"CITEMARK_LOGGING_LEVEL=debug"})

	cfg, err := LoadFrom(file, env, "/cfg")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Citations.Zone != "markdown-zkn" {
		t.Errorf("Citations.Zone = %q, want markdown-zkn", cfg.Citations.Zone)
	}
	if cfg.Citations.Class != "citeproc-citation" {
		t.Errorf("Citations.Class = %q, want default", cfg.Citations.Class)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	wantLib := []string{filepath.Join("/cfg", "refs.json"), "/abs/more.yaml"}
	if diff := cmp.Diff(wantLib, cfg.Citeproc.Library); diff != "" {
		t.Errorf("Library mismatch (-want +got):\n%s", diff)
	}
	if cfg.Citeproc.FormatterScript != filepath.Join("/cfg", "fmt.lua") {
		t.Errorf("FormatterScript = %q", cfg.Citeproc.FormatterScript)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	env := loader.NewEnvLoaderFrom(loader.EnvPrefix, []string{"CITEMARK_EDITOR_TAB_WIDTH=0"})
	_, err := LoadFrom(nil, env, "")
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("LoadFrom() error = %v, want ErrValidationFailed", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Path != "editor.tab_width" {
		t.Errorf("error = %v, want editor.tab_width validation error", err)
	}
}
