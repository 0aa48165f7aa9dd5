package config

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/citemark/internal/config/loader"
	"github.com/dshills/citemark/internal/logging"
)

// Config is the complete citemark configuration.
type Config struct {
	Logging   LoggingConfig   `toml:"logging"`
	Editor    EditorConfig    `toml:"editor"`
	Citations CitationsConfig `toml:"citations"`
	Citeproc  CiteprocConfig  `toml:"citeproc"`
	TaskItems TaskItemsConfig `toml:"task_items"`
	Theme     ThemeConfig     `toml:"theme"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File receives log output; empty means stderr, which the interactive
	// viewer redirects to io.Discard.
	File string `toml:"file"`
}

// EditorConfig configures the host document.
type EditorConfig struct {
	TabWidth int `toml:"tab_width"`
	// ScrollOff is the number of lines kept visible around the cursor.
	ScrollOff int `toml:"scroll_off"`
}

// CitationsConfig configures the inline citation overlay engine.
type CitationsConfig struct {
	Enabled bool `toml:"enabled"`
	// Zone is the mode name in which citations are rendered.
	Zone       string `toml:"zone"`
	Class      string `toml:"class"`
	ErrorClass string `toml:"error_class"`
}

// CiteprocConfig configures the citation resolution service.
type CiteprocConfig struct {
	// Library lists CSL-JSON or CSL-YAML bibliography files.
	Library []string `toml:"library"`
	// Command, when set, runs an external provider speaking the envelope
	// protocol over stdio instead of the in-process service.
	Command []string `toml:"command"`
	// FormatterScript is an optional Lua script defining format_citation.
	FormatterScript string `toml:"formatter_script"`
	// Watch reloads the library when a bibliography file changes.
	Watch bool `toml:"watch"`
}

// TaskItemsConfig configures the done-task line annotator.
type TaskItemsConfig struct {
	Enabled bool   `toml:"enabled"`
	Class   string `toml:"class"`
}

// ThemeConfig holds hex colours used by the renderer.
type ThemeConfig struct {
	Citation string `toml:"citation"`
	Error    string `toml:"error"`
	Done     string `toml:"done"`
	Comment  string `toml:"comment"`
	Heading  string `toml:"heading"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Editor:  EditorConfig{TabWidth: 4, ScrollOff: 2},
		Citations: CitationsConfig{
			Enabled:    true,
			Zone:       "markdown",
			Class:      "citeproc-citation",
			ErrorClass: "error",
		},
		Citeproc: CiteprocConfig{Watch: true},
		TaskItems: TaskItemsConfig{
			Enabled: true,
			Class:   "task-item-done",
		},
		Theme: ThemeConfig{
			Citation: "#6495ed",
			Error:    "#ff5050",
			Done:     "#808080",
			Comment:  "#6a9955",
			Heading:  "#e5c07b",
		},
	}
}

// Load builds a Config from the defaults, the TOML file at path (which may
// be empty or missing) and the process environment.
func Load(path string) (Config, error) {
	return LoadFrom(loader.NewTOMLLoader(path), loader.NewEnvLoader(loader.EnvPrefix), filepath.Dir(path))
}

// LoadFrom builds a Config from explicit loaders. Relative library and
// script paths are resolved against baseDir.
func LoadFrom(file, env loader.Loader, baseDir string) (Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}

	for _, l := range []loader.Loader{file, env} {
		if l == nil {
			continue
		}
		m, err := l.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	data, err := toml.Marshal(merged)
	if err != nil {
		return Config{}, fmt.Errorf("encoding merged config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding merged config: %w", err)
	}

	cfg.resolvePaths(baseDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func toMap(cfg Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

func (c *Config) resolvePaths(baseDir string) {
	if baseDir == "" {
		return
	}
	for i, p := range c.Citeproc.Library {
		if !filepath.IsAbs(p) {
			c.Citeproc.Library[i] = filepath.Join(baseDir, p)
		}
	}
	if s := c.Citeproc.FormatterScript; s != "" && !filepath.IsAbs(s) {
		c.Citeproc.FormatterScript = filepath.Join(baseDir, s)
	}
}

// Validate checks settings that have no usable zero value.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ValidationError{Path: "logging.level", Message: err.Error()}
	}
	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 16 {
		return &ValidationError{Path: "editor.tab_width", Message: "must be between 1 and 16"}
	}
	if c.Editor.ScrollOff < 0 {
		return &ValidationError{Path: "editor.scroll_off", Message: "must not be negative"}
	}
	if c.Citations.Enabled && c.Citations.Zone == "" {
		return &ValidationError{Path: "citations.zone", Message: "must not be empty"}
	}
	if c.Citations.Class == "" || c.Citations.ErrorClass == "" {
		return &ValidationError{Path: "citations", Message: "class and error_class must be set"}
	}
	if c.TaskItems.Enabled && c.TaskItems.Class == "" {
		return &ValidationError{Path: "task_items.class", Message: "must not be empty"}
	}
	return nil
}
