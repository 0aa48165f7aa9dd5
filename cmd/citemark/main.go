// Command citemark is a terminal Markdown editor that shows Pandoc
// citations as formatted text.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gdamore/tcell/v2"
	"github.com/natefinch/atomic"
	"golang.org/x/term"

	"github.com/dshills/citemark/internal/app"
	"github.com/dshills/citemark/internal/citeproc"
	"github.com/dshills/citemark/internal/config"
	"github.com/dshills/citemark/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI defines the command-line interface for citemark.
var CLI struct {
	Config   string   `name:"config" short:"c" help:"Path to configuration file" type:"path"`
	Library  []string `name:"library" short:"l" help:"Bibliography file (CSL JSON or YAML); may be repeated" type:"path"`
	LogLevel string   `name:"log-level" help:"Log level (debug, info, warn, error)"`

	View    ViewCmd    `cmd:"" default:"withargs" help:"Edit a Markdown file"`
	Render  RenderCmd  `cmd:"" help:"Print a Markdown file with its citations formatted"`
	Serve   ServeCmd   `cmd:"" help:"Serve citation requests on stdin and stdout"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func options(file string) app.Options {
	return app.Options{
		ConfigPath: CLI.Config,
		File:       file,
		Library:    CLI.Library,
		LogLevel:   CLI.LogLevel,
	}
}

// ViewCmd opens the interactive editor.
type ViewCmd struct {
	File string `arg:"" optional:"" help:"Markdown file to edit" type:"path"`
}

func (c *ViewCmd) Run(ctx context.Context) error {
	opts := options(c.File)
	// Logs must not reach the terminal the editor draws on.
	opts.LogOutput = io.Discard
	application, err := app.New(opts)
	if err != nil {
		return err
	}
	defer application.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialize screen: %w", err)
	}
	defer screen.Fini()

	return application.Run(ctx, screen)
}

// RenderCmd formats every citation in a file and prints the result.
type RenderCmd struct {
	File         string        `arg:"" help:"Markdown file to render" type:"existingfile"`
	Output       string        `short:"o" help:"Write to this file instead of stdout" type:"path"`
	Bibliography bool          `short:"b" help:"Append the cited references"`
	Color        string        `help:"Colour output (auto, always, never)" enum:"auto,always,never" default:"auto"`
	Timeout      time.Duration `help:"Give up on unresolved citations after this long" default:"30s"`
}

func (c *RenderCmd) Run(ctx context.Context) error {
	application, err := app.New(options(c.File))
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	out, err := application.Render(ctx, c.ansi())
	if err != nil {
		return err
	}
	if c.Bibliography {
		bib, err := application.Bibliography(ctx)
		if err != nil {
			return err
		}
		if bib != "" {
			out = strings.TrimRight(out, "\n") + "\n\n" + bib + "\n"
		}
	}

	if c.Output != "" {
		return atomic.WriteFile(c.Output, strings.NewReader(out))
	}
	_, err = io.WriteString(os.Stdout, out)
	return err
}

func (c *RenderCmd) ansi() bool {
	switch c.Color {
	case "always":
		return true
	case "never":
		return false
	}
	return c.Output == "" && term.IsTerminal(int(os.Stdout.Fd()))
}

// ServeCmd answers citation requests from another process, one JSON-RPC
// message per line.
type ServeCmd struct{}

func (c *ServeCmd) Run(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.LogLevel != "" {
		cfg.Logging.Level = CLI.LogLevel
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: level, Output: os.Stderr, Prefix: "citemark-serve"})

	lib := citeproc.NewLibrary(append(cfg.Citeproc.Library, CLI.Library...)...)
	if err := lib.Load(); err != nil {
		logger.Warn("bibliography: %v", err)
	}

	var formatter citeproc.Formatter
	if cfg.Citeproc.FormatterScript != "" {
		lf, err := citeproc.LoadLuaFormatter(cfg.Citeproc.FormatterScript, nil)
		if err != nil {
			return err
		}
		defer lf.Close()
		formatter = lf
	}

	logger.Info("serving %d references", lib.Len())
	return citeproc.Serve(ctx, os.Stdin, os.Stdout, citeproc.NewService(lib, formatter, logger), logger)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("citemark %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Built: %s\n", date)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&CLI,
		kong.Name("citemark"),
		kong.Description("Markdown editor with inline citation rendering"),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := kctx.Run(); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
