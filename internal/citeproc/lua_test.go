package citeproc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/citemark/internal/citation"
)

const numericScript = `
function format_citation(items, composite)
  if composite then
    return nil
  end
  local parts = {}
  for i, it in ipairs(items) do
    parts[#parts + 1] = string.upper(it.author) .. " " .. it.year
  end
  return "[" .. table.concat(parts, "; ") .. "]"
end
`

func TestLuaFormatter(t *testing.T) {
	f, err := NewLuaFormatter(numericScript, nil)
	if err != nil {
		t.Fatalf("NewLuaFormatter() error = %v", err)
	}
	defer f.Close()

	cites := []Cited{
		{Item: citation.Item{ID: "doe2020"}, Entry: doe},
		{Item: citation.Item{ID: "roe04"}, Entry: roe},
	}
	got, err := f.FormatCitation(cites, false)
	if err != nil {
		t.Fatalf("FormatCitation() error = %v", err)
	}
	if want := "[DOE 2020; ROE 2004]"; got != want {
		t.Errorf("FormatCitation() = %q, want %q", got, want)
	}

	got, err = f.FormatCitation(cites[:1], true)
	if err != nil {
		t.Fatalf("FormatCitation(composite) error = %v", err)
	}
	if want := "Doe (2020)"; got != want {
		t.Errorf("FormatCitation(composite) = %q, want fallback %q", got, want)
	}

	bib, err := f.FormatBibliography([]Entry{doe})
	if err != nil || !strings.Contains(bib, "csl-entry") {
		t.Errorf("FormatBibliography() = %q, %v, want fallback output", bib, err)
	}
}

func TestLuaFormatterErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", "function ("},
		{"no function", "x = 1"},
		{"io is unavailable", "io.open('x')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLuaFormatter(tt.src, nil); err == nil {
				t.Error("NewLuaFormatter() error = nil")
			}
		})
	}

	if _, err := NewLuaFormatter("y = 2", nil); !errors.Is(err, ErrNoFormatFunction) {
		t.Errorf("NewLuaFormatter() error = %v, want ErrNoFormatFunction", err)
	}

	f, err := NewLuaFormatter(`function format_citation() return 42 end`, nil)
	if err != nil {
		t.Fatalf("NewLuaFormatter() error = %v", err)
	}
	defer f.Close()
	if _, err := f.FormatCitation(nil, false); err == nil {
		t.Error("FormatCitation() accepted a number result")
	}
}

func TestLuaFormatterTimeout(t *testing.T) {
	f, err := NewLuaFormatter(`function format_citation() while true do end end`, nil)
	if err != nil {
		t.Fatalf("NewLuaFormatter() error = %v", err)
	}
	defer f.Close()
	f.timeout = 50 * time.Millisecond

	if _, err := f.FormatCitation(nil, false); err == nil {
		t.Error("FormatCitation() returned without error from an endless loop")
	}
}
