package citeproc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Name is a CSL name.
type Name struct {
	Family  string
	Given   string
	Literal string
}

// Short returns the name used in citations.
func (n Name) Short() string {
	switch {
	case n.Family != "":
		return n.Family
	case n.Literal != "":
		return n.Literal
	}
	return n.Given
}

// Inverted returns "Family, Given" for bibliographies.
func (n Name) Inverted() string {
	if n.Family != "" && n.Given != "" {
		return n.Family + ", " + n.Given
	}
	return n.Short()
}

// Entry is a bibliography entry read from CSL data.
type Entry struct {
	ID             string
	Type           string
	Title          string
	ContainerTitle string
	Publisher      string
	Volume         string
	Issue          string
	Page           string
	URL            string
	DOI            string
	Authors        []Name
	Editors        []Name
	// Year is the issued year, "" when undated.
	Year string
}

// Library holds bibliography entries keyed by citation key. It is safe
// for concurrent use.
type Library struct {
	mu      sync.RWMutex
	paths   []string
	entries map[string]Entry
}

// NewLibrary creates a library backed by the given files. Call Load to
// read them.
func NewLibrary(paths ...string) *Library {
	return &Library{paths: paths, entries: make(map[string]Entry)}
}

// Paths returns the backing files.
func (l *Library) Paths() []string {
	return append([]string(nil), l.paths...)
}

// Load reads every backing file and replaces the library contents.
// Entries from files that load are kept even when others fail; the
// failures are returned joined.
func (l *Library) Load() error {
	entries := make(map[string]Entry)
	var errs []error
	for _, path := range l.paths {
		loaded, err := ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Path: path, Err: err})
			continue
		}
		for _, e := range loaded {
			entries[e.ID] = e
		}
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	return errors.Join(errs...)
}

// Add inserts entries, replacing any with the same ID.
func (l *Library) Add(entries ...Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		l.entries[e.ID] = e
	}
}

// Lookup returns the entry for id.
func (l *Library) Lookup(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	return e, ok
}

// Len returns the number of entries.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Keys returns all citation keys, sorted.
func (l *Library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReadFile parses a CSL-JSON (.json, .jsonc) or CSL-YAML (.yaml, .yml)
// bibliography.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return ParseCSLJSON(data)
	case ".yaml", ".yml":
		return ParseCSLYAML(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// ParseCSLJSON parses CSL-JSON. Comments and trailing commas are allowed.
func ParseCSLJSON(data []byte) ([]Entry, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse CSL-JSON: %w", err)
	}
	root := gjson.ParseBytes(std)
	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.Get("items").IsArray():
		items = root.Get("items").Array()
	case root.IsObject():
		items = []gjson.Result{root}
	default:
		return nil, fmt.Errorf("parse CSL-JSON: expected array of items")
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		e := entryFromJSON(item)
		if e.ID == "" {
			return nil, fmt.Errorf("parse CSL-JSON: item %d has no id", i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseCSLYAML parses CSL-YAML: either a list of items or a document with a
// "references" list, as in Pandoc metadata.
func ParseCSLYAML(data []byte) ([]Entry, error) {
	var doc any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse CSL-YAML: %w", err)
	}
	if m, ok := doc.(map[string]any); ok {
		doc = m["references"]
	}
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse CSL-YAML: %w", err)
	}
	return ParseCSLJSON(raw)
}

var yearRE = regexp.MustCompile(`\d{4}`)

func entryFromJSON(r gjson.Result) Entry {
	e := Entry{
		ID:             r.Get("id").String(),
		Type:           r.Get("type").String(),
		Title:          r.Get("title").String(),
		ContainerTitle: r.Get("container-title").String(),
		Publisher:      r.Get("publisher").String(),
		Volume:         r.Get("volume").String(),
		Issue:          r.Get("issue").String(),
		Page:           r.Get("page").String(),
		URL:            r.Get("URL").String(),
		DOI:            r.Get("DOI").String(),
		Authors:        namesFromJSON(r.Get("author")),
		Editors:        namesFromJSON(r.Get("editor")),
	}

	issued := r.Get("issued")
	switch {
	case issued.Get("date-parts.0.0").Exists():
		e.Year = issued.Get("date-parts.0.0").String()
	case issued.Get("literal").Exists():
		e.Year = issued.Get("literal").String()
	case issued.Get("raw").Exists():
		e.Year = yearRE.FindString(issued.Get("raw").String())
	case issued.Type == gjson.String || issued.Type == gjson.Number:
		e.Year = yearRE.FindString(issued.String())
	}
	return e
}

func namesFromJSON(r gjson.Result) []Name {
	var names []Name
	for _, n := range r.Array() {
		names = append(names, Name{
			Family:  n.Get("family").String(),
			Given:   n.Get("given").String(),
			Literal: n.Get("literal").String(),
		})
	}
	return names
}
