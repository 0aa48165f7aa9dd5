package citations

import (
	"html"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/citemark/internal/editor"
)

// AttrCiteKeys is the placeholder attribute holding the comma-joined keys.
const AttrCiteKeys = "data-citekeys"

// Placeholder is the widget shown in place of a citation. It starts out
// showing the raw citation text and is filled with rendered markup once the
// citation resolves.
type Placeholder struct {
	id      uuid.UUID
	keys    []string
	raw     string
	content string
	classes []string

	mark    *editor.Marker
	onClick func(p *Placeholder, x, y int)
	onClear func(p *Placeholder)
}

func newPlaceholder(raw string, keys []string, class string) *Placeholder {
	return &Placeholder{
		id:      uuid.New(),
		keys:    keys,
		raw:     raw,
		content: html.EscapeString(raw),
		classes: []string{class},
	}
}

// ID returns the placeholder identity.
func (p *Placeholder) ID() uuid.UUID {
	return p.id
}

// Keys returns the citation keys in order of appearance.
func (p *Placeholder) Keys() []string {
	return slices.Clone(p.keys)
}

// Raw returns the citation text the placeholder covers.
func (p *Placeholder) Raw() string {
	return p.raw
}

// Attr returns a named attribute. Only AttrCiteKeys is defined.
func (p *Placeholder) Attr(name string) string {
	if name == AttrCiteKeys {
		return strings.Join(p.keys, ",")
	}
	return ""
}

// Content implements editor.Widget.
func (p *Placeholder) Content() string {
	return p.content
}

// Classes implements editor.Classed.
func (p *Placeholder) Classes() []string {
	return slices.Clone(p.classes)
}

// HasClass reports whether the placeholder carries class.
func (p *Placeholder) HasClass(class string) bool {
	return slices.Contains(p.classes, class)
}

// Attached reports whether the placeholder is displayed by a live marker.
func (p *Placeholder) Attached() bool {
	return p.mark != nil && !p.mark.Cleared()
}

// Mounted implements editor.Widget.
func (p *Placeholder) Mounted(m *editor.Marker) {
	p.mark = m
	if m == nil && p.onClear != nil {
		p.onClear(p)
	}
}

// Click implements editor.Clickable.
func (p *Placeholder) Click(x, y int) {
	if p.onClick != nil {
		p.onClick(p, x, y)
	}
}

func (p *Placeholder) setContent(markup string) {
	p.content = markup
}

func (p *Placeholder) addClass(class string) {
	if !p.HasClass(class) {
		p.classes = append(p.classes, class)
	}
}
