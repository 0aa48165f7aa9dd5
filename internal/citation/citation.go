// Package citation finds Pandoc citation syntax in a line of Markdown.
//
// Two forms are recognised. A bracketed group such as
// "[see @doe2020, p. 33; -@roe04]" produces one Match covering the brackets.
// An in-text citation such as "@doe2020" or "@doe2020 [p. 33]" produces a
// composite Match covering the key and its optional locator.
//
// Offsets are byte columns within the line.
package citation

import (
	"errors"
	"strings"
)

// ErrInvalidUTF8 is returned for lines that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("line is not valid UTF-8")

// Item is one cited work within a citation.
type Item struct {
	ID             string `json:"id"`
	Prefix         string `json:"prefix,omitempty"`
	Locator        string `json:"locator,omitempty"`
	Label          string `json:"label,omitempty"`
	Suffix         string `json:"suffix,omitempty"`
	SuppressAuthor bool   `json:"suppress-author,omitempty"`
}

// Match is a citation found in a line.
type Match struct {
	// From and To delimit the match; To is exclusive.
	From, To int
	// Items holds the cited works in order of appearance. It is empty for
	// a bracketed group that mentions "@" but holds no valid key.
	Items []Item
	// Composite is set for in-text citations, rendered as "Doe (2020)".
	Composite bool
}

// Keys returns the item IDs in order.
func (m Match) Keys() []string {
	keys := make([]string, len(m.Items))
	for i, it := range m.Items {
		keys[i] = it.ID
	}
	return keys
}

// KeyList returns the keys joined with commas.
func (m Match) KeyList() string {
	return strings.Join(m.Keys(), ",")
}

// locatorLabels maps locator terms to CSL locator labels.
var locatorLabels = map[string]string{
	"bk.": "book", "bks.": "book", "book": "book",
	"chap.": "chapter", "chaps.": "chapter", "chapter": "chapter", "ch.": "chapter",
	"col.": "column", "cols.": "column", "column": "column",
	"fig.": "figure", "figs.": "figure", "figure": "figure",
	"fol.": "folio", "fols.": "folio", "folio": "folio",
	"no.": "number", "nos.": "number", "number": "number",
	"l.": "line", "ll.": "line", "line": "line",
	"n.": "note", "nn.": "note", "note": "note",
	"op.": "opus", "opp.": "opus", "opus": "opus",
	"p.": "page", "pp.": "page", "page": "page", "pages": "page",
	"para.": "paragraph", "paras.": "paragraph", "paragraph": "paragraph", "¶": "paragraph",
	"pt.": "part", "pts.": "part", "part": "part",
	"sec.": "section", "secs.": "section", "section": "section", "§": "section",
	"s.v.": "sub verbo", "s.vv.": "sub verbo",
	"v.": "verse", "vv.": "verse", "verse": "verse",
	"vol.": "volume", "vols.": "volume", "volume": "volume",
}
