package citeproc

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/citemark/internal/citation"
)

// Cited pairs a citation item with its bibliography entry.
type Cited struct {
	Item  citation.Item
	Entry Entry
}

// Formatter renders citations and bibliographies as HTML fragments.
type Formatter interface {
	FormatCitation(cites []Cited, composite bool) (string, error)
	FormatBibliography(entries []Entry) (string, error)
}

// AuthorDate renders citations in an author-date style:
// "(see Doe 2020, 33; Roe and Poe 2004)" or, in text, "Doe (2020, 33)".
type AuthorDate struct{}

var locatorAbbrev = map[string]string{
	"book":      "bk.",
	"chapter":   "chap.",
	"column":    "col.",
	"figure":    "fig.",
	"folio":     "fol.",
	"line":      "l.",
	"note":      "n.",
	"number":    "no.",
	"opus":      "op.",
	"paragraph": "para.",
	"part":      "pt.",
	"section":   "sec.",
	"sub verbo": "s.v.",
	"verse":     "v.",
	"volume":    "vol.",
}

// FormatCitation implements Formatter.
func (AuthorDate) FormatCitation(cites []Cited, composite bool) (string, error) {
	parts := make([]string, 0, len(cites))
	if composite {
		for _, c := range cites {
			parts = append(parts, inText(c))
		}
		return strings.Join(parts, "; "), nil
	}
	for _, c := range cites {
		parts = append(parts, parenthetical(c))
	}
	return "(" + strings.Join(parts, "; ") + ")", nil
}

func inText(c Cited) string {
	paren := "(" + dateAndLocator(c) + ")"
	if c.Item.SuppressAuthor {
		return paren
	}
	return authorLabel(c.Entry) + " " + paren
}

func parenthetical(c Cited) string {
	var b strings.Builder
	if c.Item.Prefix != "" {
		b.WriteString(html.EscapeString(c.Item.Prefix))
		b.WriteByte(' ')
	}
	if !c.Item.SuppressAuthor {
		b.WriteString(authorLabel(c.Entry))
		b.WriteByte(' ')
	}
	b.WriteString(dateAndLocator(c))
	return b.String()
}

func dateAndLocator(c Cited) string {
	s := year(c.Entry)
	if loc := locator(c.Item); loc != "" {
		s += ", " + loc
	}
	if c.Item.Suffix != "" {
		s += ", " + html.EscapeString(c.Item.Suffix)
	}
	return s
}

func year(e Entry) string {
	if e.Year == "" {
		return "n.d."
	}
	return html.EscapeString(e.Year)
}

func locator(it citation.Item) string {
	if it.Locator == "" {
		return ""
	}
	loc := html.EscapeString(it.Locator)
	if abbr := locatorAbbrev[it.Label]; abbr != "" {
		return abbr + " " + loc
	}
	return loc
}

// authorLabel returns the short author form, falling back to editors and
// then to the italicised title.
func authorLabel(e Entry) string {
	names := e.Authors
	if len(names) == 0 {
		names = e.Editors
	}
	switch len(names) {
	case 0:
		return "<i>" + html.EscapeString(e.Title) + "</i>"
	case 1:
		return html.EscapeString(names[0].Short())
	case 2:
		return html.EscapeString(names[0].Short() + " and " + names[1].Short())
	}
	return html.EscapeString(names[0].Short()) + " et al."
}

// FormatBibliography implements Formatter. Entries are sorted by author
// and year, one csl-entry div per line.
func (AuthorDate) FormatBibliography(entries []Entry) (string, error) {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sortKey(sorted[i]), sortKey(sorted[j])
		if a != b {
			return a < b
		}
		return sorted[i].Year < sorted[j].Year
	})

	lines := make([]string, 0, len(sorted))
	for _, e := range sorted {
		lines = append(lines, `<div class="csl-entry">`+bibEntry(e)+`</div>`)
	}
	return strings.Join(lines, "\n"), nil
}

func sortKey(e Entry) string {
	if len(e.Authors) > 0 {
		return strings.ToLower(e.Authors[0].Inverted())
	}
	return strings.ToLower(e.Title)
}

func bibEntry(e Entry) string {
	var parts []string
	if names := bibNames(e.Authors); names != "" {
		parts = append(parts, names+".")
	}
	parts = append(parts, year(e)+".")

	title := html.EscapeString(e.Title)
	if e.ContainerTitle != "" {
		parts = append(parts, "“"+title+".”")
		container := "<i>" + html.EscapeString(e.ContainerTitle) + "</i>"
		if e.Volume != "" {
			container += " " + html.EscapeString(e.Volume)
			if e.Issue != "" {
				container += " (" + html.EscapeString(e.Issue) + ")"
			}
		}
		if e.Page != "" {
			container += ": " + html.EscapeString(e.Page)
		}
		parts = append(parts, container+".")
	} else if title != "" {
		parts = append(parts, "<i>"+title+"</i>.")
	}
	if e.Publisher != "" {
		parts = append(parts, html.EscapeString(e.Publisher)+".")
	}
	switch {
	case e.DOI != "":
		parts = append(parts, "https://doi.org/"+html.EscapeString(e.DOI)+".")
	case e.URL != "":
		parts = append(parts, html.EscapeString(e.URL)+".")
	}
	return strings.Join(parts, " ")
}

func bibNames(names []Name) string {
	out := make([]string, len(names))
	for i, n := range names {
		if i == 0 {
			out[i] = n.Inverted()
		} else if n.Given != "" && n.Family != "" {
			out[i] = n.Given + " " + n.Family
		} else {
			out[i] = n.Short()
		}
	}
	var s string
	switch len(out) {
	case 0:
		return ""
	case 1:
		s = out[0]
	case 2:
		s = out[0] + ", and " + out[1]
	default:
		s = strings.Join(out[:len(out)-1], ", ") + ", and " + out[len(out)-1]
	}
	return html.EscapeString(s)
}
