// Package markup converts the HTML fragments produced by the citation
// formatter into styled text runs for terminal display.
package markup

import (
	"html"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Style is a set of text attributes.
type Style uint8

const (
	Italic Style = 1 << iota
	Bold
	Underline
	SmallCaps
	Superscript
	Subscript
)

// Has reports whether s includes all attributes in o.
func (s Style) Has(o Style) bool {
	return s&o == o
}

// Run is a piece of text with uniform style.
type Run struct {
	Text  string
	Style Style
}

// tagStyles maps element names to the style they contribute.
var tagStyles = map[string]Style{
	"i":      Italic,
	"em":     Italic,
	"b":      Bold,
	"strong": Bold,
	"u":      Underline,
	"sup":    Superscript,
	"sub":    Subscript,
}

// Parse splits a markup fragment into styled runs. Unknown elements are
// transparent; block elements separate runs with a single space. Adjacent
// runs of the same style are merged.
func Parse(fragment string) []Run {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	var runs []Run
	var stack []Style
	current := Style(0)

	push := func(text string) {
		if text == "" {
			return
		}
		if n := len(runs); n > 0 && runs[n-1].Style == current {
			runs[n-1].Text += text
			return
		}
		runs = append(runs, Run{Text: text, Style: current})
	}

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			if z.Err() != io.EOF {
				push(html.UnescapeString(string(z.Raw())))
			}
			return runs

		case xhtml.TextToken:
			push(collapseSpace(string(z.Text())))

		case xhtml.StartTagToken:
			name, hasAttr := z.TagName()
			style := tagStyles[string(name)]
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "style" && strings.Contains(string(val), "small-caps") {
					style |= SmallCaps
				}
			}
			if isBlock(string(name)) && len(runs) > 0 {
				push(" ")
			}
			stack = append(stack, current)
			current |= style

		case xhtml.EndTagToken:
			if n := len(stack); n > 0 {
				current = stack[n-1]
				stack = stack[:n-1]
			}

		case xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				push(" ")
			}
		}
	}
}

// Plain returns the text content of a fragment without styling.
func Plain(fragment string) string {
	var b strings.Builder
	for _, r := range Parse(fragment) {
		b.WriteString(r.Text)
	}
	return strings.TrimSpace(b.String())
}

func isBlock(name string) bool {
	switch name {
	case "div", "p", "li", "br":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	if !strings.ContainsAny(s, "\n\t\r") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
