package citeproc

import (
	"testing"

	"github.com/dshills/citemark/internal/citation"
)

var (
	doe  = Entry{ID: "doe2020", Title: "A Study of Things", Authors: []Name{{Family: "Doe", Given: "Jane"}}, Year: "2020", Publisher: "Example Press"}
	roe  = Entry{ID: "roe04", Title: "On Matters", Authors: []Name{{Family: "Roe"}, {Family: "Poe"}}, Year: "2004"}
	many = Entry{ID: "many", Authors: []Name{{Family: "Alpha"}, {Family: "Beta"}, {Family: "Gamma"}}, Year: "2011"}
	anon = Entry{ID: "anon", Title: "Untitled Page"}
)

func TestAuthorDateCitation(t *testing.T) {
	tests := []struct {
		name      string
		cites     []Cited
		composite bool
		want      string
	}{
		{
			name: "parenthetical group",
			cites: []Cited{
				{Item: citation.Item{ID: "doe2020", Prefix: "see", Label: "page", Locator: "33"}, Entry: doe},
				{Item: citation.Item{ID: "roe04"}, Entry: roe},
			},
			want: "(see Doe 2020, 33; Roe and Poe 2004)",
		},
		{
			name:      "in text with locator",
			cites:     []Cited{{Item: citation.Item{ID: "doe2020", Label: "page", Locator: "33"}, Entry: doe}},
			composite: true,
			want:      "Doe (2020, 33)",
		},
		{
			name:  "suppress author",
			cites: []Cited{{Item: citation.Item{ID: "doe2020", SuppressAuthor: true}, Entry: doe}},
			want:  "(2020)",
		},
		{
			name:  "et al.",
			cites: []Cited{{Item: citation.Item{ID: "many", Label: "chapter", Locator: "2"}, Entry: many}},
			want:  "(Alpha et al. 2011, chap. 2)",
		},
		{
			name:  "no author, no date",
			cites: []Cited{{Item: citation.Item{ID: "anon"}, Entry: anon}},
			want:  "(<i>Untitled Page</i> n.d.)",
		},
		{
			name:  "suffix is escaped",
			cites: []Cited{{Item: citation.Item{ID: "doe2020", Suffix: "a < b"}, Entry: doe}},
			want:  "(Doe 2020, a &lt; b)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AuthorDate{}.FormatCitation(tt.cites, tt.composite)
			if err != nil {
				t.Fatalf("FormatCitation() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatCitation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthorDateBibliography(t *testing.T) {
	article := Entry{
		ID: "roe04", Title: "On Matters", ContainerTitle: "Journal of Matters",
		Volume: "12", Issue: "3", Page: "33-45", DOI: "10.1000/xyz",
		Authors: []Name{{Family: "Roe", Given: "Richard"}, {Family: "Poe", Given: "Edgar"}},
		Year:    "2004",
	}
	got, err := AuthorDate{}.FormatBibliography([]Entry{article, doe})
	if err != nil {
		t.Fatalf("FormatBibliography() error = %v", err)
	}
	want := `<div class="csl-entry">Doe, Jane. 2020. <i>A Study of Things</i>. Example Press.</div>` + "\n" +
		`<div class="csl-entry">Roe, Richard, and Edgar Poe. 2004. “On Matters.” <i>Journal of Matters</i> 12 (3): 33-45. https://doi.org/10.1000/xyz.</div>`
	if got != want {
		t.Errorf("FormatBibliography() =\n%s\nwant\n%s", got, want)
	}
}
