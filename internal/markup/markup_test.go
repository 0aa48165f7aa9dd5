package markup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Run
	}{
		{"plain", "(Doe 2020)", []Run{{Text: "(Doe 2020)"}}},
		{"entities", "Doe &amp; Roe", []Run{{Text: "Doe & Roe"}}},
		{
			"nested",
			"(<i>Title <b>Bold</b></i>, 2020)",
			[]Run{
				{Text: "("},
				{Text: "Title ", Style: Italic},
				{Text: "Bold", Style: Italic | Bold},
				{Text: ", 2020)"},
			},
		},
		{
			"small caps span",
			`<span style="font-variant:small-caps;">Doe</span> 2020`,
			[]Run{{Text: "Doe", Style: SmallCaps}, {Text: " 2020"}},
		},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestPlain(t *testing.T) {
	got := Plain(`<div class="csl-entry">Doe, J. (2020). <i>Book</i>.</div>`)
	if got != "Doe, J. (2020). Book." {
		t.Errorf("Plain() = %q", got)
	}
}

func TestStyleHas(t *testing.T) {
	s := Italic | Bold
	if !s.Has(Italic) || s.Has(Underline) {
		t.Errorf("Has() wrong for %v", s)
	}
}
