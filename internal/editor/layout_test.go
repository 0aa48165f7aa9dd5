package editor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLayoutWithWidget(t *testing.T) {
	d := New("See @doe2020 now")
	w := &stubWidget{content: "<i>(Doe 2020)</i>"}
	m, _ := d.MarkText(Pos{0, 4}, Pos{0, 12}, MarkOptions{ReplacedWith: w})

	got := d.Layout(0)
	want := []Segment{
		{From: 0, To: 4, Text: "See ", Col: 0, Width: 4},
		{From: 4, To: 12, Text: "(Doe 2020)", Marker: m, Col: 4, Width: 10},
		{From: 12, To: 16, Text: " now", Col: 14, Width: 4},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Marker{})); diff != "" {
		t.Errorf("Layout() mismatch (-want +got):\n%s", diff)
	}
	if got[1].Marker != m {
		t.Error("widget segment does not carry its marker")
	}
}

func TestLayoutExpandsTabs(t *testing.T) {
	d := New("a\tb", WithTabWidth(4))
	segs := d.Layout(0)
	if len(segs) != 1 || segs[0].Text != "a   b" || segs[0].Width != 5 {
		t.Errorf("Layout() = %+v, want one segment \"a   b\" of width 5", segs)
	}
}

func TestCoordsChar(t *testing.T) {
	d := New("intro\nSee @doe2020 now\n日本")
	d.MarkText(Pos{1, 4}, Pos{1, 12}, MarkOptions{ReplacedWith: &stubWidget{content: "(Doe 2020)"}})

	tests := []struct {
		name string
		x, y int
		want Pos
	}{
		{"plain text", 2, 0, Pos{0, 2}},
		{"before widget", 3, 1, Pos{1, 3}},
		{"on widget", 9, 1, Pos{1, 4}},
		{"after widget", 15, 1, Pos{1, 13}},
		{"past line end", 40, 1, Pos{1, 16}},
		{"wide rune second cell", 3, 2, Pos{2, 3}},
		{"below document", 0, 9, Pos{2, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.CoordsChar(tt.x, tt.y); got != tt.want {
				t.Errorf("CoordsChar(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestCharCoords(t *testing.T) {
	d := New("See @doe2020 now")
	d.MarkText(Pos{0, 4}, Pos{0, 12}, MarkOptions{ReplacedWith: &stubWidget{content: "(Doe 2020)"}})

	tests := []struct {
		p     Pos
		wantX int
	}{
		{Pos{0, 2}, 2},
		{Pos{0, 4}, 4},
		{Pos{0, 12}, 14},
		{Pos{0, 16}, 18},
	}
	for _, tt := range tests {
		x, y, ok := d.CharCoords(tt.p)
		if !ok || x != tt.wantX || y != 0 {
			t.Errorf("CharCoords(%v) = %d, %d, %v, want %d, 0, true", tt.p, x, y, ok, tt.wantX)
		}
	}
}

func TestClick(t *testing.T) {
	d := New("See @doe2020 now")
	w := &stubWidget{content: "(Doe 2020)"}
	d.MarkText(Pos{0, 4}, Pos{0, 12}, MarkOptions{ReplacedWith: w})

	d.Click(6, 0)
	if diff := cmp.Diff([][2]int{{6, 0}}, w.clicks); diff != "" {
		t.Errorf("widget clicks mismatch (-want +got):\n%s", diff)
	}
	if d.HasFocus() {
		t.Error("widget click focused the document")
	}

	d.Click(1, 0)
	if d.Cursor() != (Pos{0, 1}) || !d.HasFocus() {
		t.Errorf("text click: cursor = %v, focus = %v", d.Cursor(), d.HasFocus())
	}
}
