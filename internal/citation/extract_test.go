package citation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Match
	}{
		{
			name: "in-text",
			line: "See @doe2020 for details",
			want: []Match{{From: 4, To: 12, Composite: true, Items: []Item{{ID: "doe2020"}}}},
		},
		{
			name: "in-text with locator",
			line: "@doe2020 [p. 33] says",
			want: []Match{{From: 0, To: 16, Composite: true, Items: []Item{{ID: "doe2020", Label: "page", Locator: "33"}}}},
		},
		{
			name: "trailing punctuation",
			line: "as shown by @doe2020.",
			want: []Match{{From: 12, To: 20, Composite: true, Items: []Item{{ID: "doe2020"}}}},
		},
		{
			name: "internal punctuation",
			line: "@doe:2020-a",
			want: []Match{{From: 0, To: 11, Composite: true, Items: []Item{{ID: "doe:2020-a"}}}},
		},
		{
			name: "braced key",
			line: "@{Doe, J. 2020} wrote",
			want: []Match{{From: 0, To: 15, Composite: true, Items: []Item{{ID: "Doe, J. 2020"}}}},
		},
		{
			name: "bracketed group",
			line: "Text [see @doe2020, p. 33; -@roe04, chap. 2, passim].",
			want: []Match{{
				From: 5,
				To:   52,
				Items: []Item{
					{ID: "doe2020", Prefix: "see", Label: "page", Locator: "33"},
					{ID: "roe04", SuppressAuthor: true, Label: "chapter", Locator: "2", Suffix: "passim"},
				},
			}},
		},
		{
			name: "page range and suffix",
			line: "[@doe2020, 33-35, emphasis added]",
			want: []Match{{From: 0, To: 33, Items: []Item{{ID: "doe2020", Label: "page", Locator: "33-35", Suffix: "emphasis added"}}}},
		},
		{
			name: "double brackets yield the inner group",
			line: "See [[@doe2020]]",
			want: []Match{{From: 5, To: 15, Items: []Item{{ID: "doe2020"}}}},
		},
		{
			name: "group without valid key",
			line: "[write to me@example.com]",
			want: []Match{{From: 0, To: 25}},
		},
		{
			name: "email address",
			line: "mail me@example.com",
			want: nil,
		},
		{
			name: "link text",
			line: "[see @doe](https://example.com)",
			want: nil,
		},
		{
			name: "plain brackets",
			line: "[x] done [p. 3]",
			want: nil,
		},
		{
			name: "two citations",
			line: "@a and [@b]",
			want: []Match{
				{From: 0, To: 2, Composite: true, Items: []Item{{ID: "a"}}},
				{From: 7, To: 11, Items: []Item{{ID: "b"}}},
			},
		},
		{
			name: "key is NFC-normalised",
			line: "@mu\u0308ller",
			want: []Match{{From: 0, To: 9, Composite: true, Items: []Item{{ID: "m\u00fcller"}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.line)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	if _, err := Extract("bad \xff @doe"); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Extract() error = %v, want ErrInvalidUTF8", err)
	}
}

func TestMatchKeys(t *testing.T) {
	m := Match{Items: []Item{{ID: "a"}, {ID: "b"}}}
	if got := m.KeyList(); got != "a,b" {
		t.Errorf("KeyList() = %q, want %q", got, "a,b")
	}
	if got := (Match{}).Keys(); len(got) != 0 {
		t.Errorf("Keys() = %v, want empty", got)
	}
}
