package renderer

import (
	"fmt"
	"strings"

	"github.com/dshills/citemark/internal/config"
	"github.com/dshills/citemark/internal/highlight"
)

// Theme maps token types and classes to styles.
type Theme struct {
	Text     Style
	Citation Style
	Error    Style
	Done     Style
	Comment  Style
	Heading  Style
	Code     Style
	Meta     Style
	Link     Style
	Status   Style

	// ErrorClass marks placeholders drawn with Error.
	ErrorClass string
	// DoneClass marks lines drawn with Done.
	DoneClass string
}

// NewTheme builds a theme from configured colours.
func NewTheme(cfg config.ThemeConfig) (Theme, error) {
	colors := make(map[string]Color, 5)
	for name, hex := range map[string]string{
		"citation": cfg.Citation,
		"error":    cfg.Error,
		"done":     cfg.Done,
		"comment":  cfg.Comment,
		"heading":  cfg.Heading,
	} {
		c, err := ParseColor(hex)
		if err != nil {
			return Theme{}, fmt.Errorf("theme.%s: %w", name, err)
		}
		colors[name] = c
	}

	black := ColorFromRGB(0, 0, 0)
	return Theme{
		Text:     DefaultStyle(),
		Citation: NewStyle(colors["citation"]),
		Error:    NewStyle(colors["error"]).With(AttrUnderline),
		Done:     NewStyle(colors["done"]).With(AttrStrikethrough),
		Comment:  NewStyle(colors["comment"]).With(AttrItalic),
		Heading:  NewStyle(colors["heading"]).With(AttrBold),
		Code:     NewStyle(colors["comment"].Blend(colors["heading"], 0.5)),
		Meta:     DefaultStyle().With(AttrDim),
		Link:     DefaultStyle().With(AttrUnderline),
		Status: Style{
			Foreground: ColorDefault,
			Background: colors["citation"].Blend(black, 0.7),
		},
		ErrorClass: "error",
		DoneClass:  "task-item-done",
	}, nil
}

// DefaultTheme returns the theme for the default configuration.
func DefaultTheme() Theme {
	t, err := NewTheme(config.Default().Theme)
	if err != nil {
		panic(err)
	}
	return t
}

// tokenStyle returns the style of the token covering byte column col.
func (t Theme) tokenStyle(tokens []highlight.Token, col int) Style {
	for _, tok := range tokens {
		if !tok.Contains(col) {
			continue
		}
		switch tok.Type {
		case highlight.TokenComment:
			return t.Comment
		case highlight.TokenHeading:
			return t.Heading
		case highlight.TokenCode:
			return t.Code
		case highlight.TokenMeta:
			return t.Meta
		case highlight.TokenLink:
			return t.Link
		case highlight.TokenEmphasis:
			return DefaultStyle().With(AttrItalic)
		case highlight.TokenStrong:
			return DefaultStyle().With(AttrBold)
		}
	}
	return DefaultStyle()
}

func hasClass(list, class string) bool {
	return class != "" && containsField(strings.Fields(list), class)
}

func containsField(fields []string, s string) bool {
	for _, f := range fields {
		if f == s {
			return true
		}
	}
	return false
}
