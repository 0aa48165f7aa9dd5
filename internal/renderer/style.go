package renderer

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/citemark/internal/markup"
)

// Attribute represents text attributes (bold, italic, etc.).
type Attribute uint16

// Text attribute flags.
const (
	AttrNone Attribute = 0
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrReverse
	AttrStrikethrough
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// Style represents the visual style of text.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle returns the default terminal style.
func DefaultStyle() Style {
	return Style{Foreground: ColorDefault, Background: ColorDefault}
}

// NewStyle creates a style with the given foreground color.
func NewStyle(fg Color) Style {
	return Style{Foreground: fg, Background: ColorDefault}
}

// With returns a new style with attrs added.
func (s Style) With(attrs Attribute) Style {
	s.Attributes |= attrs
	return s
}

// Merge combines two styles.
// The other style takes precedence for non-default values.
// Attributes are OR'd together.
func (s Style) Merge(other Style) Style {
	if !other.Foreground.IsDefault() {
		s.Foreground = other.Foreground
	}
	if !other.Background.IsDefault() {
		s.Background = other.Background
	}
	s.Attributes |= other.Attributes
	return s
}

// withMarkup adds the attributes of a markup run.
func (s Style) withMarkup(m markup.Style) Style {
	if m.Has(markup.Italic) {
		s.Attributes |= AttrItalic
	}
	if m.Has(markup.Bold) {
		s.Attributes |= AttrBold
	}
	if m.Has(markup.Underline) {
		s.Attributes |= AttrUnderline
	}
	return s
}

var tcellAttrs = []struct {
	attr Attribute
	tc   tcell.AttrMask
}{
	{AttrBold, tcell.AttrBold},
	{AttrDim, tcell.AttrDim},
	{AttrItalic, tcell.AttrItalic},
	{AttrUnderline, tcell.AttrUnderline},
	{AttrReverse, tcell.AttrReverse},
	{AttrStrikethrough, tcell.AttrStrikeThrough},
}

// Tcell converts the style for a tcell screen.
func (s Style) Tcell() tcell.Style {
	ts := tcell.StyleDefault.Foreground(s.Foreground.Tcell()).Background(s.Background.Tcell())
	var mask tcell.AttrMask
	for _, a := range tcellAttrs {
		if s.Attributes.Has(a.attr) {
			mask |= a.tc
		}
	}
	return ts.Attributes(mask)
}

var sgrAttrs = []struct {
	attr Attribute
	code string
}{
	{AttrBold, "1"},
	{AttrDim, "2"},
	{AttrItalic, "3"},
	{AttrUnderline, "4"},
	{AttrReverse, "7"},
	{AttrStrikethrough, "9"},
}

// SGR returns the ANSI escape sequence that selects the style.
func (s Style) SGR() string {
	codes := []string{"0"}
	for _, a := range sgrAttrs {
		if s.Attributes.Has(a.attr) {
			codes = append(codes, a.code)
		}
	}
	if c := s.Foreground; !c.Default {
		codes = append(codes, "38;2", strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B)))
	}
	if c := s.Background; !c.Default {
		codes = append(codes, "48;2", strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B)))
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}
