package highlight

import (
	"regexp"
	"strings"
)

// Mode names reported for non-prose lines.
const (
	ModeFrontMatter = "yaml"
	ModeCode        = "code"
)

var (
	headingRE = regexp.MustCompile(`^#{1,6}(\s|$)`)
	listRE    = regexp.MustCompile(`^\s*([-+*]|\d+[.)])\s`)
	fenceRE   = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})\\s*([^\\s`]*)")
	strongRE  = regexp.MustCompile(`\*\*[^*]+\*\*|__[^_]+__`)
	emRE      = regexp.MustCompile(`(^|[^*\w])\*[^*\s][^*]*\*|(^|[^_\w])_[^_\s][^_]*_`)
)

// Markdown tokenizes Markdown prose, reporting Zone as the mode of prose lines.
type Markdown struct {
	Zone string
}

// NewMarkdown creates a Markdown highlighter for the given prose zone.
func NewMarkdown(zone string) *Markdown {
	return &Markdown{Zone: zone}
}

// HighlightLine classifies line number n given the state at the end of the
// previous line.
func (m *Markdown) HighlightLine(n int, text string, prev LexerState) Line {
	switch prev.Kind {
	case StateFrontMatter:
		if text == "---" || text == "..." {
			return Line{Mode: ModeFrontMatter, Tokens: []Token{{TokenMeta, 0, len(text)}}}
		}
		return Line{Mode: ModeFrontMatter, Tokens: []Token{{TokenMeta, 0, len(text)}}, State: prev}

	case StateFence:
		if strings.HasPrefix(strings.TrimLeft(text, " "), prev.Fence) &&
			strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(text), prev.Fence[:1])) == "" {
			return Line{Mode: m.Zone, Tokens: []Token{{TokenCode, 0, len(text)}}}
		}
		mode := prev.Lang
		if mode == "" {
			mode = ModeCode
		}
		return Line{Mode: mode, Tokens: []Token{{TokenCode, 0, len(text)}}, State: prev}
	}

	if n == 0 && text == "---" && prev.Kind == StateNormal {
		return Line{
			Mode:   ModeFrontMatter,
			Tokens: []Token{{TokenMeta, 0, len(text)}},
			State:  LexerState{Kind: StateFrontMatter},
		}
	}

	if prev.Kind == StateNormal {
		if sub := fenceRE.FindStringSubmatch(text); sub != nil {
			return Line{
				Mode:   m.Zone,
				Tokens: []Token{{TokenCode, 0, len(text)}},
				State:  LexerState{Kind: StateFence, Fence: sub[1], Lang: strings.ToLower(sub[2])},
			}
		}
	}

	tokens, state := m.inline(text, prev)
	return Line{Mode: m.Zone, Tokens: tokens, State: state}
}

// inline tokenizes a prose line, which may start inside an HTML comment.
func (m *Markdown) inline(text string, prev LexerState) ([]Token, LexerState) {
	var tokens []Token
	pos := 0

	if prev.Kind == StateComment {
		end := strings.Index(text, "-->")
		if end < 0 {
			return []Token{{TokenComment, 0, len(text)}}, prev
		}
		pos = end + 3
		tokens = append(tokens, Token{TokenComment, 0, pos})
	}

	if pos == 0 {
		if loc := headingRE.FindStringIndex(text); loc != nil {
			// Comments inside headings are still reported below; the heading
			// token stops where the first comment starts.
			end := len(text)
			if c := strings.Index(text, "<!--"); c >= 0 {
				end = c
			}
			tokens = append(tokens, Token{TokenHeading, 0, end})
			pos = end
		} else if loc := listRE.FindStringIndex(text); loc != nil {
			tokens = append(tokens, Token{TokenList, 0, loc[1]})
			pos = loc[1]
		}
	}

	state := LexerState{}
	for pos < len(text) {
		rest := text[pos:]
		open := strings.Index(rest, "<!--")
		tick := strings.IndexByte(rest, '`')

		switch {
		case open >= 0 && (tick < 0 || open < tick):
			tokens = append(tokens, m.emphasis(text, pos, pos+open)...)
			start := pos + open
			end := strings.Index(text[start+4:], "-->")
			if end < 0 {
				tokens = append(tokens, Token{TokenComment, start, len(text)})
				return tokens, LexerState{Kind: StateComment}
			}
			pos = start + 4 + end + 3
			tokens = append(tokens, Token{TokenComment, start, pos})

		case tick >= 0:
			tokens = append(tokens, m.emphasis(text, pos, pos+tick)...)
			start := pos + tick
			run := 1
			for start+run < len(text) && text[start+run] == '`' {
				run++
			}
			closing := strings.Index(text[start+run:], text[start:start+run])
			if closing < 0 {
				// Unclosed backticks are literal text.
				tokens = append(tokens, m.emphasis(text, start, len(text))...)
				return tokens, state
			}
			pos = start + run + closing + run
			tokens = append(tokens, Token{TokenCode, start, pos})

		default:
			tokens = append(tokens, m.emphasis(text, pos, len(text))...)
			pos = len(text)
		}
	}
	return tokens, state
}

// emphasis finds strong and emphasis runs within text[from:to].
func (m *Markdown) emphasis(text string, from, to int) []Token {
	if from >= to {
		return nil
	}
	segment := text[from:to]
	var tokens []Token
	covered := make([]bool, len(segment))

	for _, loc := range strongRE.FindAllStringIndex(segment, -1) {
		tokens = append(tokens, Token{TokenStrong, from + loc[0], from + loc[1]})
		for i := loc[0]; i < loc[1]; i++ {
			covered[i] = true
		}
	}
	for _, loc := range emRE.FindAllStringIndex(segment, -1) {
		start := loc[0]
		// The pattern may include one leading boundary character.
		if segment[start] != '*' && segment[start] != '_' {
			start++
		}
		if covered[start] || covered[loc[1]-1] {
			continue
		}
		tokens = append(tokens, Token{TokenEmphasis, from + start, from + loc[1]})
	}
	sortTokens(tokens)
	return tokens
}

func sortTokens(tokens []Token) {
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && tokens[j].StartCol < tokens[j-1].StartCol; j-- {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
		}
	}
}
