// Package highlight classifies Markdown text into tokens and modes.
//
// The document asks it two questions: which mode (zone) a line belongs to,
// and which token covers a column. Both depend on state carried across
// lines (HTML comments, fenced code, front matter), so lines are tokenized
// in order with the state returned for the previous line.
package highlight

// TokenType represents the semantic type of a token.
type TokenType uint8

const (
	TokenNone TokenType = iota
	TokenComment
	TokenHeading
	TokenCode
	TokenList
	TokenMeta
	TokenEmphasis
	TokenStrong
	TokenLink
)

var tokenTypeNames = [...]string{
	TokenNone:     "",
	TokenComment:  "comment",
	TokenHeading:  "header",
	TokenCode:     "code",
	TokenList:     "list",
	TokenMeta:     "meta",
	TokenEmphasis: "em",
	TokenStrong:   "strong",
	TokenLink:     "link",
}

// String returns the class name of the token type, "" for TokenNone.
func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// IsComment returns true if this is a comment token.
func (t TokenType) IsComment() bool {
	return t == TokenComment
}

// Token is a classified column range on one line.
type Token struct {
	Type TokenType
	// StartCol and EndCol are byte columns; EndCol is exclusive.
	StartCol int
	EndCol   int
}

// Contains returns true if the column is within the token.
func (t Token) Contains(col int) bool {
	return col >= t.StartCol && col < t.EndCol
}

// StateKind identifies the multi-line construct a line ends inside.
type StateKind uint8

const (
	StateNormal StateKind = iota
	StateComment
	StateFence
	StateFrontMatter
)

// LexerState is the lexer's state at a line boundary.
type LexerState struct {
	Kind StateKind
	// Fence is the opening fence run (e.g. "```") while Kind is StateFence.
	Fence string
	// Lang is the fence info string while Kind is StateFence.
	Lang string
}

// Line is the classification of a single line.
type Line struct {
	// Mode is the zone the line belongs to.
	Mode string
	// Tokens are sorted by StartCol and never overlap.
	Tokens []Token
	// State is the lexer state at the end of the line.
	State LexerState
}

// TokenAt returns the token at the given column, if any.
func (l Line) TokenAt(col int) (Token, bool) {
	for _, tok := range l.Tokens {
		if tok.Contains(col) {
			return tok, true
		}
		if tok.StartCol > col {
			break
		}
	}
	return Token{}, false
}
