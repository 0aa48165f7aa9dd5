package citation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// locatorRE matches page-like locators: "33", "33-35", "12a, 14".
var locatorRE = regexp.MustCompile(`^\d+[\p{L}\d]*(?:\s*(?:[-–—,&]|and)\s*\d+[\p{L}\d]*)*`)

type span struct{ from, to int }

func (s span) contains(i int) bool { return i >= s.from && i < s.to }

// Extract returns the citations in line, ordered by position.
func Extract(line string) ([]Match, error) {
	if !utf8.ValidString(line) {
		return nil, ErrInvalidUTF8
	}

	var matches []Match
	var covered []span

	for i := 0; i < len(line); i++ {
		if line[i] != '[' || (i > 0 && line[i-1] == '\\') {
			continue
		}
		j := strings.IndexAny(line[i+1:], "[]")
		if j < 0 {
			break
		}
		j += i + 1
		if line[j] == '[' {
			continue
		}
		content := line[i+1 : j]
		if !strings.Contains(content, "@") {
			continue
		}
		covered = append(covered, span{i, j + 1})
		if j+1 < len(line) && line[j+1] == '(' {
			continue
		}
		matches = append(matches, Match{From: i, To: j + 1, Items: parseGroup(content)})
		i = j
	}

	for i := 0; i < len(line); i++ {
		if line[i] != '@' || insideAny(covered, i) || precededByWord(line, i) {
			continue
		}
		key, end, ok := parseKey(line, i+1)
		if !ok {
			continue
		}
		m := Match{From: i, To: end, Composite: true, Items: []Item{{ID: key}}}
		if closing, ok := inTextLocator(line, end); ok {
			label, locator, suffix := parseLocator(", " + line[end+2:closing])
			m.Items[0].Label, m.Items[0].Locator, m.Items[0].Suffix = label, locator, suffix
			m.To = closing + 1
		}
		matches = append(matches, m)
		i = m.To - 1
	}

	sort.SliceStable(matches, func(a, b int) bool { return matches[a].From < matches[b].From })
	return matches, nil
}

func insideAny(spans []span, i int) bool {
	for _, s := range spans {
		if s.contains(i) {
			return true
		}
	}
	return false
}

func precededByWord(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// inTextLocator reports the closing bracket of a "[...]" locator that
// directly follows an in-text key after one space.
func inTextLocator(line string, end int) (int, bool) {
	if !strings.HasPrefix(line[end:], " [") {
		return 0, false
	}
	rest := line[end+2:]
	j := strings.IndexAny(rest, "[]@")
	if j <= 0 || rest[j] != ']' {
		return 0, false
	}
	return end + 2 + j, true
}

func isKeyRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

func isKeyPunct(r rune) bool {
	return strings.ContainsRune(":.#$%&-+?<>~/", r)
}

// parseKey reads a citation key starting at s[at], the byte after "@".
func parseKey(s string, at int) (key string, end int, ok bool) {
	if at >= len(s) {
		return "", 0, false
	}
	if s[at] == '{' {
		closing := strings.IndexByte(s[at:], '}')
		if closing <= 1 {
			return "", 0, false
		}
		return norm.NFC.String(s[at+1 : at+closing]), at + closing + 1, true
	}

	r, _ := utf8.DecodeRuneInString(s[at:])
	if !isKeyRune(r) {
		return "", 0, false
	}
	last := at
	for i, r := range s[at:] {
		switch {
		case isKeyRune(r):
			last = at + i + utf8.RuneLen(r)
		case isKeyPunct(r):
		default:
			return norm.NFC.String(s[at:last]), last, true
		}
	}
	return norm.NFC.String(s[at:last]), last, true
}

// parseGroup parses the ";"-separated items of a bracketed citation.
func parseGroup(content string) []Item {
	var items []Item
	for _, part := range strings.Split(content, ";") {
		item, ok := parseItem(part)
		if ok {
			items = append(items, item)
		}
	}
	return items
}

func parseItem(part string) (Item, bool) {
	for k := strings.IndexByte(part, '@'); k >= 0; {
		if !precededByWord(part, k) {
			key, end, ok := parseKey(part, k+1)
			if ok {
				it := Item{ID: key}
				prefixEnd := k
				if k > 0 && part[k-1] == '-' {
					it.SuppressAuthor = true
					prefixEnd--
				}
				it.Prefix = strings.TrimSpace(part[:prefixEnd])
				it.Label, it.Locator, it.Suffix = parseLocator(part[end:])
				return it, true
			}
		}
		next := strings.IndexByte(part[k+1:], '@')
		if next < 0 {
			break
		}
		k += next + 1
	}
	return Item{}, false
}

// parseLocator splits the text after a key into a locator and a suffix.
// Only text introduced by a comma can carry a locator; a bare number is a
// page.
func parseLocator(rest string) (label, locator, suffix string) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ",") {
		return "", "", rest
	}
	rest = strings.TrimSpace(rest[1:])

	body := rest
	label = "page"
	if word, after, _ := strings.Cut(rest, " "); locatorLabels[strings.ToLower(word)] != "" {
		label = locatorLabels[strings.ToLower(word)]
		body = strings.TrimSpace(after)
	}

	if strings.HasPrefix(body, "{") {
		if closing := strings.IndexByte(body, '}'); closing > 0 {
			return label, body[1:closing], strings.TrimSpace(body[closing+1:])
		}
	}
	loc := locatorRE.FindString(body)
	if loc == "" {
		return "", "", rest
	}
	return label, loc, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body[len(loc):]), ","))
}
