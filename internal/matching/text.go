package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const snippetRadius = 40

// normalize folds compatibility forms and case so that "Ｇｏ" and "go" compare
// equal.
func normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// findPhrase returns the byte offset of the first occurrence of phrase in
// text that is not embedded in a longer word. Both must already be
// normalized.
func findPhrase(text, phrase string) (int, bool) {
	if phrase == "" {
		return 0, false
	}
	offset := 0
	for offset <= len(text) {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			return 0, false
		}
		start := offset + idx
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start, true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return 0, false
}

// CountOccurrences counts whole-word, case-insensitive occurrences of phrase
// in text.
func CountOccurrences(text, phrase string) int {
	text = normalize(text)
	phrase = normalize(strings.TrimSpace(phrase))
	count := 0
	for offset := 0; offset < len(text); {
		idx, ok := findPhrase(text[offset:], phrase)
		if !ok {
			break
		}
		count++
		offset += idx + len(phrase)
	}
	return count
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

func boundaryAfter(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	if isWordRune(r) {
		return false
	}
	if pos > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if isWordRune(prev) && joinedSuffix(text, pos) > 0 {
			return false
		}
	}
	return true
}

// joinedSuffix returns the length of a '+' or '#' run at pos that closes the
// preceding word, as in "C++" and "C#". The run must not be followed by a
// letter or digit.
func joinedSuffix(s string, pos int) int {
	end := pos
	for end < len(s) && (s[end] == '+' || s[end] == '#') {
		end++
	}
	if end == pos {
		return 0
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return 0
		}
	}
	return end - pos
}

// token is a maximal run of letters and digits, plus a closing "++" or "#".
type token struct {
	text  string
	start int
	end   int
}

func tokenize(s string) []token {
	var tokens []token
	start := -1
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			i += size
			continue
		}
		if start >= 0 {
			end := i + joinedSuffix(s, i)
			tokens = append(tokens, token{text: s[start:end], start: start, end: end})
			start = -1
			if end > i {
				i = end
				continue
			}
		}
		i += size
	}
	if start >= 0 {
		tokens = append(tokens, token{text: s[start:], start: start, end: len(s)})
	}
	return tokens
}

func tokenTexts(tokens []token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.text
	}
	return out
}

// snippet returns the text surrounding [start,end) with collapsed whitespace.
func snippet(text string, start, end int) string {
	from := max(start-snippetRadius, 0)
	to := min(end+snippetRadius, len(text))
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	out := strings.Join(strings.Fields(text[from:to]), " ")
	if from > 0 {
		out = "..." + out
	}
	if to < len(text) {
		out += "..."
	}
	return out
}
