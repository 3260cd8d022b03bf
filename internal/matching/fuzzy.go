package matching

import (
	"strings"
	"unicode/utf8"
)

const (
	minFuzzyRunes   = 7
	minCompactRunes = 3
	minStemRunes    = 4
)

// stemSuffixes are stripped longest first. The replacement keeps "ies" and
// "ied" words aligned with their "y" base.
var stemSuffixes = []struct {
	suffix      string
	replacement string
}{
	{"ations", ""},
	{"ation", ""},
	{"ments", ""},
	{"ment", ""},
	{"ings", ""},
	{"ing", ""},
	{"ies", "y"},
	{"ied", "y"},
	{"ers", ""},
	{"er", ""},
	{"ed", ""},
	{"es", ""},
	{"ly", ""},
	{"s", ""},
}

// ownStems are words whose suffix is part of a distinct term: "marketing"
// is a discipline, not an inflection of "market".
var ownStems = map[string]bool{
	"accounting":    true,
	"advertising":   true,
	"banking":       true,
	"branding":      true,
	"computing":     true,
	"consulting":    true,
	"engineering":   true,
	"hosting":       true,
	"lending":       true,
	"manufacturing": true,
	"marketing":     true,
	"networking":    true,
	"nursing":       true,
	"pricing":       true,
	"publishing":    true,
	"staffing":      true,
	"trading":       true,
	"underwriting":  true,
}

// stem reduces a lowercase word to a crude root.
func stem(word string) string {
	if utf8.RuneCountInString(word) < minStemRunes || ownStems[word] {
		return word
	}
	for _, s := range stemSuffixes {
		if strings.HasSuffix(word, s.suffix) && len(word)-len(s.suffix) >= 3 {
			word = word[:len(word)-len(s.suffix)] + s.replacement
			break
		}
	}
	if len(word) > 4 && strings.HasSuffix(word, "e") {
		word = word[:len(word)-1]
	}
	return word
}

// levenshtein returns the edit distance between a and b counted in runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// maxEditDistance is the tolerance for a keyword of n runes.
func maxEditDistance(n int) int {
	switch {
	case n < minFuzzyRunes:
		return 0
	case n <= 9:
		return 1
	default:
		return 2
	}
}

// fuzzyFind looks for a near match of the keyword tokens in the resume
// tokens. It returns the byte span of the matching window.
func fuzzyFind(keywordTokens []string, resume []token) (int, int, bool) {
	if len(keywordTokens) == 0 {
		return 0, 0, false
	}

	compact := strings.Join(keywordTokens, "")
	compactOK := utf8.RuneCountInString(compact) >= minCompactRunes
	phrase := strings.Join(keywordTokens, " ")
	tolerance := maxEditDistance(utf8.RuneCountInString(phrase))

	keywordStems := make([]string, len(keywordTokens))
	for i, t := range keywordTokens {
		keywordStems[i] = stem(t)
	}

	n := len(keywordTokens)
	for i := range resume {
		// Punctuation and spacing differences: "Node.js" vs "nodejs", "CI/CD" vs "ci cd".
		if compactOK {
			for size := 1; size <= n+1 && i+size <= len(resume); size++ {
				window := resume[i : i+size]
				if strings.Join(tokenTexts(window), "") == compact {
					return window[0].start, window[size-1].end, true
				}
			}
		}

		if i+n > len(resume) {
			continue
		}
		window := resume[i : i+n]
		words := tokenTexts(window)

		if stemsEqual(keywordStems, keywordTokens, words) {
			return window[0].start, window[n-1].end, true
		}
		if tolerance > 0 && sameFirstRune(phrase, words[0]) && levenshtein(phrase, strings.Join(words, " ")) <= tolerance {
			return window[0].start, window[n-1].end, true
		}
	}
	return 0, 0, false
}

func stemsEqual(keywordStems, keywordTokens, words []string) bool {
	for j, w := range words {
		if utf8.RuneCountInString(keywordTokens[j]) < minStemRunes {
			if w != keywordTokens[j] {
				return false
			}
			continue
		}
		if stem(w) != keywordStems[j] {
			return false
		}
	}
	return true
}

func sameFirstRune(a, b string) bool {
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	return ra == rb
}
