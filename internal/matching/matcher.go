// Package matching finds job-description keywords in resume text.
//
// Each keyword is tried against three tiers in order: an exact,
// case-insensitive whole-word match; a fuzzy match tolerant of punctuation,
// inflection and small typos; and a semantic match through a synonym
// vocabulary. The first tier that succeeds decides the keyword's match type.
package matching

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

// Matcher matches keywords against resume text. It is safe for concurrent use.
type Matcher struct {
	vocabulary *Vocabulary
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithSynonyms extends the built-in synonym vocabulary.
func WithSynonyms(extra map[string][]string) Option {
	return func(m *Matcher) {
		m.vocabulary = NewVocabulary(extra)
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{vocabulary: NewVocabulary(nil)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultMatcher = NewMatcher()

// Match runs the default matcher.
func Match(keywords []types.ExtractedKeyword, resumeText string) (types.KeywordAnalysisResult, error) {
	return defaultMatcher.Match(keywords, resumeText)
}

// Match partitions keywords into matched and missing. Matched keywords carry
// the match type and a snippet of surrounding resume text. The input slice
// is not modified.
func (m *Matcher) Match(keywords []types.ExtractedKeyword, resumeText string) (types.KeywordAnalysisResult, error) {
	if err := validateInput(keywords, resumeText); err != nil {
		return types.KeywordAnalysisResult{}, err
	}

	result := types.KeywordAnalysisResult{
		Matched: []types.ExtractedKeyword{},
		Missing: []types.ExtractedKeyword{},
	}
	if len(keywords) == 0 {
		return result, nil
	}

	raw := norm.NFKC.String(resumeText)
	text := strings.ToLower(raw)
	resumeTokens := tokenize(text)

	for _, kw := range keywords {
		matchType, context, ok := m.find(kw.Keyword, raw, text, resumeTokens)
		if ok {
			kw.Found = true
			kw.MatchType = matchType
			kw.Context = context
			result.Matched = append(result.Matched, kw)
			continue
		}
		kw.Found = false
		kw.MatchType = ""
		kw.Context = ""
		result.Missing = append(result.Missing, kw)
	}

	result.MatchRate = percent(len(result.Matched), len(keywords))
	score := WeightedScore(result.Matched, result.Missing)
	result.KeywordScore = &score
	result.RequiredCount, result.PreferredCount = requirementCounts(result.Matched, result.Missing)
	return result, nil
}

// find tries each tier in turn. raw is the resume after compatibility
// folding only; text is raw lowercased.
func (m *Matcher) find(keyword, raw, text string, resumeTokens []token) (types.MatchType, string, bool) {
	phrase := normalize(strings.TrimSpace(keyword))

	if start, ok := findPhrase(text, phrase); ok {
		return types.MatchExact, snippet(text, start, start+len(phrase)), true
	}

	// "C++" and "C#" only match exactly or through a synonym.
	if !strings.ContainsAny(phrase, "+#") {
		if start, end, ok := fuzzyFind(tokenTexts(tokenize(phrase)), resumeTokens); ok {
			return types.MatchFuzzy, snippet(text, start, end), true
		}
	}

	for _, synonym := range m.vocabulary.Synonyms(phrase) {
		if surface, ok := surfaceForms[synonym]; ok {
			if start, ok := findPhrase(raw, surface); ok {
				return types.MatchSemantic, strings.ToLower(snippet(raw, start, start+len(surface))), true
			}
			continue
		}
		if start, ok := findPhrase(text, synonym); ok {
			return types.MatchSemantic, snippet(text, start, start+len(synonym)), true
		}
	}
	return "", "", false
}

func validateInput(keywords []types.ExtractedKeyword, resumeText string) error {
	if !utf8.ValidString(resumeText) {
		return errors.NewInvalidInputError("resume text is not valid UTF-8", nil)
	}
	for i, kw := range keywords {
		if strings.TrimSpace(kw.Keyword) == "" {
			return errors.NewInvalidInputError(fmt.Sprintf("keyword %d is empty", i), nil).
				WithContext("index", i)
		}
		if !kw.Importance.Valid() {
			return errors.NewInvalidInputError(fmt.Sprintf("keyword %q has invalid importance %q", kw.Keyword, kw.Importance), nil).
				WithContext("index", i)
		}
		if !kw.Category.Valid() {
			return errors.NewInvalidInputError(fmt.Sprintf("keyword %q has invalid category %q", kw.Keyword, kw.Category), nil).
				WithContext("index", i)
		}
	}
	return nil
}

// percent returns round(100*part/total), or 0 when total is 0.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
