package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"atsoptimizer/internal/optimizer"
	"atsoptimizer/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// PromptOutput is the rendered preference block printed by the prompt command.
type PromptOutput struct {
	Prompt string `json:"prompt"`
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI output handler.
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	for _, md := range []bool{false, true} {
		format := "text"
		if md {
			format = "markdown"
		}
		st := style{markdown: md}
		registry.RegisterFormatter(format, "AnalysisResult", &AnalysisFormatter{style: st})
		registry.RegisterFormatter(format, "SuggestResult", &SuggestionsFormatter{style: st})
		registry.RegisterFormatter(format, "RegenerateResult", &RegenerateFormatter{style: st})
		registry.RegisterFormatter(format, "PromptOutput", &PromptFormatter{style: st})
	}
	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *optimizer.AnalysisResult:
		return "AnalysisResult"
	case *optimizer.SuggestResult:
		return "SuggestResult"
	case *optimizer.RegenerateResult:
		return "RegenerateResult"
	case PromptOutput:
		return "PromptOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// style switches between plain text and markdown rendering.
type style struct {
	markdown bool
}

func (s style) heading(b *strings.Builder, title string) {
	if s.markdown {
		fmt.Fprintf(b, "## %s\n\n", title)
		return
	}
	fmt.Fprintf(b, "=== %s ===\n", strings.ToUpper(title))
}

func (s style) title(b *strings.Builder, title string) {
	if s.markdown {
		fmt.Fprintf(b, "# %s\n\n", title)
		return
	}
	fmt.Fprintf(b, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
}

func (s style) code(text string) string {
	if s.markdown {
		return "`" + text + "`"
	}
	return text
}

// AnalysisFormatter renders a score report
type AnalysisFormatter struct {
	style style
}

func (f *AnalysisFormatter) Format(data any) (string, error) {
	result, ok := data.(*optimizer.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected *optimizer.AnalysisResult, got %T", data)
	}
	st := f.style
	var b strings.Builder

	st.title(&b, "ATS Analysis")
	fmt.Fprintf(&b, "Session: %s\n", st.code(result.SessionID.String()))
	fmt.Fprintf(&b, "Overall score: %d/100 (%s)\n\n", result.Score.Overall, result.Score.Version())

	st.heading(&b, "Score breakdown")
	for _, c := range result.Explanation {
		fmt.Fprintf(&b, "- %s: %d (weight %.0f%%, contributes %.1f)\n", c.Label, c.Score, c.Weight*100, c.Contribution)
		for _, note := range c.Notes {
			fmt.Fprintf(&b, "  - %s\n", note)
		}
	}
	b.WriteString("\n")

	a := result.Analysis
	st.heading(&b, "Keywords")
	fmt.Fprintf(&b, "Match rate: %d%% (%d of %d)\n", a.MatchRate, len(a.Matched), a.Total())
	if a.RequiredCount != nil {
		fmt.Fprintf(&b, "Required: %d/%d\n", a.RequiredCount.Matched, a.RequiredCount.Total)
	}
	if a.PreferredCount != nil {
		fmt.Fprintf(&b, "Preferred: %d/%d\n", a.PreferredCount.Matched, a.PreferredCount.Total)
	}
	if len(a.Matched) > 0 {
		b.WriteString("Matched:\n")
		for _, kw := range a.Matched {
			fmt.Fprintf(&b, "- %s [%s, %s]\n", kw.Keyword, kw.Importance, kw.MatchType)
		}
	}
	if len(a.Missing) > 0 {
		b.WriteString("Missing:\n")
		for _, kw := range a.Missing {
			fmt.Fprintf(&b, "- %s [%s]\n", kw.Keyword, kw.Importance)
		}
	}
	b.WriteString("\n")

	st.heading(&b, "Gaps")
	g := result.Gaps
	fmt.Fprintf(&b, "Missing by importance: high %d, medium %d, low %d\n", g.Counts.High, g.Counts.Medium, g.Counts.Low)
	if len(g.QuickWins) > 0 {
		b.WriteString("Quick wins:\n")
		for i, kw := range g.QuickWins {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, kw.Keyword, kw.Importance)
		}
	}
	return b.String(), nil
}

func (f *AnalysisFormatter) SupportedType() string {
	return "AnalysisResult"
}

// SuggestionsFormatter renders a full suggestion set
type SuggestionsFormatter struct {
	style style
}

func (f *SuggestionsFormatter) Format(data any) (string, error) {
	result, ok := data.(*optimizer.SuggestResult)
	if !ok {
		return "", fmt.Errorf("expected *optimizer.SuggestResult, got %T", data)
	}
	var b strings.Builder
	f.style.title(&b, "Resume Suggestions")
	fmt.Fprintf(&b, "Session: %s\n\n", f.style.code(result.SessionID.String()))
	if result.Suggestions != nil {
		writeSuggestionSet(&b, f.style, result.Suggestions)
	}
	return b.String(), nil
}

func (f *SuggestionsFormatter) SupportedType() string {
	return "SuggestResult"
}

// RegenerateFormatter renders a single regenerated section
type RegenerateFormatter struct {
	style style
}

func (f *RegenerateFormatter) Format(data any) (string, error) {
	result, ok := data.(*optimizer.RegenerateResult)
	if !ok {
		return "", fmt.Errorf("expected *optimizer.RegenerateResult, got %T", data)
	}
	var set types.SuggestionSet
	set.Put(result.Suggestion)

	var b strings.Builder
	f.style.title(&b, "Regenerated Suggestion")
	writeSuggestionSet(&b, f.style, &set)
	return b.String(), nil
}

func (f *RegenerateFormatter) SupportedType() string {
	return "RegenerateResult"
}

// PromptFormatter prints the preference block as is
type PromptFormatter struct {
	style style
}

func (f *PromptFormatter) Format(data any) (string, error) {
	out, ok := data.(PromptOutput)
	if !ok {
		return "", fmt.Errorf("expected PromptOutput, got %T", data)
	}
	if out.Prompt == "" {
		return "", nil
	}
	if f.style.markdown {
		return "```\n" + strings.TrimRight(out.Prompt, "\n") + "\n```\n", nil
	}
	return strings.TrimRight(out.Prompt, "\n") + "\n", nil
}

func (f *PromptFormatter) SupportedType() string {
	return "PromptOutput"
}

func writeSuggestionSet(b *strings.Builder, st style, set *types.SuggestionSet) {
	if s := set.Summary; s != nil {
		st.heading(b, "Summary")
		if s.Original != "" {
			fmt.Fprintf(b, "Original:\n%s\n\n", s.Original)
		}
		fmt.Fprintf(b, "Suggested:\n%s\n\n", s.Suggested)
		writeKeywords(b, s.KeywordsAdded)
		writeRationale(b, s.Rationale)
	}

	if s := set.Skills; s != nil {
		st.heading(b, "Skills")
		if len(s.SkillsToAdd) > 0 {
			b.WriteString("Add:\n")
			for _, add := range s.SkillsToAdd {
				fmt.Fprintf(b, "- %s: %s\n", add.Skill, add.Reason)
			}
		}
		if len(s.SkillsToRemove) > 0 {
			fmt.Fprintf(b, "Remove: %s\n", strings.Join(s.SkillsToRemove, ", "))
		}
		if len(s.Grouped) > 0 {
			b.WriteString("Grouped:\n")
			for _, g := range s.Grouped {
				fmt.Fprintf(b, "- %s: %s\n", g.Category, strings.Join(g.Skills, ", "))
			}
		}
		b.WriteString("\n")
		writeRationale(b, s.Rationale)
	}

	if s := set.Experience; s != nil {
		st.heading(b, "Experience")
		for _, entry := range s.Entries {
			fmt.Fprintf(b, "%s, %s\n", entry.Role, entry.Company)
			for _, bullet := range entry.Bullets {
				fmt.Fprintf(b, "- %s\n  -> %s\n", bullet.Original, bullet.Suggested)
			}
			b.WriteString("\n")
		}
		writeRationale(b, s.Rationale)
	}
}

func writeKeywords(b *strings.Builder, keywords []string) {
	if len(keywords) > 0 {
		fmt.Fprintf(b, "Keywords added: %s\n\n", strings.Join(keywords, ", "))
	}
}

func writeRationale(b *strings.Builder, rationale string) {
	if rationale != "" {
		fmt.Fprintf(b, "Why: %s\n\n", rationale)
	}
}
