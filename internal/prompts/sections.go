package prompts

import (
	"fmt"
	"strings"

	"atsoptimizer/internal/types"
)

// DefaultSectionInstructions open each section prompt unless overridden by
// configuration.
var DefaultSectionInstructions = map[types.SuggestionSection]string{
	types.SuggestionSummary: `Rewrite the professional summary for this job.

- Two to four sentences.
- Work in missing keywords only where the resume supports them.
- Keep every claim traceable to the resume.`,

	types.SuggestionSkills: `Review the skills section for this job.

- List the skills already present.
- Recommend skills to add only when the rest of the resume shows them, with a one-line reason each.
- Flag skills that are irrelevant to this job.
- Group the final skill list into categories.`,

	types.SuggestionExperience: `Rewrite the experience bullets for this job.

- Start each bullet with a strong action verb.
- Quantify impact only with numbers already present in the resume.
- Work in keywords naturally and record which ones each bullet gained.
- Never invent employers, titles, dates or metrics.`,
}

var sectionTitles = map[types.SuggestionSection]string{
	types.SuggestionSummary:    "Summary",
	types.SuggestionSkills:     "Skills",
	types.SuggestionExperience: "Experience",
}

// BuildSectionPrompt assembles the user prompt for one section generator.
// instructions replaces the default section instructions when non-empty.
func BuildSectionPrompt(req types.GenerationRequest, instructions string) string {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultSectionInstructions[req.Section]
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")

	if pref := BuildPreferencePrompt(req.Preferences, req.UserContext); pref != "" {
		b.WriteString(pref)
		b.WriteString("\n")
	}

	if g, ok := jobTypeGuidance[req.CandidateType]; ok {
		fmt.Fprintf(&b, "## Candidate Type\n\n%s. %s\n\n", g.phrase, g.instruction)
	}

	writeATSContext(&b, req.ATSContext)
	writeKeywords(&b, req.Keywords)

	writeBlock(&b, "Job Description", req.JobDescription)
	if req.Education != "" {
		writeBlock(&b, "Education", req.Education)
	}
	writeBlock(&b, "Current "+sectionTitles[req.Section], req.SectionText)

	if req.CurrentContent != "" {
		writeBlock(&b, "Previous Suggestion", req.CurrentContent)
		b.WriteString("Produce a different suggestion that improves on the previous one.\n\n")
	}

	b.WriteString("Respond with JSON only, matching the provided schema.")
	return b.String()
}

func writeATSContext(b *strings.Builder, ctx *types.ATSContext) {
	if ctx == nil {
		return
	}
	b.WriteString("## ATS Context\n\n")
	if ctx.Version != "" {
		fmt.Fprintf(b, "Current score: %d/100 (%s)\n", ctx.Overall, ctx.Version)
	}
	for _, c := range ctx.Components {
		fmt.Fprintf(b, "- %s: %d/100\n", c.Name, c.Score)
	}
	if len(ctx.MissingKeywords) > 0 {
		fmt.Fprintf(b, "Missing keywords: %s\n", strings.Join(ctx.MissingKeywords, ", "))
	}
	if len(ctx.QuickWins) > 0 {
		fmt.Fprintf(b, "Quick wins: %s\n", strings.Join(ctx.QuickWins, ", "))
	}
	b.WriteString("\n")
}

func writeKeywords(b *strings.Builder, keywords []types.ExtractedKeyword) {
	if len(keywords) == 0 {
		return
	}
	b.WriteString("## Target Keywords\n\n")
	for _, kw := range keywords {
		status := "missing"
		if kw.Found {
			status = "present"
		}
		if kw.Category != "" {
			fmt.Fprintf(b, "- %s (%s, %s, %s)\n", kw.Keyword, kw.Importance, kw.Category, status)
		} else {
			fmt.Fprintf(b, "- %s (%s, %s)\n", kw.Keyword, kw.Importance, status)
		}
	}
	b.WriteString("\n")
}

func writeBlock(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "## %s\n-----\n%s\n-----\n\n", title, strings.TrimSpace(body))
}
