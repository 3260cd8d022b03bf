// Package prompts renders the natural-language instructions handed to the
// suggestion generators.
package prompts

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"atsoptimizer/internal/types"
)

// guidance is the phrase shown after a dimension label and the instruction
// that follows it.
type guidance struct {
	phrase      string
	instruction string
}

var toneGuidance = map[types.Tone]guidance{
	types.ToneProfessional: {"professional", "Use a polished, professional tone suitable for corporate readers."},
	types.ToneCasual:       {"conversational", "Use a conversational, approachable tone that still reads well on a resume."},
	types.ToneTechnical:    {"technical", "Use precise technical language and name specific technologies, tools and methods."},
}

var verbosityGuidance = map[types.Verbosity]guidance{
	types.VerbosityConcise:       {"concise", "Keep content tight: short sentences and one line per bullet where possible."},
	types.VerbosityDetailed:      {"detailed", "Give each bullet context and outcome in two lines or fewer."},
	types.VerbosityComprehensive: {"comprehensive", "Be thorough: include context, actions, tools and measurable results."},
}

var emphasisGuidance = map[types.Emphasis]guidance{
	types.EmphasisSkills:       {"skills", "Foreground technical and transferable skills."},
	types.EmphasisAchievements: {"achievements", "Lead with measurable accomplishments and their impact."},
	types.EmphasisExperience:   {"experience", "Highlight the depth and progression of relevant experience."},
	types.EmphasisKeywords:     {"keywords", "Prioritize natural integration of job description keywords for ATS matching."},
	types.EmphasisImpact:       {"impact", "Lead with measurable outcomes and business impact."},
}

var industryGuidance = map[types.Industry]guidance{
	types.IndustryTech:          {"technology", "Use terminology and conventions common in software and technology companies."},
	types.IndustryFinance:       {"finance", "Stress accuracy, compliance, risk awareness and quantified financial outcomes."},
	types.IndustryHealthcare:    {"healthcare", "Stress patient outcomes, regulatory compliance and clinical or operational safety."},
	types.IndustryEducation:     {"education", "Stress learner outcomes, curriculum work and collaboration with educators."},
	types.IndustryMarketing:     {"marketing", "Stress campaign results, audience growth and conversion metrics."},
	types.IndustryManufacturing: {"manufacturing", "Stress process improvement, quality, safety and throughput."},
	types.IndustryRetail:        {"retail", "Stress customer experience, sales performance and operations."},
	types.IndustryGovernment:    {"government/public sector", "Stress public service impact, policy compliance and stakeholder coordination."},
	types.IndustryConsulting:    {"consulting", "Stress client impact, problem framing and delivered recommendations."},
	types.IndustryGeneric:       {"general", "Avoid industry-specific framing."},
}

var experienceGuidance = map[types.ExperienceLevel]guidance{
	types.ExperienceEntry:     {"entry-level", "Emphasize education, projects, internships and potential."},
	types.ExperienceMid:       {"mid-level", "Balance hands-on contributions with growing ownership."},
	types.ExperienceSenior:    {"senior", "Emphasize leadership, architecture decisions, mentoring and business impact."},
	types.ExperienceExecutive: {"executive", "Emphasize strategy, organizational impact and vision."},
}

var jobTypeGuidance = map[types.JobType]guidance{
	types.JobTypeCoop: {"co-op/internship",
		`Frame contributions as learning and growth. Prefer verbs such as "Contributed to", "Developed", "Learned", "Gained experience".`},
	types.JobTypeFulltime: {"full-time",
		`Frame contributions as ownership and impact. Prefer verbs such as "Led", "Drove", "Owned", "Delivered".`},
}

type modification struct {
	name      string
	change    string
	directive string
}

var modificationGuidance = map[types.ModificationLevel]modification{
	types.ModificationConservative: {
		"CONSERVATIVE", "15-25%",
		"Preserve original wording and structure. Limit edits to targeted keyword insertion and light phrasing fixes.",
	},
	types.ModificationModerate: {
		"MODERATE", "35-50%",
		"Restructure sentences and bullets where it improves impact. Balance authenticity with optimization.",
	},
	types.ModificationAggressive: {
		"AGGRESSIVE", "60-75%",
		"Full rewrite is allowed, including reorganization of content and transformation of phrasing, as long as nothing is invented.",
	},
}

var careerGoalGuidance = map[types.CareerGoal]string{
	types.CareerGoalFirstJob:         "The candidate is seeking their first professional role. Emphasize education, projects, internships and transferable skills.",
	types.CareerGoalSwitchingCareers: "The candidate is transitioning to a new career. Highlight transferable skills and reframe past experience for the new field.",
	types.CareerGoalAdvancing:        "The candidate is advancing in their current field. Emphasize growth, increasing responsibility and depth of expertise.",
	types.CareerGoalPromotion:        "The candidate is targeting a promotion. Emphasize leadership, ownership and results that show readiness for the next level.",
	types.CareerGoalReturning:        "The candidate is returning to the workforce after a break. Emphasize current skills, recent learning and continuity of expertise.",
}

// BuildPreferencePrompt renders prefs as seven labeled sections in a fixed
// order, followed by the career goal and target industries from userCtx when
// present. A nil prefs omits the preference block entirely.
func BuildPreferencePrompt(prefs *types.OptimizationPreferences, userCtx *types.UserContext) string {
	var b strings.Builder

	if prefs != nil {
		b.WriteString("## Optimization Preferences\n\n")
		writeGuided(&b, "Tone", string(prefs.Tone), toneGuidance[prefs.Tone])
		writeGuided(&b, "Verbosity", string(prefs.Verbosity), verbosityGuidance[prefs.Verbosity])
		writeGuided(&b, "Emphasis", string(prefs.Emphasis), emphasisGuidance[prefs.Emphasis])
		writeGuided(&b, "Industry", string(prefs.Industry), industryGuidance[prefs.Industry])
		writeGuided(&b, "Experience Level", string(prefs.ExperienceLevel), experienceGuidance[prefs.ExperienceLevel])
		writeGuided(&b, "Job Type", string(prefs.JobType), jobTypeGuidance[prefs.JobType])
		writeModification(&b, prefs.ModificationLevel)
	}

	if userCtx.IsEmpty() {
		return b.String()
	}
	goal := strings.TrimSpace(string(userCtx.CareerGoal))
	industries := titleCaseAll(userCtx.TargetIndustries)
	if goal == "" && len(industries) == 0 {
		return b.String()
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("## Candidate Context\n\n")
	if goal != "" {
		text, ok := careerGoalGuidance[types.CareerGoal(goal)]
		if !ok {
			text = goal
		}
		fmt.Fprintf(&b, "**Career Goal**: %s\n", text)
	}
	if len(industries) > 0 {
		fmt.Fprintf(&b, "**Target Industries**: %s\n", strings.Join(industries, ", "))
	}

	return b.String()
}

func writeGuided(b *strings.Builder, label, raw string, g guidance) {
	if g.phrase == "" {
		fmt.Fprintf(b, "**%s**: %s\n\n", label, raw)
		return
	}
	fmt.Fprintf(b, "**%s**: %s\n%s\n\n", label, g.phrase, g.instruction)
}

func writeModification(b *strings.Builder, level types.ModificationLevel) {
	m, ok := modificationGuidance[level]
	if !ok {
		fmt.Fprintf(b, "**Modification Level**: %s\n", level)
		return
	}
	fmt.Fprintf(b, "**Modification Level**: %s (%s change)\n%s\n", m.name, m.change, m.directive)
}

func titleCaseAll(items []string) []string {
	// Casers are stateful, so one per call.
	caser := cases.Title(language.English)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, caser.String(item))
		}
	}
	return out
}
