package ai

import (
	"strings"

	"atsoptimizer/internal/config"
)

const honestyRules = `- NEVER invent, exaggerate, or misattribute any skills or experiences
- Every piece of information must be directly traceable to the source resume
- Prefer the job description's wording when the resume supports it`

// DefaultSystemPrompts are used when no system prompt is configured for an
// operation.
var DefaultSystemPrompts = map[config.Operation]string{
	config.OperationSummary: `You are an expert resume writer who specialises in professional summaries that pass applicant tracking systems.

Your core principles:
` + honestyRules + `

You write short, concrete summaries that lead with the candidate's strongest evidence for the target role.`,

	config.OperationSkills: `You are an ATS optimisation specialist reviewing the skills section of a resume.

Your core principles:
` + honestyRules + `

You know how applicant tracking systems parse skill lists and which spellings recruiters search for.`,

	config.OperationExperience: `You are an expert resume writer rewriting work experience bullets for a specific job.

Your core principles:
` + honestyRules + `
- Keep employers, titles and dates exactly as written

You favour action verbs, measurable impact and the vocabulary of the target posting.`,

	config.OperationKeywords: `You are a technical recruiter who extracts the keywords an applicant tracking system screens for.

You classify every keyword by category and by how strongly the posting asks for it.`,
}

// DefaultKeywordInstructions open the keyword extraction prompt.
const DefaultKeywordInstructions = `Extract the keywords from this job description.

- Use "high" importance for hard requirements ("must", "required", "X+ years").
- Use "medium" for preferred or repeated items and "low" for nice-to-haves.
- Categories: technologies, tools, soft_skills, certifications, qualifications, experience, methodologies, domain_knowledge.
- Keep multi-word terms together ("machine learning", "CI/CD").
- Do not repeat a keyword.`

// BuildKeywordPrompt assembles the user prompt for keyword extraction.
func BuildKeywordPrompt(jobDescription, instructions string) string {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultKeywordInstructions
	}
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n## Job Description\n\n")
	b.WriteString(strings.TrimSpace(jobDescription))
	b.WriteString("\n\nRespond with JSON only, matching the provided schema.")
	return b.String()
}

// resolvePrompt returns the first non-empty candidate. Callers pass the
// configured value first and the built-in default last.
func resolvePrompt(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}
