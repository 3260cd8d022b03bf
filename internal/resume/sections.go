// Package resume reads structure and quality signals out of plain resume
// text.
package resume

import (
	"strings"
	"unicode/utf8"

	"atsoptimizer/internal/types"
)

// headingAliases maps normalized heading text to a section.
var headingAliases = map[string]types.SectionName{
	"summary":                     types.SectionSummary,
	"professional summary":        types.SectionSummary,
	"profile":                     types.SectionSummary,
	"professional profile":        types.SectionSummary,
	"about":                       types.SectionSummary,
	"about me":                    types.SectionSummary,
	"objective":                   types.SectionObjective,
	"career objective":            types.SectionObjective,
	"experience":                  types.SectionExperience,
	"work experience":             types.SectionExperience,
	"professional experience":     types.SectionExperience,
	"employment":                  types.SectionExperience,
	"employment history":          types.SectionExperience,
	"work history":                types.SectionExperience,
	"education":                   types.SectionEducation,
	"academic background":         types.SectionEducation,
	"education and training":      types.SectionEducation,
	"skills":                      types.SectionSkills,
	"technical skills":            types.SectionSkills,
	"core competencies":           types.SectionSkills,
	"skills and tools":            types.SectionSkills,
	"projects":                    types.SectionProjects,
	"personal projects":           types.SectionProjects,
	"selected projects":           types.SectionProjects,
	"certifications":              types.SectionCertifications,
	"certificates":                types.SectionCertifications,
	"licenses and certifications": types.SectionCertifications,
}

const maxHeadingRunes = 40

// Section is a heading and the lines under it.
type Section struct {
	Name  types.SectionName
	Lines []string
}

// Text joins the section lines.
func (s Section) Text() string {
	return strings.TrimSpace(strings.Join(s.Lines, "\n"))
}

// headingName returns the section a line introduces, if it is a heading.
func headingName(line string) (types.SectionName, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxHeadingRunes {
		return "", false
	}
	trimmed = strings.Trim(trimmed, "#*_=-: \t")
	trimmed = strings.ReplaceAll(trimmed, "&", "and")
	name, ok := headingAliases[strings.ToLower(strings.Join(strings.Fields(trimmed), " "))]
	return name, ok
}

// Split breaks text into sections in document order. Lines before the first
// heading belong to the contact section. Repeated headings are merged.
func Split(text string) []Section {
	var sections []Section
	index := make(map[types.SectionName]int)

	current := types.SectionContact
	appendLine := func(line string) {
		i, ok := index[current]
		if !ok {
			sections = append(sections, Section{Name: current})
			i = len(sections) - 1
			index[current] = i
		}
		sections[i].Lines = append(sections[i].Lines, line)
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if name, ok := headingName(line); ok {
			current = name
			if _, seen := index[name]; !seen {
				sections = append(sections, Section{Name: name})
				index[name] = len(sections) - 1
			}
			continue
		}
		if strings.TrimSpace(line) == "" && current == types.SectionContact && len(sections) == 0 {
			continue
		}
		appendLine(line)
	}
	return sections
}

// SectionTexts returns the section texts the suggestion generators work on.
// An objective stands in for a missing summary.
func SectionTexts(text string) types.ResumeSections {
	var out types.ResumeSections
	var objective string
	for _, sec := range Split(text) {
		switch sec.Name {
		case types.SectionSummary:
			out.Summary = sec.Text()
		case types.SectionObjective:
			objective = sec.Text()
		case types.SectionSkills:
			out.Skills = sec.Text()
		case types.SectionExperience:
			out.Experience = sec.Text()
		case types.SectionEducation:
			out.Education = sec.Text()
		}
	}
	if out.Summary == "" {
		out.Summary = objective
	}
	return out
}
