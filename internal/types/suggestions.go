package types

import (
	"fmt"
	"slices"
)

// SuggestionSection names a resume section that suggestions are generated for.
type SuggestionSection string

const (
	SuggestionSummary    SuggestionSection = "summary"
	SuggestionSkills     SuggestionSection = "skills"
	SuggestionExperience SuggestionSection = "experience"
)

// SuggestionSections lists the sections in generation order.
var SuggestionSections = []SuggestionSection{SuggestionSummary, SuggestionSkills, SuggestionExperience}

// ParseSuggestionSection validates a section name.
func ParseSuggestionSection(s string) (SuggestionSection, error) {
	sec := SuggestionSection(s)
	if !slices.Contains(SuggestionSections, sec) {
		return "", fmt.Errorf("unknown suggestion section %q", s)
	}
	return sec, nil
}

// Suggestion is implemented by SummarySuggestion, SkillsSuggestion and
// ExperienceSuggestion.
type Suggestion interface {
	Section() SuggestionSection
	isSuggestion()
}

type SummarySuggestion struct {
	Original      string   `json:"original"`
	Suggested     string   `json:"suggested"`
	KeywordsAdded []string `json:"keywordsAdded"`
	Rationale     string   `json:"rationale"`
}

func (SummarySuggestion) Section() SuggestionSection { return SuggestionSummary }
func (SummarySuggestion) isSuggestion()              {}

type SkillAddition struct {
	Skill  string `json:"skill"`
	Reason string `json:"reason"`
}

type SkillGroup struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

type SkillsSuggestion struct {
	ExistingSkills []string        `json:"existingSkills"`
	SkillsToAdd    []SkillAddition `json:"skillsToAdd"`
	SkillsToRemove []string        `json:"skillsToRemove"`
	Grouped        []SkillGroup    `json:"grouped"`
	Rationale      string          `json:"rationale"`
}

func (SkillsSuggestion) Section() SuggestionSection { return SuggestionSkills }
func (SkillsSuggestion) isSuggestion()              {}

type BulletRewrite struct {
	Original      string   `json:"original"`
	Suggested     string   `json:"suggested"`
	KeywordsAdded []string `json:"keywordsAdded"`
	MetricAdded   bool     `json:"metricAdded"`
}

type ExperienceEntrySuggestion struct {
	Role    string          `json:"role"`
	Company string          `json:"company"`
	Bullets []BulletRewrite `json:"bullets"`
}

type ExperienceSuggestion struct {
	Entries   []ExperienceEntrySuggestion `json:"entries"`
	Rationale string                      `json:"rationale"`
}

func (ExperienceSuggestion) Section() SuggestionSection { return SuggestionExperience }
func (ExperienceSuggestion) isSuggestion()              {}

// SuggestionSet holds one suggestion per section. A nil field means the
// section was not generated.
type SuggestionSet struct {
	Summary    *SummarySuggestion    `json:"summary,omitempty"`
	Skills     *SkillsSuggestion     `json:"skills,omitempty"`
	Experience *ExperienceSuggestion `json:"experience,omitempty"`
}

// Put stores s in the field for its section.
func (set *SuggestionSet) Put(s Suggestion) {
	switch v := s.(type) {
	case SummarySuggestion:
		set.Summary = &v
	case *SummarySuggestion:
		set.Summary = v
	case SkillsSuggestion:
		set.Skills = &v
	case *SkillsSuggestion:
		set.Skills = v
	case ExperienceSuggestion:
		set.Experience = &v
	case *ExperienceSuggestion:
		set.Experience = v
	}
}

// Get returns the suggestion stored for section, if any.
func (set *SuggestionSet) Get(section SuggestionSection) (Suggestion, bool) {
	switch section {
	case SuggestionSummary:
		if set.Summary != nil {
			return *set.Summary, true
		}
	case SuggestionSkills:
		if set.Skills != nil {
			return *set.Skills, true
		}
	case SuggestionExperience:
		if set.Experience != nil {
			return *set.Experience, true
		}
	}
	return nil, false
}

// Complete reports whether every section has a suggestion.
func (set *SuggestionSet) Complete() bool {
	return set.Summary != nil && set.Skills != nil && set.Experience != nil
}
