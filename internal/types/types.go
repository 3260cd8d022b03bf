package types

// Importance is how strongly a job description asks for a keyword.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Valid reports whether i is one of the known importance levels.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

// Rank orders importance levels, lower is more important. Unknown levels
// rank after low.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 0
	case ImportanceMedium:
		return 1
	case ImportanceLow:
		return 2
	}
	return 3
}

// MatchType records which matching tier found a keyword.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchFuzzy    MatchType = "fuzzy"
	MatchSemantic MatchType = "semantic"
)

// KeywordCategory groups extracted keywords.
type KeywordCategory string

const (
	CategoryTechnologies    KeywordCategory = "technologies"
	CategoryTools           KeywordCategory = "tools"
	CategorySoftSkills      KeywordCategory = "soft_skills"
	CategoryCertifications  KeywordCategory = "certifications"
	CategoryQualifications  KeywordCategory = "qualifications"
	CategoryExperience      KeywordCategory = "experience"
	CategoryMethodologies   KeywordCategory = "methodologies"
	CategoryDomainKnowledge KeywordCategory = "domain_knowledge"
)

// Valid reports whether c is a known category. The empty category is allowed.
func (c KeywordCategory) Valid() bool {
	switch c {
	case "", CategoryTechnologies, CategoryTools, CategorySoftSkills, CategoryCertifications,
		CategoryQualifications, CategoryExperience, CategoryMethodologies, CategoryDomainKnowledge:
		return true
	}
	return false
}

// ExtractedKeyword is a keyword taken from a job description, optionally
// annotated with where and how it was found in a resume.
type ExtractedKeyword struct {
	Keyword    string          `json:"keyword" yaml:"keyword" validate:"required"`
	Category   KeywordCategory `json:"category,omitempty" yaml:"category"`
	Importance Importance      `json:"importance" yaml:"importance" validate:"required,oneof=high medium low"`
	Found      bool            `json:"found" yaml:"-"`
	Context    string          `json:"context,omitempty" yaml:"-"`
	MatchType  MatchType       `json:"matchType,omitempty" yaml:"-"`
}

// MatchCount is a matched/total pair for a subset of keywords.
type MatchCount struct {
	Matched int `json:"matched"`
	Total   int `json:"total"`
}

// KeywordAnalysisResult is the output of matching keywords against a resume.
// Matched and Missing partition the input keywords and keep their order.
type KeywordAnalysisResult struct {
	Matched        []ExtractedKeyword `json:"matched"`
	Missing        []ExtractedKeyword `json:"missing"`
	MatchRate      int                `json:"matchRate"`
	KeywordScore   *int               `json:"keywordScore,omitempty"`
	RequiredCount  *MatchCount        `json:"requiredCount,omitempty"`
	PreferredCount *MatchCount        `json:"preferredCount,omitempty"`
}

// Total is the number of keywords that were analysed.
func (r KeywordAnalysisResult) Total() int {
	return len(r.Matched) + len(r.Missing)
}

// GapCounts counts missing keywords per importance level.
type GapCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// GapAnalysis summarises missing keywords and the few most worth adding.
type GapAnalysis struct {
	Counts    GapCounts          `json:"counts"`
	QuickWins []ExtractedKeyword `json:"quickWins"`
}
