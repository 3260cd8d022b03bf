package types

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneTechnical    Tone = "technical"
)

type Verbosity string

const (
	VerbosityConcise       Verbosity = "concise"
	VerbosityDetailed      Verbosity = "detailed"
	VerbosityComprehensive Verbosity = "comprehensive"
)

type Emphasis string

const (
	EmphasisSkills       Emphasis = "skills"
	EmphasisAchievements Emphasis = "achievements"
	EmphasisExperience   Emphasis = "experience"
	EmphasisKeywords     Emphasis = "keywords"
	EmphasisImpact       Emphasis = "impact"
)

type Industry string

const (
	IndustryTech          Industry = "tech"
	IndustryFinance       Industry = "finance"
	IndustryHealthcare    Industry = "healthcare"
	IndustryEducation     Industry = "education"
	IndustryMarketing     Industry = "marketing"
	IndustryManufacturing Industry = "manufacturing"
	IndustryRetail        Industry = "retail"
	IndustryGovernment    Industry = "government"
	IndustryConsulting    Industry = "consulting"
	IndustryGeneric       Industry = "generic"
)

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceExecutive ExperienceLevel = "executive"
)

// JobType doubles as the candidate type handed to section generators.
type JobType string

const (
	JobTypeCoop     JobType = "coop"
	JobTypeFulltime JobType = "fulltime"
)

type ModificationLevel string

const (
	ModificationConservative ModificationLevel = "conservative"
	ModificationModerate     ModificationLevel = "moderate"
	ModificationAggressive   ModificationLevel = "aggressive"
)

// OptimizationPreferences steers how suggestions are written.
type OptimizationPreferences struct {
	Tone              Tone              `json:"tone" yaml:"tone" validate:"required,oneof=professional casual technical"`
	Verbosity         Verbosity         `json:"verbosity" yaml:"verbosity" validate:"required,oneof=concise detailed comprehensive"`
	Emphasis          Emphasis          `json:"emphasis" yaml:"emphasis" validate:"required,oneof=keywords skills impact achievements experience"`
	Industry          Industry          `json:"industry" yaml:"industry" validate:"required,oneof=tech finance healthcare education marketing manufacturing retail government consulting generic"`
	ExperienceLevel   ExperienceLevel   `json:"experienceLevel" yaml:"experienceLevel" validate:"required,oneof=entry mid senior executive"`
	JobType           JobType           `json:"jobType" yaml:"jobType" validate:"required,oneof=coop fulltime"`
	ModificationLevel ModificationLevel `json:"modificationLevel" yaml:"modificationLevel" validate:"required,oneof=conservative moderate aggressive"`
}

// CandidateType returns the job type of prefs, defaulting to full-time.
func CandidateType(prefs *OptimizationPreferences) JobType {
	if prefs == nil || prefs.JobType == "" {
		return JobTypeFulltime
	}
	return prefs.JobType
}

type CareerGoal string

const (
	CareerGoalFirstJob         CareerGoal = "first-job"
	CareerGoalSwitchingCareers CareerGoal = "switching-careers"
	CareerGoalAdvancing        CareerGoal = "advancing"
	CareerGoalPromotion        CareerGoal = "promotion"
	CareerGoalReturning        CareerGoal = "returning"
)

// UserContext is optional per-user background stored outside a session.
type UserContext struct {
	CareerGoal       CareerGoal `json:"careerGoal,omitempty" yaml:"careerGoal" validate:"omitempty,oneof=first-job switching-careers advancing promotion returning"`
	TargetIndustries []string   `json:"targetIndustries,omitempty" yaml:"targetIndustries"`
}

// IsEmpty reports whether u carries nothing worth rendering.
func (u *UserContext) IsEmpty() bool {
	return u == nil || (u.CareerGoal == "" && len(u.TargetIndustries) == 0)
}

// Clone returns a deep copy of u. A nil receiver yields an empty context.
func (u *UserContext) Clone() *UserContext {
	if u == nil {
		return &UserContext{}
	}
	return &UserContext{
		CareerGoal:       u.CareerGoal,
		TargetIndustries: append([]string(nil), u.TargetIndustries...),
	}
}
