package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ResumeSections are the raw section texts of a resume.
type ResumeSections struct {
	Summary    string `json:"summary"`
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
}

// Text returns the section text feeding a suggestion section.
func (r ResumeSections) Text(section SuggestionSection) string {
	switch section {
	case SuggestionSummary:
		return r.Summary
	case SuggestionSkills:
		return r.Skills
	case SuggestionExperience:
		return r.Experience
	}
	return ""
}

// ATSContext is the scoring summary given to generators so they aim at the
// weakest areas.
type ATSContext struct {
	Overall         int          `json:"overall"`
	Version         ScoreVersion `json:"version,omitempty"`
	Components      []NamedScore `json:"components,omitempty"`
	MissingKeywords []string     `json:"missingKeywords,omitempty"`
	QuickWins       []string     `json:"quickWins,omitempty"`
}

// NewATSContext summarises a score and gap analysis.
func NewATSContext(score *ATSScore, gaps *GapAnalysis, missing []ExtractedKeyword) *ATSContext {
	ctx := &ATSContext{}
	if score != nil && score.Breakdown != nil {
		ctx.Overall = score.Overall
		ctx.Version = score.Version()
		ctx.Components = score.Breakdown.Components()
	}
	for _, kw := range missing {
		ctx.MissingKeywords = append(ctx.MissingKeywords, kw.Keyword)
	}
	if gaps != nil {
		for _, kw := range gaps.QuickWins {
			ctx.QuickWins = append(ctx.QuickWins, kw.Keyword)
		}
	}
	return ctx
}

// SuggestionRequest asks for suggestions across all sections of a resume.
type SuggestionRequest struct {
	SessionID      string                   `json:"sessionId,omitempty" validate:"omitempty,uuid"`
	UserID         string                   `json:"userId,omitempty"`
	Sections       ResumeSections           `json:"sections"`
	JobDescription string                   `json:"jobDescription" validate:"required"`
	Keywords       []ExtractedKeyword       `json:"keywords" validate:"dive"`
	Preferences    *OptimizationPreferences `json:"preferences,omitempty" validate:"omitempty"`
	ATSContext     *ATSContext              `json:"atsContext,omitempty"`
	AcceptPartial  *bool                    `json:"acceptPartial,omitempty"`
}

// GenerationRequest is everything a single section generator receives.
type GenerationRequest struct {
	Section        SuggestionSection
	SectionText    string
	JobDescription string
	Keywords       []ExtractedKeyword
	Preferences    *OptimizationPreferences
	UserContext    *UserContext
	Education      string
	ATSContext     *ATSContext
	CandidateType  JobType
	CurrentContent string
}

// Session is the persisted state of one optimisation run.
type Session struct {
	ID              uuid.UUID              `json:"id"`
	UserID          string                 `json:"userId,omitempty"`
	KeywordAnalysis *KeywordAnalysisResult `json:"keywordAnalysis,omitempty"`
	Score           *ATSScore              `json:"score,omitempty"`
	Gaps            *GapAnalysis           `json:"gaps,omitempty"`
	Summary         *SummarySuggestion     `json:"summary,omitempty"`
	Skills          *SkillsSuggestion      `json:"skills,omitempty"`
	Experience      *ExperienceSuggestion  `json:"experience,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// SessionUpdate carries the fields to merge into a session. Nil fields are
// left untouched.
type SessionUpdate struct {
	UserID          string
	KeywordAnalysis *KeywordAnalysisResult
	Score           *ATSScore
	Gaps            *GapAnalysis
	Summary         *SummarySuggestion
	Skills          *SkillsSuggestion
	Experience      *ExperienceSuggestion
}

// SessionUpdateFromSet builds an update carrying the generated suggestions.
func SessionUpdateFromSet(set *SuggestionSet) SessionUpdate {
	return SessionUpdate{Summary: set.Summary, Skills: set.Skills, Experience: set.Experience}
}

// Apply merges u into s.
func (u SessionUpdate) Apply(s *Session) {
	if u.UserID != "" {
		s.UserID = u.UserID
	}
	if u.KeywordAnalysis != nil {
		s.KeywordAnalysis = u.KeywordAnalysis
	}
	if u.Score != nil {
		s.Score = u.Score
	}
	if u.Gaps != nil {
		s.Gaps = u.Gaps
	}
	if u.Summary != nil {
		s.Summary = u.Summary
	}
	if u.Skills != nil {
		s.Skills = u.Skills
	}
	if u.Experience != nil {
		s.Experience = u.Experience
	}
}

var validate = validator.New()

// Validate checks struct tags and returns a readable error listing the
// failing fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}
	return err
}
