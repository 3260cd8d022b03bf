package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScoreVersion selects the weighting scheme and breakdown shape of an ATSScore.
type ScoreVersion string

const (
	ScoreV1  ScoreVersion = "v1"
	ScoreV2  ScoreVersion = "v2"
	ScoreV21 ScoreVersion = "v2.1"
)

// ParseScoreVersion accepts "v1", "v2", "v2.1" and the same without the "v".
func ParseScoreVersion(s string) (ScoreVersion, error) {
	switch s {
	case "v1", "1":
		return ScoreV1, nil
	case "v2", "2":
		return ScoreV2, nil
	case "v2.1", "2.1":
		return ScoreV21, nil
	}
	return "", fmt.Errorf("unknown score version %q", s)
}

// SectionName identifies a resume section.
type SectionName string

const (
	SectionContact        SectionName = "contact"
	SectionObjective      SectionName = "objective"
	SectionSummary        SectionName = "summary"
	SectionExperience     SectionName = "experience"
	SectionEducation      SectionName = "education"
	SectionSkills         SectionName = "skills"
	SectionProjects       SectionName = "projects"
	SectionCertifications SectionName = "certifications"
)

// SectionSignal describes one detected section.
type SectionSignal struct {
	Name      SectionName `json:"name"`
	WordCount int         `json:"wordCount"`
	ItemCount int         `json:"itemCount"`
}

// SectionSignals lists the sections detected in a resume.
type SectionSignals struct {
	Sections []SectionSignal `json:"sections"`
}

// Get returns the signal for the named section.
func (s SectionSignals) Get(name SectionName) (SectionSignal, bool) {
	for _, sec := range s.Sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return SectionSignal{}, false
}

// FormatSignals are layout and parseability facts about a resume.
type FormatSignals struct {
	HasObjectiveSection bool `json:"hasObjectiveSection"`
	HasEmail            bool `json:"hasEmail"`
	HasPhone            bool `json:"hasPhone"`
	ParseableDates      int  `json:"parseableDates"`
	UnparseableDates    int  `json:"unparseableDates"`
	MultiColumnLayout   bool `json:"multiColumnLayout"`
	HasTablesOrGraphics bool `json:"hasTablesOrGraphics"`
	WordCount           int  `json:"wordCount"`
}

// ContentQualitySignals are counts describing the writing in a resume.
type ContentQualitySignals struct {
	BulletCount        int `json:"bulletCount"`
	QuantifiedBullets  int `json:"quantifiedBullets"`
	StrongVerbBullets  int `json:"strongVerbBullets"`
	WeakVerbBullets    int `json:"weakVerbBullets"`
	KeywordOccurrences int `json:"keywordOccurrences"`
	WordCount          int `json:"wordCount"`
}

// Component names used in breakdowns and weight tables.
const (
	ComponentKeywords         = "keywords"
	ComponentSkills           = "skills"
	ComponentExperience       = "experience"
	ComponentContentQuality   = "contentQuality"
	ComponentSections         = "sections"
	ComponentFormat           = "format"
	ComponentQualificationFit = "qualificationFit"
)

type KeywordComponent struct {
	Score           int `json:"score"`
	MatchRate       int `json:"matchRate"`
	Matched         int `json:"matched"`
	Total           int `json:"total"`
	RequiredMatched int `json:"requiredMatched"`
	RequiredTotal   int `json:"requiredTotal"`
}

type SectionsComponent struct {
	Score   int           `json:"score"`
	Present []SectionName `json:"present"`
	Shallow []SectionName `json:"shallow"`
	Missing []SectionName `json:"missing"`
}

type ContentQualityComponent struct {
	Score          int `json:"score"`
	Quantification int `json:"quantification"`
	ActionVerbs    int `json:"actionVerbs"`
	KeywordDensity int `json:"keywordDensity"`
}

// AppliedPenalty is a format rule that fired.
type AppliedPenalty struct {
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

type FormatComponent struct {
	Score     int              `json:"score"`
	Penalties []AppliedPenalty `json:"penalties"`
}

type QualificationFitComponent struct {
	Score              int `json:"score"`
	RequiredMatched    int `json:"requiredMatched"`
	RequiredTotal      int `json:"requiredTotal"`
	CredentialsMatched int `json:"credentialsMatched"`
	CredentialsTotal   int `json:"credentialsTotal"`
}

// NamedScore is one component score of a breakdown.
type NamedScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ScoreBreakdown is implemented only by BreakdownV1, BreakdownV2 and
// BreakdownV21.
type ScoreBreakdown interface {
	Version() ScoreVersion
	Components() []NamedScore
	isScoreBreakdown()
}

// BreakdownV1 is the original four-part breakdown. Skills holds the section
// coverage result and Experience the content quality result.
type BreakdownV1 struct {
	Keywords   KeywordComponent        `json:"keywords"`
	Skills     SectionsComponent       `json:"skills"`
	Experience ContentQualityComponent `json:"experience"`
	Format     FormatComponent         `json:"format"`
}

func (BreakdownV1) Version() ScoreVersion { return ScoreV1 }
func (BreakdownV1) isScoreBreakdown()     {}

func (b BreakdownV1) Components() []NamedScore {
	return []NamedScore{
		{ComponentKeywords, b.Keywords.Score},
		{ComponentSkills, b.Skills.Score},
		{ComponentExperience, b.Experience.Score},
		{ComponentFormat, b.Format.Score},
	}
}

type BreakdownV2 struct {
	Keywords       KeywordComponent        `json:"keywords"`
	ContentQuality ContentQualityComponent `json:"contentQuality"`
	Sections       SectionsComponent       `json:"sections"`
	Format         FormatComponent         `json:"format"`
}

func (BreakdownV2) Version() ScoreVersion { return ScoreV2 }
func (BreakdownV2) isScoreBreakdown()     {}

func (b BreakdownV2) Components() []NamedScore {
	return []NamedScore{
		{ComponentKeywords, b.Keywords.Score},
		{ComponentContentQuality, b.ContentQuality.Score},
		{ComponentSections, b.Sections.Score},
		{ComponentFormat, b.Format.Score},
	}
}

type BreakdownV21 struct {
	Keywords         KeywordComponent          `json:"keywords"`
	QualificationFit QualificationFitComponent `json:"qualificationFit"`
	ContentQuality   ContentQualityComponent   `json:"contentQuality"`
	Sections         SectionsComponent         `json:"sections"`
	Format           FormatComponent           `json:"format"`
}

func (BreakdownV21) Version() ScoreVersion { return ScoreV21 }
func (BreakdownV21) isScoreBreakdown()     {}

func (b BreakdownV21) Components() []NamedScore {
	return []NamedScore{
		{ComponentKeywords, b.Keywords.Score},
		{ComponentQualificationFit, b.QualificationFit.Score},
		{ComponentContentQuality, b.ContentQuality.Score},
		{ComponentSections, b.Sections.Score},
		{ComponentFormat, b.Format.Score},
	}
}

// ATSScore is a versioned, immutable score. The breakdown's concrete type
// is determined by its version.
type ATSScore struct {
	Overall      int
	Breakdown    ScoreBreakdown
	CalculatedAt time.Time
}

// Version returns the scoring version, or "" for a zero score.
func (s ATSScore) Version() ScoreVersion {
	if s.Breakdown == nil {
		return ""
	}
	return s.Breakdown.Version()
}

type atsScoreJSON struct {
	Version      ScoreVersion    `json:"version"`
	Overall      int             `json:"overall"`
	Breakdown    json.RawMessage `json:"breakdown"`
	CalculatedAt time.Time       `json:"calculatedAt"`
}

func (s ATSScore) MarshalJSON() ([]byte, error) {
	if s.Breakdown == nil {
		return nil, fmt.Errorf("ats score has no breakdown")
	}
	breakdown, err := json.Marshal(s.Breakdown)
	if err != nil {
		return nil, err
	}
	return json.Marshal(atsScoreJSON{
		Version:      s.Breakdown.Version(),
		Overall:      s.Overall,
		Breakdown:    breakdown,
		CalculatedAt: s.CalculatedAt,
	})
}

func (s *ATSScore) UnmarshalJSON(data []byte) error {
	var raw atsScoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var breakdown ScoreBreakdown
	switch raw.Version {
	case ScoreV1:
		var b BreakdownV1
		if err := json.Unmarshal(raw.Breakdown, &b); err != nil {
			return err
		}
		breakdown = b
	case ScoreV2:
		var b BreakdownV2
		if err := json.Unmarshal(raw.Breakdown, &b); err != nil {
			return err
		}
		breakdown = b
	case ScoreV21:
		var b BreakdownV21
		if err := json.Unmarshal(raw.Breakdown, &b); err != nil {
			return err
		}
		breakdown = b
	default:
		return fmt.Errorf("unknown score version %q", raw.Version)
	}

	*s = ATSScore{Overall: raw.Overall, Breakdown: breakdown, CalculatedAt: raw.CalculatedAt}
	return nil
}
