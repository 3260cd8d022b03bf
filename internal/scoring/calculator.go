// Package scoring turns keyword analysis and resume signals into a
// versioned ATS score.
package scoring

import (
	"time"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

// Calculator computes ATS scores. The result depends only on its inputs and
// the clock.
type Calculator struct {
	now func() time.Time
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithClock replaces time.Now for CalculatedAt.
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *Calculator) {
		c.now = now
	}
}

func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCalculator = NewCalculator()

// ComputeScore scores with the default calculator.
func ComputeScore(
	analysis types.KeywordAnalysisResult,
	sections types.SectionSignals,
	format types.FormatSignals,
	content types.ContentQualitySignals,
	version types.ScoreVersion,
) (types.ATSScore, error) {
	return defaultCalculator.Compute(analysis, sections, format, content, version)
}

// Compute builds the breakdown for version and weights it into an overall
// score. Components that lack the data they need score 0 rather than fail.
func (c *Calculator) Compute(
	analysis types.KeywordAnalysisResult,
	sections types.SectionSignals,
	format types.FormatSignals,
	content types.ContentQualitySignals,
	version types.ScoreVersion,
) (types.ATSScore, error) {
	table, err := WeightsFor(version)
	if err != nil {
		return types.ATSScore{}, errors.NewValidationError(errors.ErrCodeValidation, "cannot compute score", err).
			WithContext("version", string(version))
	}

	keywords := keywordComponent(analysis)
	secs := sectionsComponent(sections)
	quality := contentQualityComponent(content)
	layout := formatComponent(format)

	var breakdown types.ScoreBreakdown
	switch version {
	case types.ScoreV1:
		breakdown = types.BreakdownV1{
			Keywords:   keywords,
			Skills:     secs,
			Experience: quality,
			Format:     layout,
		}
	case types.ScoreV2:
		breakdown = types.BreakdownV2{
			Keywords:       keywords,
			ContentQuality: quality,
			Sections:       secs,
			Format:         layout,
		}
	case types.ScoreV21:
		breakdown = types.BreakdownV21{
			Keywords:         keywords,
			QualificationFit: qualificationFitComponent(analysis),
			ContentQuality:   quality,
			Sections:         secs,
			Format:           layout,
		}
	}

	return types.ATSScore{
		Overall:      Overall(table, breakdown.Components()),
		Breakdown:    breakdown,
		CalculatedAt: c.now().UTC(),
	}, nil
}
