package suggestions

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

// SectionError reports a failed generation call for one section. Err is an
// *errors.AppError whose code is LLM_TIMEOUT, LLM_ERROR or RATE_LIMITED.
type SectionError struct {
	Section types.SuggestionSection
	Code    string
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("%s suggestion failed: %v", e.Section, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// GenerationError is returned by GenerateAll when at least one section
// failed. Partial holds the sections that succeeded; persisting them is the
// caller's decision.
type GenerationError struct {
	Failures []*SectionError
	Partial  *types.SuggestionSet
}

func (e *GenerationError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *GenerationError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Code is the code of the first failure in section order.
func (e *GenerationError) Code() string {
	if len(e.Failures) == 0 {
		return ""
	}
	return e.Failures[0].Code
}

// FailedSections lists the sections that failed.
func (e *GenerationError) FailedSections() []types.SuggestionSection {
	out := make([]types.SuggestionSection, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Section
	}
	return out
}

// classify maps a generation failure onto the error taxonomy.
func classify(section types.SuggestionSection, err error) *SectionError {
	switch code := errors.CodeOf(err); code {
	case errors.ErrCodeLLMTimeout, errors.ErrCodeLLMError, errors.ErrCodeRateLimited:
		return &SectionError{Section: section, Code: code, Err: err}
	}

	var appErr *errors.AppError
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.As(err, &netErr) && netErr.Timeout():
		appErr = errors.NewLLMTimeoutError(fmt.Sprintf("%s generation timed out", section), err)
	case stderrors.Is(err, context.Canceled):
		appErr = errors.NewLLMError(fmt.Sprintf("%s generation was cancelled", section), err)
	default:
		appErr = errors.NewLLMError(fmt.Sprintf("%s generation failed", section), err)
	}
	appErr.WithContext("section", string(section))
	return &SectionError{Section: section, Code: appErr.Code, Err: appErr}
}
