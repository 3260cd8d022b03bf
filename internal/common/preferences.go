package common

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
	"atsoptimizer/internal/utils"
)

// ProfileFile is the on-disk form of a user's optimisation settings.
type ProfileFile struct {
	Preferences *types.OptimizationPreferences `yaml:"preferences"`
	UserContext *types.UserContext             `yaml:"userContext"`
}

// ReadProfile loads preferences and user context from a YAML or JSON file.
// Either part may be absent; present parts are validated.
func (fp *FileProcessor) ReadProfile(filename string) (*ProfileFile, error) {
	if !utils.IsStructuredFile(filename) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Preferences file must be .yaml, .yml or .json: %s", filename), nil)
	}
	if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	// JSON documents are valid YAML, so one decoder serves both.
	var profile ProfileFile
	if err := yaml.Unmarshal([]byte(content), &profile); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot parse preferences file: %s", filename), err)
	}
	if profile.Preferences != nil {
		if err := types.Validate(profile.Preferences); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid preferences", err)
		}
	}
	if profile.UserContext != nil {
		if err := types.Validate(profile.UserContext); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid user context", err)
		}
	}
	return &profile, nil
}
