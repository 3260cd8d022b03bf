package common

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
	"atsoptimizer/internal/utils"
)

// keywordFile accepts either a bare list or a {keywords: [...]} document.
type keywordFile struct {
	Keywords []types.ExtractedKeyword `json:"keywords" yaml:"keywords"`
}

// ReadKeywords loads a keyword list from a YAML or JSON file.
func (fp *FileProcessor) ReadKeywords(filename string) ([]types.ExtractedKeyword, error) {
	if !utils.IsStructuredFile(filename) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Keyword file must be .yaml, .yml or .json: %s", filename), nil)
	}
	if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	keywords, err := parseKeywords(utils.GetFileExtension(filename), []byte(content))
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot parse keyword file: %s", filename), err)
	}
	for i := range keywords {
		if err := types.Validate(&keywords[i]); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeValidation,
				fmt.Sprintf("Invalid keyword #%d in %s", i+1, filename), err)
		}
	}
	return keywords, nil
}

func parseKeywords(ext string, data []byte) ([]types.ExtractedKeyword, error) {
	unmarshal := yaml.Unmarshal
	if ext == ".json" {
		unmarshal = json.Unmarshal
	}

	var list []types.ExtractedKeyword
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc keywordFile
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Keywords == nil {
		return nil, fmt.Errorf("no keywords found")
	}
	return doc.Keywords, nil
}
