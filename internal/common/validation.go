package common

import (
	"fmt"
	"slices"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats. With
// nothing configured, any format the formatter registry knows is accepted.
// Matching is case sensitive.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	supported := GetSupportedFormats(supportedFormats)
	if slices.Contains(supported, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supported), nil)
}

// GetSupportedFormats returns the configured formats, or the registry's when
// none are configured.
func GetSupportedFormats(supportedFormats []string) []string {
	if len(supportedFormats) == 0 {
		return formatters.GlobalRegistry.GetSupportedFormats()
	}
	return supportedFormats
}
