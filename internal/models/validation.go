package models

import (
	"regexp"
	"strings"

	apperrors "liquidity-lag/internal/errors"
)

// Series names are tickers or economic series codes such as M2SL, BRK.B or
// S&P500. They are also used as keys in the store and on the command line.
var seriesNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._&-]{0,63}$`)

// ValidateSeriesName rejects empty, oversized or oddly formed series names.
func ValidateSeriesName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError("name", name, "series name is required")
	}
	if len(name) > 64 {
		return apperrors.NewValidationError("name", name, "series name too long (max 64 characters)")
	}
	if !seriesNamePattern.MatchString(name) {
		return apperrors.NewValidationError("name", name, "invalid series name format")
	}
	return nil
}
