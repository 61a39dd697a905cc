package usecase

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

const fullCodeLength = 10

// Duty and VAT schedules are keyed by zero-padded 10-digit codes.
var paddedLevels = []int{10, 8, 6, 4, 2}

// Descriptions are keyed by the unpadded ancestor at each level.
var descriptionLevels = []int{10, 6, 4, 2}

func normalizeCode(raw string) (string, error) {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' {
			return -1
		}
		return r
	}, raw)

	if len(normalized) < 2 {
		return "", fmt.Errorf("%w: %q must contain at least 2 digits", domain.ErrInvalidCode, raw)
	}
	for _, r := range normalized {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q may only contain digits, spaces and periods", domain.ErrInvalidCode, raw)
		}
	}
	return normalized, nil
}

func padCode(code string) string {
	if len(code) >= fullCodeLength {
		return code[:fullCodeLength]
	}
	return code + strings.Repeat("0", fullCodeLength-len(code))
}

// paddedAncestors expects a full 10-digit code.
func paddedAncestors(code string) []cascadeKey {
	keys := make([]cascadeKey, 0, len(paddedLevels))
	for _, level := range paddedLevels {
		keys = append(keys, cascadeKey{Key: padCode(code[:level]), Level: level})
	}
	return keys
}

func descriptionAncestors(code string) []cascadeKey {
	keys := make([]cascadeKey, 0, len(descriptionLevels))
	for _, level := range descriptionLevels {
		if level <= len(code) {
			keys = append(keys, cascadeKey{Key: code[:level], Level: level})
		}
	}
	return keys
}

func normalizeCountry(raw string) string {
	country := strings.ToUpper(strings.TrimSpace(raw))
	if country == "" {
		return domain.OriginErgaOmnes
	}
	return country
}

func isDefaultOrigin(country string) bool {
	return country == domain.OriginErgaOmnes
}
