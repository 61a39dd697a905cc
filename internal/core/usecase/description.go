package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/tariff-resolver/internal/core/ports"
)

const descriptionSeparator = " → "

// describeCode chains chapter, heading and the most specific available text,
// skipping levels that repeat the text above them.
func describeCode(ctx context.Context, catalog ports.TariffCatalog, code string) (string, error) {
	texts := make(map[int]string, len(descriptionLevels))
	for _, k := range descriptionAncestors(code) {
		record, found, err := catalog.FindDescription(ctx, k.Key)
		if err != nil {
			return "", err
		}
		if found {
			texts[k.Level] = strings.TrimSpace(record.Text)
		}
	}
	return chainDescriptions(code, texts), nil
}

func chainDescriptions(code string, texts map[int]string) string {
	chapter, heading := texts[2], texts[4]
	subheading, exact := texts[6], texts[10]

	segments := make([]string, 0, 3)
	last := ""
	include := func(text string) {
		segments = append(segments, text)
		last = text
	}

	if chapter != "" {
		include(chapter)
	}
	if heading != "" && heading != last {
		include(heading)
	}
	switch {
	case subheading != "" && subheading != last:
		include(subheading)
	case exact != "" && exact != chapter && exact != heading:
		include(exact)
	}

	if len(segments) == 0 {
		return fallbackDescription(code)
	}
	return strings.Join(segments, descriptionSeparator)
}

// nearestDescription returns the most specific single description text.
func nearestDescription(ctx context.Context, catalog ports.TariffCatalog, code string) (string, error) {
	found, err := findMostSpecific(ctx, descriptionAncestors(code), catalog.FindDescription)
	if err != nil {
		return "", err
	}
	if !found.Found || strings.TrimSpace(found.Record.Text) == "" {
		return fallbackDescription(code), nil
	}
	return strings.TrimSpace(found.Record.Text), nil
}

func fallbackDescription(code string) string {
	return "Code: " + code
}
