package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// DefaultOfferPrefix starts every offer number: VFC-OTE-2025-0001.
const DefaultOfferPrefix = "VFC-OTE"

// formatOfferNumber constructs the offer number from its components.
func formatOfferNumber(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, sequence)
}

// NextOfferNumber returns the number following the highest sequence among
// existing numbers of the same prefix and year. Numbers whose suffix is not
// numeric are ignored.
func NextOfferNumber(prefix string, year int, existing []string) string {
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, year)
	maxSeq := 0
	for _, number := range existing {
		if !strings.HasPrefix(number, yearPrefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(number, yearPrefix))
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return formatOfferNumber(prefix, year, maxSeq+1)
}

// GenerateOfferNumber creates the next offer number for the year of date.
// Format: {prefix}-{yyyy}-{sequence}, sequence 4-digit zero-padded per year.
// Pass the transaction app when the number is assigned inside a save.
func GenerateOfferNumber(app core.App, prefix string, date time.Time) (string, error) {
	if prefix == "" {
		prefix = DefaultOfferPrefix
	}
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, date.Year())

	records, err := app.FindRecordsByFilter(
		"cotizaciones",
		"numero_oferta ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": yearPrefix + "%"},
	)
	if err != nil {
		return "", fmt.Errorf("query offer numbers: %w", err)
	}

	existing := make([]string, 0, len(records))
	for _, rec := range records {
		existing = append(existing, rec.GetString("numero_oferta"))
	}
	return NextOfferNumber(prefix, date.Year(), existing), nil
}
