// Package core provides the snapshot record types and value parsing shared by
// the parser, the ingestion engine and the aggregation engine.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseSignedCents converts a decimal amount string to signed cents with
// half-up rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional leading sign, and thousands separators ("1,234.56"). Snapshot
// exports carry debit amounts as positive magnitudes; re-signing by
// transaction type happens at aggregation time, not here.
//
// Examples:
//
//	ParseSignedCents("12.34")    -> 1234, nil
//	ParseSignedCents("-12,34")   -> -1234, nil
//	ParseSignedCents("1,234.56") -> 123456, nil
//	ParseSignedCents("12.346")   -> 1235, nil (rounds up)
func ParseSignedCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, ErrInvalidAmount
	}

	// Disambiguate the separators: with both present the last one is the
	// decimal mark; a lone comma is a decimal mark, not a thousands group.
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	if lastDot >= 0 && lastComma >= 0 {
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	} else if lastComma >= 0 {
		s = strings.Replace(s, ",", ".", 1)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// Take the first two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatCents renders signed cents as a plain decimal string ("-12.34") for
// logs and report payloads. Use cents for calculations to avoid
// floating-point precision issues.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + padCents(cents%100)
}

func padCents(c int64) string {
	if c < 10 {
		return "0" + strconv.FormatInt(c, 10)
	}
	return strconv.FormatInt(c, 10)
}
