package table

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Guard checks text typed into a numeric cell. Valid text is returned unchanged
// with accepted=true. Invalid text loses exactly its last rune and the shortened
// text is returned without being checked again.
func Guard(text string, policy NumericPolicy) (string, bool) {
	if validNumeric(text, policy) {
		return text, true
	}
	return dropLastRune(text), false
}

func validNumeric(text string, policy NumericPolicy) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return policy == EmptyNumericAllowed
	}
	_, ok := parseFinite(trimmed)
	return ok
}

func dropLastRune(text string) string {
	if text == "" {
		return text
	}
	_, size := utf8.DecodeLastRuneInString(text)
	return text[:len(text)-size]
}

// parseFinite parses s as a float and rejects NaN and the infinities.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
