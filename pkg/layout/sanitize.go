package layout

import (
	"fmt"
	"regexp"
	"strings"
)

// passthroughKeywords are CSS-level keywords that must survive sanitization
// verbatim.
var passthroughKeywords = map[string]struct{}{
	"auto":    {},
	"none":    {},
	"inherit": {},
	"initial": {},
	"unset":   {},
	"normal":  {},
}

var (
	strippableUnitRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)(px|pt)$`)
	preservedUnitRe  = regexp.MustCompile(`^-?\d+(?:\.\d+)?(%|vw|vh|vmin|vmax|em|rem)$`)
	bareNumberRe     = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	fractionUnitRe   = regexp.MustCompile(`(^|\s)\d+(?:\.\d+)?fr(\s|$)`)
)

// gridFunctionTokens mark values that belong to grid templates and must not be
// touched.
var gridFunctionTokens = []string{"repeat(", "calc(", "minmax("}

// SanitizeValue normalizes a single style value for the storage format, which
// expects bare numbers where the input may carry px/pt suffixes. Percentages,
// viewport and font-relative units, keywords, URLs and grid expressions pass
// through verbatim. Malformed two-token numeric values are repaired by
// truncation to the first token.
func SanitizeValue(v any) any {
	switch tv := v.(type) {
	case string:
		return sanitizeString(tv)
	case int, int32, int64, float32, float64:
		return v
	default:
		return v
	}
}

func sanitizeString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	if _, ok := passthroughKeywords[strings.ToLower(s)]; ok {
		return s
	}
	if strings.Contains(s, "url(") || strings.Contains(s, "://") {
		return s
	}
	if isGridExpression(s) {
		return s
	}

	// "15 40" style values are inconsistent input; keep the first token.
	if strings.ContainsAny(s, " \t") {
		fields := strings.Fields(s)
		if len(fields) == 2 && looksNumeric(fields[0]) && looksNumeric(fields[1]) {
			return sanitizeString(fields[0])
		}
		return s
	}

	if m := strippableUnitRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func isGridExpression(s string) bool {
	if fractionUnitRe.MatchString(s) || strings.HasSuffix(s, "fr") && bareNumberRe.MatchString(strings.TrimSuffix(s, "fr")) {
		return true
	}
	for _, tok := range gridFunctionTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func looksNumeric(s string) bool {
	return bareNumberRe.MatchString(s) ||
		strippableUnitRe.MatchString(s) ||
		preservedUnitRe.MatchString(s)
}

// sanitizeToString is a convenience for settings slots that are always strings.
func sanitizeToString(v any) string {
	switch tv := SanitizeValue(v).(type) {
	case string:
		return tv
	default:
		return fmt.Sprintf("%v", tv)
	}
}
