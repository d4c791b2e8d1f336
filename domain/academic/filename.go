package academic

import (
	"regexp"
	"strings"
)

var (
	termPattern    = regexp.MustCompile(`(?i)(first|1st|second|2nd|third|3rd)[_\s-]*term`)
	sessionPattern = regexp.MustCompile(`(\d{4})[_\s-]*(\d{4}|\d{2})`)
)

var termTokens = map[string]string{
	"first":  FirstTerm,
	"1st":    FirstTerm,
	"second": SecondTerm,
	"2nd":    SecondTerm,
	"third":  ThirdTerm,
	"3rd":    ThirdTerm,
}

// InferTerm extracts a canonical term label from an uploaded filename.
// It accepts "first"/"second"/"third" (or the 1st/2nd/3rd short forms)
// followed by "term", in any case, with underscore/space/hyphen separators.
func InferTerm(filename string) string {
	m := termPattern.FindStringSubmatch(filename)
	if m == nil {
		return UnknownTerm
	}
	if term, ok := termTokens[strings.ToLower(m[1])]; ok {
		return term
	}
	return UnknownTerm
}

// InferSession extracts a "YYYY/YYYY" session label from an uploaded
// filename: two year groups joined by an optional separator, where the
// second group may be abbreviated to 2 digits ("2024_25" -> "2024/2025").
func InferSession(filename string) string {
	m := sessionPattern.FindStringSubmatch(filename)
	if m == nil {
		return UnknownSession
	}
	yr1, yr2 := m[1], m[2]
	if len(yr2) == 2 {
		yr2 = "20" + yr2
	}
	return yr1 + "/" + yr2
}
