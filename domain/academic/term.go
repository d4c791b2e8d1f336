package academic

// Canonical term and session labels. Every stored result carries one of the
// term labels and a session string, even when filename inference fails.
const (
	FirstTerm      = "First Term"
	SecondTerm     = "Second Term"
	ThirdTerm      = "Third Term"
	UnknownTerm    = "Unknown Term"
	UnknownSession = "Unknown Session"
)

// termOrder fixes the academic ordering of terms. Unknown labels rank below
// every known term, so they never win a latest-term comparison.
var termOrder = map[string]int{
	FirstTerm:  1,
	SecondTerm: 2,
	ThirdTerm:  3,
}

// TermOrder returns the ordering rank of a term label, 0 for unknown labels.
func TermOrder(term string) int {
	return termOrder[term]
}

// LatestTerm picks the highest-ordered term from the given labels. Returns
// the empty string for an empty input.
func LatestTerm(terms []string) string {
	latest := ""
	best := -1
	for _, t := range terms {
		if order := TermOrder(t); order > best {
			latest = t
			best = order
		}
	}
	return latest
}
