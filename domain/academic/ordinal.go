package academic

import "strconv"

// Ordinal renders a 1-based position as an English ordinal label
// ("1st", "2nd", "3rd", "4th", ...), with the 11th/12th/13th exception.
func Ordinal(n int) string {
	if n <= 0 {
		return ""
	}
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
