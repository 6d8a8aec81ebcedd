package utils

import (
	"strconv"
	"unicode"
)

// FormatWithCommas renders n with thousands separators, e.g. 1234567 as "1,234,567".
func FormatWithCommas(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return sign + string(out)
}

// ApplyCapitalization copies the upper case positions of input onto word,
// so "Ap" completes to "Apple" rather than "apple". Positions past the end
// of word are ignored.
func ApplyCapitalization(word, input string) string {
	in := []rune(input)
	hasUpper := false
	for _, r := range in {
		if unicode.IsUpper(r) {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return word
	}

	out := []rune(word)
	for i, r := range in {
		if i < len(out) && unicode.IsUpper(r) {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}
