// Package speech prepares assistant replies for text-to-speech output.
package speech

import (
	"regexp"
	"strings"
)

var (
	listMarker  = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)
	heading     = regexp.MustCompile(`(?m)^\s*#+\s*`)
	emphasis    = regexp.MustCompile("\\*\\*|__|[*`]")
	currency    = regexp.MustCompile(`\$\s?(\d[\d,]*(?:\.\d+)?)`)
	percent     = regexp.MustCompile(`(\d)\s*%`)
	numberSign  = regexp.MustCompile(`#\s?(\d)`)
	ratio       = regexp.MustCompile(`(\d\w*)\s*/\s*(\d)`)
	whitespace  = regexp.MustCompile(`\s+`)
	symbolWords = strings.NewReplacer(
		"&", " and ",
		"@", " at ",
		"+", " plus ",
		"%", " percent",
		" / ", " or ",
		"#", "",
		"$", " dollars ",
	)
)

// Normalize rewrites symbols and markup that TTS engines read poorly:
// "$89.99" becomes "89.99 dollars", "49%" becomes "49 percent", list markers
// and emphasis are dropped.
func Normalize(text string) string {
	s := heading.ReplaceAllString(text, "")
	s = listMarker.ReplaceAllString(s, "")
	s = emphasis.ReplaceAllString(s, "")
	s = currency.ReplaceAllString(s, "$1 dollars")
	s = percent.ReplaceAllString(s, "$1 percent")
	s = numberSign.ReplaceAllString(s, "number $1")
	s = ratio.ReplaceAllString(s, "$1 out of $2")
	s = symbolWords.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
