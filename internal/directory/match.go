package directory

import (
	"strings"
	"unicode"
)

// SuffixLen is the number of trailing phone digits used for identification.
const SuffixLen = 4

var digitWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// NormalizeDigitWords replaces spoken digit words ("nine", "Eight") with
// numerals. Other words and punctuation are left untouched.
func NormalizeDigitWords(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	word := make([]rune, 0, 8)
	flush := func() {
		if len(word) == 0 {
			return
		}
		w := string(word)
		if d, ok := digitWords[strings.ToLower(w)]; ok {
			b.WriteString(d)
		} else {
			b.WriteString(w)
		}
		word = word[:0]
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			word = append(word, r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

// PhoneSuffix returns the suffix of the first phone-like run in text.
// See PhoneSuffixes.
func PhoneSuffix(text string) (string, bool) {
	all := PhoneSuffixes(text)
	if len(all) == 0 {
		return "", false
	}
	return all[0], true
}

// PhoneSuffixes returns the last SuffixLen digits of every run of at least
// SuffixLen digits in text, in order. Short digit groups separated by
// spaces, hyphens, dots or commas count as one run ("9 8 7 6",
// "555-123-5678"). A group of SuffixLen or more digits ends its run, and a
// comma never extends a run that is already long enough, so
// "5678, 2 lines" yields only "5678".
func PhoneSuffixes(text string) []string {
	runes := []rune(text)
	var out []string
	var run []rune
	group := 0
	closed := false
	emit := func() {
		if len(run) >= SuffixLen {
			out = append(out, string(run[len(run)-SuffixLen:]))
		}
		run = run[:0]
		group = 0
		closed = false
	}
	for i, r := range runes {
		if unicode.IsDigit(r) {
			run = append(run, r)
			group++
			continue
		}
		if group >= SuffixLen {
			closed = true
		}
		group = 0
		if isRunSeparator(r) && len(run) > 0 && !closed && nextIsDigit(runes, i) &&
			!(r == ',' && len(run) >= SuffixLen) {
			continue
		}
		emit()
	}
	emit()
	return out
}

func isRunSeparator(r rune) bool {
	return r == ' ' || r == '-' || r == '.' || r == ','
}

// nextIsDigit reports whether the next non-separator rune after i is a digit.
func nextIsDigit(runes []rune, i int) bool {
	for j := i + 1; j < len(runes); j++ {
		if isRunSeparator(runes[j]) {
			continue
		}
		return unicode.IsDigit(runes[j])
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchID returns the record with the given id.
func MatchID(records []Customer, id string) (Customer, bool) {
	for _, c := range records {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

// MatchPhoneSuffix returns the first record, in directory order, whose phone
// contains suffix. Several matching records are not reported.
func MatchPhoneSuffix(records []Customer, suffix string) (Customer, bool) {
	if suffix == "" {
		return Customer{}, false
	}
	for _, c := range records {
		if strings.Contains(c.Phone, suffix) || strings.Contains(digitsOnly(c.Phone), suffix) {
			return c, true
		}
	}
	return Customer{}, false
}

// MatchFirstName returns the first record whose first name occurs in text,
// ignoring case.
func MatchFirstName(records []Customer, text string) (Customer, bool) {
	lower := strings.ToLower(text)
	for _, c := range records {
		name := strings.ToLower(c.FirstName())
		if name != "" && strings.Contains(lower, name) {
			return c, true
		}
	}
	return Customer{}, false
}

// MatchUtterance resolves a spoken identification. Digit words are
// normalized first; every phone suffix in the text is tried, in order,
// before a first name.
func MatchUtterance(records []Customer, text string) (Customer, bool) {
	normalized := NormalizeDigitWords(text)
	for _, suffix := range PhoneSuffixes(normalized) {
		if c, ok := MatchPhoneSuffix(records, suffix); ok {
			return c, true
		}
	}
	return MatchFirstName(records, normalized)
}
