package domain

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Upper returns the locale-neutral upper-case form used for input comparison.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// IsRepetition reports whether the current input repeats each of the lookback
// most recent entries of inputs, ignoring case.
//
// raw equal to nullInput is never a repetition. A lookback of zero or less
// disables detection.
func IsRepetition(inputs *History[string], upper string, lookback int, nullInput string, raw string) bool {
	if raw == nullInput {
		return false
	}
	if lookback <= 0 {
		return false
	}
	for i := 0; i < lookback; i++ {
		prev, ok := inputs.Get(i)
		if !ok || Upper(prev) != upper {
			return false
		}
	}
	return true
}
