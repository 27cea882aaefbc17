package janitor

import (
	"unicode/utf8"

	"github.com/rezl/SubmissionStatementBot/reddit"
)

// Verdict is the submission statement classification for one evaluation. It
// is derived fresh every time from current remote state and never stored.
type Verdict int

const (
	Missing Verdict = iota
	TooShort
	Valid
)

func (v Verdict) String() string {
	switch v {
	case Missing:
		return "MISSING"
	case TooShort:
		return "TOO_SHORT"
	case Valid:
		return "VALID"
	}
	return "UNKNOWN"
}

// Classify derives the verdict from the resolved submission statement.
// Length is counted in characters, not bytes; a statement of exactly
// minLength characters is valid.
func Classify(ss *reddit.Comment, minLength int) Verdict {
	if ss == nil {
		return Missing
	}
	if utf8.RuneCountInString(ss.Body) < minLength {
		return TooShort
	}
	return Valid
}
