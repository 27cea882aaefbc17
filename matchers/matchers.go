package matchers

import "strings"

// Markers a poster uses to label their submission statement. The " ss "
// token is matched with surrounding spaces on purpose: bare "ss" appears in
// too many ordinary words.
const (
	statementPhrase = "submission statement"
	statementToken  = " ss "
)

// HasStatementMarker reports whether a comment body explicitly labels itself
// as a submission statement. Matching is case-insensitive.
func HasStatementMarker(body string) bool {
	text := strings.ToLower(body)
	return strings.Contains(text, statementPhrase) || strings.Contains(text, statementToken)
}

// ContainsAnyKeyword reports whether any of the configured keywords appears
// in the text. Keywords are expected lower case; the text is lowered here.
func ContainsAnyKeyword(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
