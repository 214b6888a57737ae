package extract

import (
	"regexp"
	"strings"
)

var (
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	manyBlanks   = regexp.MustCompile(`\n{3,}`)
	edgeSpaces   = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

// CleanText normalizes extracted text: horizontal whitespace collapses to a
// single space, runs of blank lines collapse to at most one, and the result
// is trimmed.
func CleanText(s string) string {
	s = horizontalWS.ReplaceAllString(s, " ")
	s = edgeSpaces.ReplaceAllString(s, "\n")
	s = manyBlanks.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// nodeText flattens an element's text the way a human reads it: internal
// whitespace collapsed to single spaces, trimmed.
func nodeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
