package parser

import "regexp"

var (
	chainOperator = regexp.MustCompile(`^(?:&&|\|\||\|)$`)
	annotationTok = regexp.MustCompile(`^\?![^?]+\?!$`)
)

// TestParser parses one test body and marks every command that is not
// chained to the command after it with &&, ||, or |.
type TestParser struct {
	*Parser
}

// NewTestParser returns a parser over a single unwrapped test body.
func NewTestParser(body string) *TestParser {
	t := &TestParser{Parser: New(body)}
	t.acc = t
	return t
}

// Accumulate appends cmd to stream, first inserting a ?!AMP?! annotation
// after the last non-newline token when the preceding command lacks a
// chaining operator. Bare newlines and already-annotated tails are left
// alone, so re-checking annotated output adds nothing.
func (t *TestParser) Accumulate(stream, cmd []string) []string {
	switch {
	case len(stream) == 0:
	case len(cmd) == 1 && cmd[0] == "\n":
	case endsWith(stream, []*regexp.Regexp{chainOperator, nil}):
	default:
		if n := findNonNl(stream, len(stream)-1); n >= 0 && !annotationTok.MatchString(stream[n]) {
			flagged := make([]string, 0, len(stream)+1)
			flagged = append(flagged, stream[:n+1]...)
			flagged = append(flagged, "?!AMP?!")
			flagged = append(flagged, stream[n+1:]...)
			stream = flagged
		}
	}
	return append(stream, cmd...)
}

// findNonNl walks backward from index n to the nearest token that is not
// a newline; -1 when only newlines remain.
func findNonNl(tokens []string, n int) int {
	for n >= 0 && tokens[n] == "\n" {
		n--
	}
	return n
}

// endsWith matches needles in reverse against the tail of the stream. A
// nil needle skips a run of newline tokens.
func endsWith(tokens []string, needles []*regexp.Regexp) bool {
	n := len(tokens) - 1
	for i := len(needles) - 1; i >= 0; i-- {
		if needles[i] == nil {
			n = findNonNl(tokens, n)
			continue
		}
		if n < 0 || !needles[i].MatchString(tokens[n]) {
			return false
		}
		n--
	}
	return true
}
