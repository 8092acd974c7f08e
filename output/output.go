// Package output decorates finished lint reports for presentation.
// Decoration is cosmetic only; the undecorated bytes decide the exit
// status.
package output

import (
	"io"
	"os"
	"regexp"

	"golang.org/x/term"
)

const (
	ansiBlue   = "\x1b[34m"
	ansiRevRed = "\x1b[7;31m"
	ansiReset  = "\x1b[0m"
)

var (
	annotation = regexp.MustCompile(`\?![^?]+\?!`)
	header     = regexp.MustCompile(`(?m)^# chainlint: .*$`)
)

// Decorate colorizes report headers and inline annotations.
func Decorate(report string) string {
	report = header.ReplaceAllStringFunc(report, func(s string) string {
		return ansiBlue + s + ansiReset
	})
	return annotation.ReplaceAllStringFunc(report, func(s string) string {
		return ansiRevRed + s + ansiReset
	})
}

// IsTerminal reports whether w is backed by a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Decorator resolves a color mode ("auto", "always", "never") against the
// destination writer and returns the transform to apply to each report.
func Decorator(w io.Writer, mode string) func(string) string {
	colorize := false
	switch mode {
	case "always":
		colorize = true
	case "never":
	default:
		colorize = IsTerminal(w)
	}
	if !colorize {
		return func(s string) string { return s }
	}
	return Decorate
}
