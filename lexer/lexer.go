// Package lexer splits shell source into the flat string tokens the parser
// consumes. Tokens carry their surface syntax: quoted regions keep their
// quote characters, fused operators arrive as single tokens, and here-doc
// bodies are swallowed without ever becoming tokens.
package lexer

import (
	"regexp"
	"strings"
)

// Resolver parses the body of a $(...) command substitution on behalf of
// the lexer. Subparse must read commands until the stop pattern matches
// the next token and then consume that closing token as well.
type Resolver interface {
	Subparse(stop *regexp.Regexp) []string
}

var closeParen = regexp.MustCompile(`^\)$`)

// fusable two-character operators, checked when a token boundary starts
// with one of ; & | < >
var operators = map[string]bool{
	"&&": true,
	"||": true,
	">>": true,
	";;": true,
	"<&": true,
	">&": true,
	"<>": true,
	">|": true,
}

var tagQuotes = strings.NewReplacer("'", "", `"`, "", `\`, "")

type heredoc struct {
	tag      string
	indented bool
}

// Lexer is a cursor over one shell source buffer. It is not reused across
// sources.
type Lexer struct {
	src      []rune
	pos      int
	tags     []heredoc // pending here-doc terminators, FIFO
	resolver Resolver
}

// New returns a lexer over src. The resolver is called back for each
// $(...) substitution; it is typically the parser that owns this lexer.
func New(src string, r Resolver) *Lexer {
	return &Lexer{src: []rune(src), resolver: r}
}

// Scan returns the next token. ok is false once input is exhausted.
func (l *Lexer) Scan() (token string, ok bool) {
restart:
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return "", false
	}
	if l.src[l.pos] == '#' {
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		if l.pos < len(l.src) {
			l.pos++
		}
		l.swallowHeredocs()
		return "\n", true
	}

	var tok []rune
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t':
			l.pos++
			return string(tok), true
		case c == '\n':
			if len(tok) > 0 {
				return string(tok), true
			}
			l.pos++
			l.swallowHeredocs()
			return "\n", true
		case c == ';' || c == '&' || c == '|' || c == '<' || c == '>':
			if len(tok) > 0 {
				return string(tok), true
			}
			return l.scanOperator(c), true
		case c == '(' || c == ')' || c == '{' || c == '}':
			if len(tok) > 0 {
				return string(tok), true
			}
			l.pos++
			return string(c), true
		case c == '\'':
			tok = append(tok, l.scanSingleQuote()...)
		case c == '"':
			tok = append(tok, l.scanDoubleQuote()...)
		case c == '$':
			l.pos++
			tok = append(tok, []rune(l.scanDollar())...)
		case c == '\\':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
				// line splice; with nothing accumulated the scan
				// starts over, skipping whitespace anew
				l.pos += 2
				if len(tok) == 0 {
					goto restart
				}
			} else if l.pos+1 < len(l.src) {
				tok = append(tok, '\\', l.src[l.pos+1])
				l.pos += 2
			} else {
				tok = append(tok, '\\')
				l.pos++
			}
		default:
			tok = append(tok, c)
			l.pos++
		}
	}
	if len(tok) > 0 {
		return string(tok), true
	}
	return "", false
}

// scanOperator fuses two-character operators and dispatches here-doc
// introducers. Called with the cursor on c and no token accumulated.
func (l *Lexer) scanOperator(c rune) string {
	l.pos++
	if l.pos < len(l.src) {
		two := string(c) + string(l.src[l.pos])
		if operators[two] {
			l.pos++
			return two
		}
		if two == "<<" {
			l.pos++
			return l.scanHeredocTag()
		}
	}
	return string(c)
}

// scanHeredocTag records a pending here-doc terminator and returns the
// <<TAG operator token. The body is consumed later, when the line ends.
func (l *Lexer) scanHeredocTag() string {
	indented := false
	if l.pos < len(l.src) && l.src[l.pos] == '-' {
		indented = true
		l.pos++
	}
	tag, ok := l.Scan()
	if !ok || tag == "\n" {
		tag = ""
	}
	tag = tagQuotes.Replace(tag)
	l.tags = append(l.tags, heredoc{tag: tag, indented: indented})
	if indented {
		return "<<-" + tag
	}
	return "<<" + tag
}

// swallowHeredocs consumes the body of every pending here-doc, oldest
// first. Bodies never reach the parser. A missing terminator consumes the
// rest of the input.
func (l *Lexer) swallowHeredocs() {
	for _, h := range l.tags {
		for l.pos < len(l.src) {
			eol := l.pos
			for eol < len(l.src) && l.src[eol] != '\n' {
				eol++
			}
			line := string(l.src[l.pos:eol])
			if eol < len(l.src) {
				eol++
			}
			l.pos = eol
			if h.indented {
				line = strings.TrimLeft(line, " \t")
			}
			if line == h.tag {
				break
			}
		}
	}
	l.tags = l.tags[:0]
}

func (l *Lexer) scanSingleQuote() []rune {
	s := []rune{'\''}
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		s = append(s, c)
		if c == '\'' {
			break
		}
	}
	return s
}

func (l *Lexer) scanDoubleQuote() []rune {
	s := []rune{'"'}
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return append(s, '"')
		case '$':
			l.pos++
			s = append(s, '$')
			s = append(s, []rune(l.scanDollar())...)
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return append(s, '\\')
			}
			n := l.src[l.pos]
			l.pos++
			switch n {
			case '$', '`', '"', '\\':
				s = append(s, '\\', n)
			case '\n':
				// line splice
			default:
				s = append(s, n)
			}
		default:
			s = append(s, c)
			l.pos++
		}
	}
	return s
}

// scanDollar handles what follows a consumed '$'. The caller decides
// whether the '$' itself is kept (double-quoted strings keep it, bare
// tokens do not).
func (l *Lexer) scanDollar() string {
	if l.pos >= len(l.src) {
		return ""
	}
	c := l.src[l.pos]
	switch {
	case c == '(' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '(':
		l.pos++
		return l.scanBalanced('(', ')')
	case c == '(':
		l.pos++
		tokens := l.resolver.Subparse(closeParen)
		return "(" + strings.Join(tokens, " ") + ")"
	case c == '{':
		l.pos++
		return l.scanBalanced('{', '}')
	case isWordChar(c):
		start := l.pos
		for l.pos < len(l.src) && isWordChar(l.src[l.pos]) {
			l.pos++
		}
		return string(l.src[start:l.pos])
	case strings.ContainsRune("@*#?$!-", c):
		l.pos++
		return string(c)
	}
	return ""
}

// scanBalanced consumes a depth-balanced region verbatim. The opening
// delimiter has already been consumed; the result includes both ends.
func (l *Lexer) scanBalanced(open, close rune) string {
	s := []rune{open}
	depth := 1
	for l.pos < len(l.src) && depth > 0 {
		c := l.src[l.pos]
		l.pos++
		switch c {
		case open:
			depth++
		case close:
			depth--
		}
		s = append(s, c)
	}
	return string(s)
}

func isWordChar(c rune) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
