// Package parser implements a recursive-descent parser over the shell
// lexer's token stream, plus the two specializations that turn it into a
// test linter: TestParser, which flags commands missing a trailing &&,
// and ScriptParser, which finds test definitions inside a script.
//
// The parser produces flat token streams rather than a syntax tree; a
// stream can be re-joined into text with findings marked inline by
// synthetic ?!AMP?! and ?!ERR?! tokens.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jiangxin/chainlint/lexer"
)

// Accumulator merges one parsed command into the stream being built.
// The base behavior is plain concatenation; TestParser overrides it to
// inspect the chain.
type Accumulator interface {
	Accumulate(stream, cmd []string) []string
}

// Recognizer post-processes each command ParseCmd returns. The base
// behavior is the identity; ScriptParser overrides it to spot test
// definitions at any nesting depth.
type Recognizer interface {
	Recognize(cmd []string) []string
}

var (
	cmdTerminator = regexp.MustCompile(`^(?:[;&\n|]|&&|\|\|)$`)

	stopCloseBrace = regexp.MustCompile(`^}$`)
	stopCloseParen = regexp.MustCompile(`^\)$`)
	stopThen       = regexp.MustCompile(`^then$`)
	stopIfBodyEnd  = regexp.MustCompile(`^(?:elif|else|fi)$`)
	stopFi         = regexp.MustCompile(`^fi$`)
	stopDo         = regexp.MustCompile(`^do$`)
	stopDone       = regexp.MustCompile(`^done$`)
	stopCaseItem   = regexp.MustCompile(`^(?:;;|esac)$`)
)

// Parser reads commands from a lexer into flat token streams. One parser
// serves one source buffer.
type Parser struct {
	lex  *lexer.Lexer
	buff []string         // pushback, LIFO
	stop []*regexp.Regexp // stop-pattern stack; top halts Parse
	acc  Accumulator
	rec  Recognizer
}

// New returns a plain shell parser over src, useful for examining token
// streams without any linting behavior attached.
func New(src string) *Parser {
	p := &Parser{}
	p.lex = lexer.New(src, p)
	p.acc = p
	p.rec = p
	return p
}

// Accumulate is the base stream merge: append.
func (p *Parser) Accumulate(stream, cmd []string) []string {
	return append(stream, cmd...)
}

// Recognize is the base command post-processing: none.
func (p *Parser) Recognize(cmd []string) []string {
	return cmd
}

func (p *Parser) nextToken() (string, bool) {
	if n := len(p.buff); n > 0 {
		tok := p.buff[n-1]
		p.buff = p.buff[:n-1]
		return tok, true
	}
	return p.lex.Scan()
}

func (p *Parser) untoken(tok string) {
	p.buff = append(p.buff, tok)
}

func (p *Parser) peek() (string, bool) {
	tok, ok := p.nextToken()
	if ok {
		p.untoken(tok)
	}
	return tok, ok
}

func (p *Parser) stopAt(tok string) bool {
	if len(p.stop) == 0 {
		return false
	}
	stop := p.stop[len(p.stop)-1]
	return stop != nil && stop.MatchString(tok)
}

// expect consumes the wanted token. On a mismatch it leaves the offending
// token in place and yields an inline ?!ERR?! annotation instead, so the
// finding survives into whatever stream is being accumulated.
func (p *Parser) expect(want string) []string {
	tok, ok := p.nextToken()
	if ok && tok == want {
		return []string{tok}
	}
	found := "<end-of-input>"
	if ok {
		p.untoken(tok)
		found = tok
	}
	return []string{fmt.Sprintf("?!ERR?! expected '%s' but found '%s'\n", want, found)}
}

func (p *Parser) optionalNewlines() []string {
	var tokens []string
	for {
		tok, ok := p.peek()
		if !ok || tok != "\n" {
			break
		}
		tok, _ = p.nextToken()
		tokens = append(tokens, tok)
	}
	return tokens
}

// Parse reads commands until the stop pattern matches the next token or
// input runs out. The stop token itself is left for the caller, normally
// an expect. A nil stop parses to end of input.
func (p *Parser) Parse(stop *regexp.Regexp) []string {
	p.stop = append(p.stop, stop)
	var tokens []string
	for {
		tok, ok := p.peek()
		if !ok || p.stopAt(tok) {
			break
		}
		cmd := p.ParseCmd()
		if len(cmd) == 0 {
			break
		}
		tokens = p.acc.Accumulate(tokens, cmd)
	}
	p.stop = p.stop[:len(p.stop)-1]
	return tokens
}

// Subparse implements lexer.Resolver for $(...) substitutions: parse the
// embedded commands, then consume the closing ")" (which the stop check
// left in the pushback buffer).
func (p *Parser) Subparse(stop *regexp.Regexp) []string {
	tokens := p.Parse(stop)
	p.nextToken()
	return tokens
}

// ParseCmd reads exactly one command, compound or simple, including its
// trailing terminator. It returns nil at end of input.
func (p *Parser) ParseCmd() []string {
	cmd, ok := p.nextToken()
	if !ok {
		return nil
	}
	if cmd == "\n" {
		return p.rec.Recognize([]string{cmd})
	}

	tokens := []string{cmd}
	switch cmd {
	case "!":
		tokens = append(tokens, p.ParseCmd()...)
		return p.rec.Recognize(tokens)
	case "{":
		tokens = append(tokens, p.parseGroup()...)
	case "(":
		tokens = append(tokens, p.parseSubshell()...)
	case "case":
		tokens = append(tokens, p.parseCase()...)
	case "for":
		tokens = append(tokens, p.parseFor()...)
	case "if":
		tokens = append(tokens, p.parseIf()...)
	case "until", "while":
		tokens = append(tokens, p.parseLoop()...)
	default:
		if tok, ok := p.peek(); ok && tok == "(" {
			if !strings.HasSuffix(cmd, "=") {
				tokens = append(tokens, p.parseFunc()...)
				return p.rec.Recognize(tokens)
			}
			arr := p.parseBashArrayAssignment()
			tokens[len(tokens)-1] += strings.Join(arr, " ")
		}
	}

	for {
		tok, ok := p.nextToken()
		if !ok {
			break
		}
		if p.stopAt(tok) {
			p.untoken(tok)
			break
		}
		tokens = append(tokens, tok)
		if cmdTerminator.MatchString(tok) {
			break
		}
	}
	return p.rec.Recognize(tokens)
}

func (p *Parser) parseGroup() []string {
	tokens := p.Parse(stopCloseBrace)
	return append(tokens, p.expect("}")...)
}

func (p *Parser) parseSubshell() []string {
	tokens := p.Parse(stopCloseParen)
	return append(tokens, p.expect(")")...)
}

func (p *Parser) parseCasePattern() []string {
	var tokens []string
	for {
		tok, ok := p.nextToken()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
		if tok == ")" {
			break
		}
	}
	return tokens
}

func (p *Parser) parseCase() []string {
	var tokens []string
	if tok, ok := p.nextToken(); ok { // subject
		tokens = append(tokens, tok)
	}
	tokens = append(tokens, p.optionalNewlines()...)
	tokens = append(tokens, p.expect("in")...)
	tokens = append(tokens, p.optionalNewlines()...)
	for {
		tok, ok := p.peek()
		if !ok || tok == "esac" {
			break
		}
		tokens = append(tokens, p.parseCasePattern()...)
		tokens = append(tokens, p.optionalNewlines()...)
		tokens = append(tokens, p.Parse(stopCaseItem)...)
		tok, ok = p.peek()
		if !ok || tok == "esac" {
			break
		}
		tokens = append(tokens, p.expect(";;")...)
		tokens = append(tokens, p.optionalNewlines()...)
	}
	return append(tokens, p.expect("esac")...)
}

func (p *Parser) parseFor() []string {
	var tokens []string
	if tok, ok := p.nextToken(); ok { // loop variable
		tokens = append(tokens, tok)
	}
	tokens = append(tokens, p.optionalNewlines()...)
	if tok, ok := p.peek(); ok && tok == "in" {
		tokens = append(tokens, p.expect("in")...)
		tokens = append(tokens, p.optionalNewlines()...)
	}
	tokens = append(tokens, p.Parse(stopDo)...) // items
	tokens = append(tokens, p.expect("do")...)
	tokens = append(tokens, p.optionalNewlines()...)
	tokens = append(tokens, p.Parse(stopDone)...)
	return append(tokens, p.expect("done")...)
}

func (p *Parser) parseIf() []string {
	var tokens []string
	for {
		tokens = append(tokens, p.Parse(stopThen)...) // condition
		tokens = append(tokens, p.expect("then")...)
		tokens = append(tokens, p.optionalNewlines()...)
		tokens = append(tokens, p.Parse(stopIfBodyEnd)...)
		tok, ok := p.peek()
		if !ok || tok != "elif" {
			break
		}
		tokens = append(tokens, p.expect("elif")...)
	}
	if tok, ok := p.peek(); ok && tok == "else" {
		tokens = append(tokens, p.expect("else")...)
		tokens = append(tokens, p.optionalNewlines()...)
		tokens = append(tokens, p.Parse(stopFi)...)
	}
	return append(tokens, p.expect("fi")...)
}

func (p *Parser) parseLoop() []string {
	tokens := p.Parse(stopDo) // condition
	tokens = append(tokens, p.expect("do")...)
	tokens = append(tokens, p.optionalNewlines()...)
	tokens = append(tokens, p.Parse(stopDone)...)
	return append(tokens, p.expect("done")...)
}

func (p *Parser) parseFunc() []string {
	tokens := p.expect("(")
	tokens = append(tokens, p.expect(")")...)
	tokens = append(tokens, p.optionalNewlines()...)
	return append(tokens, p.ParseCmd()...)
}

// parseBashArrayAssignment consumes name=(...) elements verbatim; the
// caller folds them into the assignment token.
func (p *Parser) parseBashArrayAssignment() []string {
	tokens := p.expect("(")
	for {
		tok, ok := p.nextToken()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
		if tok == ")" {
			break
		}
	}
	return tokens
}
