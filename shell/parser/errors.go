package parser

import (
	"fmt"
	"strings"

	"github.com/lifo-sh/lifo/shell/lexer"
)

// ErrorType categorizes a ParseError the way a diagnostic consumer
// (or a test) would want to branch on, without string-matching the
// message.
type ErrorType int

const (
	ErrorUnexpected ErrorType = iota
	ErrorMissing
	ErrorInvalid
)

func (e ErrorType) String() string {
	switch e {
	case ErrorUnexpected:
		return "unexpected token"
	case ErrorMissing:
		return "missing"
	case ErrorInvalid:
		return "invalid"
	default:
		return "syntax error"
	}
}

// ParseError carries the offending token's position alongside the
// message, and renders a caret-pointer code snippet the way a
// compiler diagnostic would.
type ParseError struct {
	Type    ErrorType
	Message string
	Token   lexer.Token
	Input   string
}

func (e ParseError) Error() string {
	snippet := e.createCodeSnippet()
	if snippet == "" {
		return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s\n%s", e.Type.String(), e.Message, snippet)
}

func (e ParseError) createCodeSnippet() string {
	if e.Input == "" || e.Token.Pos.Line == 0 {
		return ""
	}
	lines := strings.Split(e.Input, "\n")
	if e.Token.Pos.Line > len(lines) {
		return ""
	}
	line := lines[e.Token.Pos.Line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "  --> %d:%d\n", e.Token.Pos.Line, e.Token.Pos.Column)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", e.Token.Pos.Line, line)
	b.WriteString("   | ")
	if e.Token.Pos.Column > 0 && e.Token.Pos.Column <= len(line)+1 {
		b.WriteString(strings.Repeat(" ", e.Token.Pos.Column-1) + "^")
	}
	return b.String()
}

func (p *Parser) newUnexpectedTokenError(expected string, got lexer.Token) error {
	return ParseError{
		Type:    ErrorUnexpected,
		Message: fmt.Sprintf("expected %s, got %s", expected, got.Kind),
		Token:   got,
		Input:   p.input,
	}
}

func (p *Parser) newMissingTokenError(expected string) error {
	return ParseError{
		Type:    ErrorMissing,
		Message: fmt.Sprintf("expected %s", expected),
		Token:   p.current(),
		Input:   p.input,
	}
}

func (p *Parser) newInvalidError(message string) error {
	return ParseError{
		Type:    ErrorInvalid,
		Message: message,
		Token:   p.current(),
		Input:   p.input,
	}
}
