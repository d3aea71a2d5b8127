// Package parser turns a shell lexer's token stream into an ast.Script
// by recursive descent. Precedence, loose to tight: `;`/newline
// (separator) -> `&&`/`||` (left-associative) -> `|` (pipeline) ->
// command.
package parser

import (
	"strings"

	"github.com/lifo-sh/lifo/shell/ast"
	"github.com/lifo-sh/lifo/shell/lexer"
)

// Parser consumes a pre-lexed token slice with a single position
// cursor and one token of lookahead.
type Parser struct {
	tokens []lexer.Token
	pos    int
	input  string
}

// New builds a Parser over input, lexing it fully up front.
func New(input string) *Parser {
	return &Parser{tokens: lexer.New(input).TokenizeToSlice(), input: input}
}

// Parse lexes and parses input in one call.
func Parse(input string) (*ast.Script, error) {
	return New(input).ParseScript()
}

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) at(kind lexer.Kind) bool {
	return p.current().Kind == kind
}

func (p *Parser) skipNewlines() {
	for p.at(lexer.Newline) {
		p.advance()
	}
}

// skipSeparators consumes a run of Newline/Semi tokens, reporting
// whether it consumed at least one.
func (p *Parser) skipSeparators() bool {
	skipped := false
	for p.at(lexer.Newline) || p.at(lexer.Semi) {
		p.advance()
		skipped = true
	}
	return skipped
}

// ParseScript parses the full token stream as a top-level script: a
// run of separator-terminated Lists.
func (p *Parser) ParseScript() (*ast.Script, error) {
	script := &ast.Script{}
	p.skipSeparators()
	for !p.at(lexer.EOF) {
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		script.Lists = append(script.Lists, list)
		// A trailing '&' both backgrounds the list and terminates it,
		// so `sleep 10 & jobs` is two lists with no other separator.
		if !p.skipSeparators() && !p.at(lexer.EOF) && !list.Background {
			return nil, p.newUnexpectedTokenError("';', newline, or end of input", p.current())
		}
	}
	return script, nil
}

// parseList parses a chain of pipelines joined by && / ||, with an
// optional trailing & marking it to run in the background.
func (p *Parser) parseList() (*ast.List, error) {
	list := &ast.List{}
	pl, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	list.Pipelines = append(list.Pipelines, pl)

	for {
		switch p.current().Kind {
		case lexer.And:
			p.advance()
			p.skipNewlines()
			list.Connectors = append(list.Connectors, ast.And)
		case lexer.Or:
			p.advance()
			p.skipNewlines()
			list.Connectors = append(list.Connectors, ast.Or)
		default:
			if p.at(lexer.Amp) {
				p.advance()
				list.Background = true
			}
			return list, nil
		}
		next, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		list.Pipelines = append(list.Pipelines, next)
	}
}

// parseCompoundList parses a subshell body: one or more lists
// separated by ';'/newline, folded into a single List whose None
// connectors mark unconditional sequencing (execution runs a
// None-joined pipeline regardless of the previous status).
func (p *Parser) parseCompoundList() (*ast.List, error) {
	p.skipNewlines()
	list, err := p.parseList()
	if err != nil {
		return nil, err
	}
	for {
		if !p.skipSeparators() {
			return list, nil
		}
		if p.at(lexer.RParen) || p.at(lexer.EOF) {
			return list, nil
		}
		next, err := p.parseList()
		if err != nil {
			return nil, err
		}
		list.Connectors = append(list.Connectors, ast.None)
		list.Pipelines = append(list.Pipelines, next.Pipelines...)
		list.Connectors = append(list.Connectors, next.Connectors...)
		if next.Background {
			list.Background = true
		}
	}
}

// parsePipeline parses one or more commands joined by |, with an
// optional leading ! negating the pipeline's final exit status.
func (p *Parser) parsePipeline() (*ast.Pipeline, error) {
	pl := &ast.Pipeline{}
	if p.at(lexer.Word) && isBangWord(p.current()) {
		p.advance()
		pl.Negated = true
	}

	cmd, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	pl.Commands = append(pl.Commands, cmd)

	for p.at(lexer.Pipe) {
		p.advance()
		p.skipNewlines()
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		pl.Commands = append(pl.Commands, cmd)
	}
	return pl, nil
}

func isBangWord(tok lexer.Token) bool {
	return len(tok.Parts) == 1 && tok.Parts[0].Kind == lexer.Raw && tok.Parts[0].Text == "!"
}

// parseCommand parses one pipeline stage: a parenthesized subshell or
// a simple command.
func (p *Parser) parseCommand() (ast.Command, error) {
	if p.at(lexer.LParen) {
		pos := p.advance().Pos
		list, err := p.parseCompoundList()
		if err != nil {
			return nil, err
		}
		if !p.at(lexer.RParen) {
			return nil, p.newMissingTokenError("')'")
		}
		p.advance()
		return &ast.Subshell{List: list, Pos: pos}, nil
	}
	return p.parseSimpleCommand()
}

// parseSimpleCommand collects leading NAME=VALUE assignments, then
// words and redirections in any interleaving, since redirections may
// appear anywhere within a simple command.
func (p *Parser) parseSimpleCommand() (*ast.SimpleCommand, error) {
	cmd := &ast.SimpleCommand{Pos: p.current().Pos}
	sawWord := false

	for {
		switch p.current().Kind {
		case lexer.Word:
			tok := p.current()
			if !sawWord {
				if name, value, ok := splitAssignment(tok); ok {
					p.advance()
					cmd.Assignments = append(cmd.Assignments, ast.Assignment{Name: name, Value: value})
					continue
				}
			}
			sawWord = true
			p.advance()
			cmd.Words = append(cmd.Words, &ast.Word{Parts: tok.Parts, Pos: tok.Pos})
		case lexer.RedirectOut, lexer.RedirectAppend, lexer.RedirectIn,
			lexer.RedirectErr, lexer.RedirectErrAppend, lexer.RedirectAll:
			redir, err := p.parseRedirection()
			if err != nil {
				return nil, err
			}
			cmd.Redirections = append(cmd.Redirections, redir)
		default:
			if len(cmd.Words) == 0 && len(cmd.Assignments) == 0 && len(cmd.Redirections) == 0 {
				return nil, p.newUnexpectedTokenError("command", p.current())
			}
			return cmd, nil
		}
	}
}

func (p *Parser) parseRedirection() (ast.Redirection, error) {
	opTok := p.advance()
	var kind ast.RedirectKind
	switch opTok.Kind {
	case lexer.RedirectOut:
		kind = ast.RedirectOut
	case lexer.RedirectAppend:
		kind = ast.RedirectAppend
	case lexer.RedirectIn:
		kind = ast.RedirectIn
	case lexer.RedirectErr:
		kind = ast.RedirectErr
	case lexer.RedirectErrAppend:
		kind = ast.RedirectErrAppend
	case lexer.RedirectAll:
		kind = ast.RedirectAll
	}
	if !p.at(lexer.Word) {
		return ast.Redirection{}, p.newMissingTokenError("redirection target")
	}
	tok := p.advance()
	return ast.Redirection{Kind: kind, Target: &ast.Word{Parts: tok.Parts, Pos: tok.Pos}}, nil
}

// splitAssignment reports whether tok's first raw part looks like
// NAME=, in which case the rest of the word (that part's remainder
// plus any following quoted parts) becomes the assignment's value.
func splitAssignment(tok lexer.Token) (name string, value *ast.Word, ok bool) {
	if len(tok.Parts) == 0 || tok.Parts[0].Kind != lexer.Raw {
		return "", nil, false
	}
	first := tok.Parts[0].Text
	eq := strings.IndexByte(first, '=')
	if eq <= 0 || !isValidName(first[:eq]) {
		return "", nil, false
	}
	name = first[:eq]

	var parts []lexer.WordPart
	if rest := first[eq+1:]; rest != "" || len(tok.Parts) == 1 {
		parts = append(parts, lexer.WordPart{Kind: lexer.Raw, Text: rest})
	}
	parts = append(parts, tok.Parts[1:]...)
	return name, &ast.Word{Parts: parts, Pos: tok.Pos}, true
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
