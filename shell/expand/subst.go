package expand

import (
	"fmt"
	"strconv"
	"strings"
)

// expandSubstitutions scans text for every $ form the lexer could have
// captured verbatim — $NAME, ${...}, $(...), $((...)), $#, $?, $@, $N
// — and replaces each with its expanded value. It is applied
// identically to raw and double-quoted part text, since the lexer
// captures these forms the same way in both contexts.
func expandSubstitutions(text string, ctx *Context) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '$' {
			out.WriteByte(text[i])
			i++
			continue
		}
		consumed, val, err := expandOneDollar(text[i:], ctx)
		if err != nil {
			return "", err
		}
		if consumed == 0 {
			out.WriteByte('$')
			i++
			continue
		}
		out.WriteString(val)
		i += consumed
	}
	return out.String(), nil
}

func expandOneDollar(s string, ctx *Context) (consumed int, value string, err error) {
	if len(s) < 2 {
		return 0, "", nil
	}
	switch c := s[1]; {
	case c == '(' && len(s) > 2 && s[2] == '(':
		return expandArithDollar(s, ctx)
	case c == '(':
		return expandCommandDollar(s, ctx)
	case c == '{':
		end := matchingBrace(s[1:], 0)
		if end < 0 {
			return 0, "", nil
		}
		inner := s[2 : end+1]
		val, err := expandBraceParam(inner, ctx)
		return end + 2, val, err
	case c == '#':
		return 2, strconv.Itoa(len(ctx.Env.Positional())), nil
	case c == '?':
		return 2, strconv.Itoa(ctx.Env.ExitStatus()), nil
	case c == '@' || c == '*':
		return 2, strings.Join(ctx.Env.Positional(), " "), nil
	case c == '$':
		return 2, "", nil
	case c >= '0' && c <= '9':
		j := 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		n, _ := strconv.Atoi(s[1:j])
		pos := ctx.Env.Positional()
		if n >= 1 && n <= len(pos) {
			return j, pos[n-1], nil
		}
		return j, "", nil
	case isIdentStartByte(c):
		j := 1
		for j < len(s) && isIdentPartByte(s[j]) {
			j++
		}
		name := s[1:j]
		val, _ := ctx.Env.Get(name)
		return j, val, nil
	default:
		return 0, "", nil
	}
}

// expandCommandDollar expands a $( ... ) command substitution by
// running the captured script and trimming its trailing newline.
func expandCommandDollar(s string, ctx *Context) (int, string, error) {
	end := matchingParen(s[1:], 0)
	if end < 0 {
		return 0, "", fmt.Errorf("expand: unterminated command substitution")
	}
	script := s[2 : end+1]
	stdout, _, err := ctx.Runner.RunCapture(script)
	if err != nil {
		return 0, "", err
	}
	return end + 2, strings.TrimRight(stdout, "\n"), nil
}

// expandArithDollar expands a $(( ... )) arithmetic expression.
func expandArithDollar(s string, ctx *Context) (int, string, error) {
	// s[0:3] == "$((" ; match the inner '(' (at s[2]) by depth
	// tracking, then require the outer ')' to follow immediately.
	end := matchingParen(s[2:], 0)
	if end < 0 {
		return 0, "", fmt.Errorf("expand: unterminated arithmetic expression")
	}
	innerClose := end + 2 // s-relative index of the ')' matching s[2]
	if innerClose+1 >= len(s) || s[innerClose+1] != ')' {
		return 0, "", fmt.Errorf("expand: malformed arithmetic expression")
	}
	expr := s[3:innerClose]
	v, err := evalArithmetic(expr, func(name string) string {
		val, _ := ctx.Env.Get(name)
		return val
	})
	if err != nil {
		return 0, "", err
	}
	return innerClose + 2, strconv.FormatInt(v, 10), nil
}

// matchingBrace finds the index (within s) of the '}' that matches an
// opening '{' at s[start].
func matchingBrace(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchingParen finds the index (within s) of the ')' that matches an
// opening '(' at s[start].
func matchingParen(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPartByte(b byte) bool {
	return isIdentStartByte(b) || (b >= '0' && b <= '9')
}

// expandBraceParam implements ${NAME}, ${NAME:-default},
// ${NAME:=default}, ${NAME:?err}, and the supplemented ${NAME:+alt}.
func expandBraceParam(inner string, ctx *Context) (string, error) {
	name := inner
	op := ""
	arg := ""
	for _, sep := range []string{":-", ":=", ":?", ":+"} {
		if idx := strings.Index(inner, sep); idx >= 0 {
			name = inner[:idx]
			op = sep
			arg = inner[idx+2:]
			break
		}
	}

	val, isSet := ctx.Env.Get(name)
	switch op {
	case ":-":
		if isSet && val != "" {
			return val, nil
		}
		return expandSubstitutions(arg, ctx)
	case ":=":
		if isSet && val != "" {
			return val, nil
		}
		expanded, err := expandSubstitutions(arg, ctx)
		if err != nil {
			return "", err
		}
		ctx.Env.Set(name, expanded)
		return expanded, nil
	case ":?":
		if isSet && val != "" {
			return val, nil
		}
		msg := arg
		if msg == "" {
			msg = "parameter not set"
		}
		return "", fmt.Errorf("%s: %s", name, msg)
	case ":+":
		if isSet && val != "" {
			return expandSubstitutions(arg, ctx)
		}
		return "", nil
	default:
		return val, nil
	}
}
