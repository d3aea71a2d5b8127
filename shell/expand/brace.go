package expand

import (
	"strconv"
	"strings"

	"github.com/lifo-sh/lifo/shell/ast"
	"github.com/lifo-sh/lifo/shell/lexer"
)

// braceExpandWord expands {a,b,c} / {1..5} occurrences within a word's
// raw parts, producing the cross product of every such expansion.
// Brace expansion never looks inside single- or double-quoted parts.
func braceExpandWord(w *ast.Word) []*ast.Word {
	variants := [][]lexer.WordPart{{}}
	for _, part := range w.Parts {
		if part.Kind != lexer.Raw {
			variants = appendPartToAll(variants, part)
			continue
		}
		alts := expandBraceString(part.Text)
		if len(alts) == 1 {
			variants = appendPartToAll(variants, lexer.WordPart{Kind: lexer.Raw, Text: alts[0]})
			continue
		}
		var next [][]lexer.WordPart
		for _, v := range variants {
			for _, alt := range alts {
				nv := append(append([]lexer.WordPart{}, v...), lexer.WordPart{Kind: lexer.Raw, Text: alt})
				next = append(next, nv)
			}
		}
		variants = next
	}

	out := make([]*ast.Word, len(variants))
	for i, v := range variants {
		out[i] = &ast.Word{Parts: v, Pos: w.Pos}
	}
	return out
}

func appendPartToAll(variants [][]lexer.WordPart, part lexer.WordPart) [][]lexer.WordPart {
	for i := range variants {
		variants[i] = append(variants[i], part)
	}
	return variants
}

// expandBraceString expands every brace group in s. A {...} with no
// top-level comma and no a..b range is not a real brace expression
// and is returned literally, braces and all.
func expandBraceString(s string) []string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return []string{s}
	}
	end := matchingBrace(s, start)
	if end < 0 {
		return []string{s}
	}

	prefix := s[:start]
	inner := s[start+1 : end]
	suffix := s[end+1:]

	alts := splitTopLevelComma(inner)
	if len(alts) < 2 {
		if seq, ok := expandRange(inner); ok {
			alts = seq
		} else {
			return []string{s}
		}
	}

	var out []string
	for _, sufExp := range expandBraceString(suffix) {
		for _, alt := range alts {
			out = append(out, prefix+alt+sufExp)
		}
	}
	return out
}

func splitTopLevelComma(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

func expandRange(s string) ([]string, bool) {
	idx := strings.Index(s, "..")
	if idx < 0 {
		return nil, false
	}
	lo, err1 := strconv.Atoi(s[:idx])
	hi, err2 := strconv.Atoi(s[idx+2:])
	if err1 != nil || err2 != nil {
		return nil, false
	}
	var out []string
	if lo <= hi {
		for v := lo; v <= hi; v++ {
			out = append(out, strconv.Itoa(v))
		}
	} else {
		for v := lo; v >= hi; v-- {
			out = append(out, strconv.Itoa(v))
		}
	}
	return out, true
}
