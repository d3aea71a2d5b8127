package expand

import (
	"strings"

	"github.com/lifo-sh/lifo/shell/ast"
	"github.com/lifo-sh/lifo/shell/lexer"
)

// tildeExpandWord expands a leading ~ or ~/... in the word's first raw
// part to home. Tilde expansion only applies at the very start of a
// word, never mid-word or inside quotes.
func tildeExpandWord(w *ast.Word, home string) {
	if len(w.Parts) == 0 || w.Parts[0].Kind != lexer.Raw {
		return
	}
	text := w.Parts[0].Text
	switch {
	case text == "~":
		w.Parts[0].Text = home
	case strings.HasPrefix(text, "~/"):
		w.Parts[0].Text = home + text[1:]
	}
}
