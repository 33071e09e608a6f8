package compiler

import "fmt"

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	EOF TokenKind = iota // sentinel: end of input

	KEYWORD    // integer, boolean, if, while, ...
	IDENTIFIER // variable name
	INTEGER    // decimal integer literal
	OPERATOR   // = == != < <= > >= + - * /
	SEPARATOR  // ( ) { } ; , $$
)

var tokenNames = [...]string{
	EOF:        "EOF",
	KEYWORD:    "keyword",
	IDENTIFIER: "identifier",
	INTEGER:    "integer",
	OPERATOR:   "operator",
	SEPARATOR:  "separator",
}

func (k TokenKind) String() string {
	if int(k) >= 0 && int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind   TokenKind
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Kind, t.Lexeme, t.Line)
}

// is reports whether t has the given kind and lexeme.
func (t Token) is(kind TokenKind, lexeme string) bool {
	return t.Kind == kind && t.Lexeme == lexeme
}
