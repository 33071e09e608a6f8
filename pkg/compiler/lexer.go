package compiler

import (
	"fmt"
	"unicode"
)

// keywords is the set of reserved words. "real" and "function" are reserved
// by the language but the translator has no productions for them.
var keywords = map[string]bool{
	"integer":  true,
	"boolean":  true,
	"real":     true,
	"function": true,
	"if":       true,
	"else":     true,
	"endif":    true,
	"while":    true,
	"return":   true,
	"put":      true,
	"get":      true,
	"true":     true,
	"false":    true,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// scanWord collects a full identifier or keyword token.
// The first letter must still be at l.peek().
func (l *Lexer) scanWord() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	kind := IDENTIFIER
	if keywords[lexeme] {
		kind = KEYWORD
	}
	return Token{Kind: kind, Lexeme: lexeme, Line: line}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// scanInt collects a decimal integer literal. Only ASCII digits start or
// continue a literal.
func (l *Lexer) scanInt() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	return Token{Kind: INTEGER, Lexeme: string(l.src[start:l.pos]), Line: line}
}

// nextToken skips whitespace and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Lexeme: "", Line: l.line}, nil
	}

	ch := l.peek()
	line := l.line

	if unicode.IsLetter(ch) {
		return l.scanWord(), nil
	}
	if isDigit(ch) {
		return l.scanInt(), nil
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '(', ')', '{', '}', ';', ',':
		return Token{SEPARATOR, string(ch), line}, nil
	case '$':
		if l.peek() == '$' {
			l.advance()
			return Token{SEPARATOR, "$$", line}, nil
		}
		return Token{}, fmt.Errorf("unexpected character %q on line %d (did you mean \"$$\"?)", ch, line)
	case '+', '-', '*', '/':
		return Token{OPERATOR, string(ch), line}, nil
	case '=', '<', '>':
		if l.peek() == '=' {
			l.advance()
			return Token{OPERATOR, string(ch) + "=", line}, nil
		}
		return Token{OPERATOR, string(ch), line}, nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return Token{OPERATOR, "!=", line}, nil
		}
		return Token{}, fmt.Errorf("unexpected character %q on line %d", ch, line)
	default:
		return Token{}, fmt.Errorf("unexpected character %q on line %d", ch, line)
	}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a non-nil error on the first illegal character.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}
