package compiler

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax               = errors.New("syntax error")
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	ErrUndeclaredIdentifier = errors.New("undeclared identifier")

	// ErrInvalidPatchTarget and ErrUnpatchedPlaceholder indicate a translator
	// bug rather than bad input.
	ErrInvalidPatchTarget   = errors.New("invalid patch target")
	ErrUnpatchedPlaceholder = errors.New("unpatched placeholder")
)

// SyntaxError reports a token that does not fit the grammar at its position.
type SyntaxError struct {
	Pos      int       // index of the offending token in the stream
	Expected TokenKind // kind the grammar wanted
	Want     string    // exact lexeme wanted; empty when any lexeme of Expected fits
	Rule     string    // description used instead of Expected/Want, e.g. "relational operator"
	Got      Token
	Snippet  string // trimmed source line, when the parser has the source
}

func (e *SyntaxError) Error() string {
	want := e.Expected.String()
	switch {
	case e.Rule != "":
		want = e.Rule
	case e.Want != "":
		want = fmt.Sprintf("%s %q", e.Expected, e.Want)
	}
	msg := fmt.Sprintf("line %d: expected %s, got %s (%q)", e.Got.Line, want, e.Got.Kind, e.Got.Lexeme)
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }
