package compiler

import "fmt"

// Compile runs the whole pipeline over Rat24F source text.
func Compile(src string) (*Program, error) {
	src, err := Preprocess(src)
	if err != nil {
		return nil, fmt.Errorf("preprocess error: %w", err)
	}

	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}

	p := NewParser(tokens, src)
	if err := p.Translate(nil); err != nil {
		return nil, fmt.Errorf("translate error: %w", err)
	}
	return p.Program(), nil
}
