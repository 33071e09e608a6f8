package compiler

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parser is a recursive-descent translator. It consumes the flat token slice
// produced by the Lexer and emits stack-machine code while it parses, with
// no intermediate AST.
//
// Grammar:
//
//	program     = "$$" declaration* statement+ "$$" EOF
//	declaration = ("integer" | "boolean") IDENTIFIER ("," IDENTIFIER)* ";"
//	statement   = compound | assign | if | return | put | get | while
//	compound    = "{" statement+ "}"
//	assign      = IDENTIFIER "=" expression ";"
//	if          = "if" "(" condition ")" statement ("else" statement)? "endif"
//	return      = "return" expression? ";"
//	put         = "put" "(" expression ")" ";"
//	get         = "get" "(" IDENTIFIER ("," IDENTIFIER)* ")" ";"
//	while       = "while" "(" condition ")" statement
//	condition   = expression relop expression
//	relop       = "==" | "!=" | "<" | "<=" | ">" | ">="
//	expression  = term (("+" | "-") term)*
//	term        = factor (("*" | "/") factor)*
//	factor      = "true" | "false" | INTEGER | IDENTIFIER | "(" expression ")"
//
// A Parser translates exactly one token stream; it owns its SymbolTable and
// CodeGen for that translation.
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string

	syms *SymbolTable
	code *CodeGen
}

// NewParser returns a Parser over tokens. rawSource is only used to quote the
// offending line in error messages and may be empty.
func NewParser(tokens []Token, rawSource string) *Parser {
	p := &Parser{
		tokens: tokens,
		syms:   NewSymbolTable(),
		code:   NewCodeGen(),
	}
	if rawSource != "" {
		p.sourceLines = strings.Split(rawSource, "\n")
	}
	return p
}

// Symbols returns the parser's symbol table.
func (p *Parser) Symbols() *SymbolTable { return p.syms }

// Code returns the parser's instruction buffer.
func (p *Parser) Code() *CodeGen { return p.code }

// Program returns a snapshot of the generated code and declared symbols.
func (p *Parser) Program() *Program {
	return &Program{
		Instructions: p.code.Instructions(),
		Symbols:      p.syms.Entries(),
	}
}

// Translate parses the whole token stream, generating code as it goes. On
// success the instruction listing followed by the symbol table listing is
// written to sink, if sink is non-nil. Translation stops at the first error
// and nothing is written.
func (p *Parser) Translate(sink io.Writer) error {
	if err := p.parseProgram(); err != nil {
		return err
	}
	if err := p.code.Finalize(); err != nil {
		return err
	}
	if sink == nil {
		return nil
	}
	if err := p.code.Dump(sink); err != nil {
		return err
	}
	return p.syms.Dump(sink)
}

// snippet returns the trimmed source line tok appears on.
func (p *Parser) snippet(tok Token) string {
	lineIdx := tok.Line - 1 // Lines are 1-based
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		return strings.TrimSpace(p.sourceLines[lineIdx])
	}
	return ""
}

// fmtError attaches the line of tok to err, keeping err unwrappable.
func (p *Parser) fmtError(tok Token, err error) error {
	if s := p.snippet(tok); s != "" {
		return fmt.Errorf("line %d: %w\n  |> %s", tok.Line, err, s)
	}
	return fmt.Errorf("line %d: %w", tok.Line, err)
}

func (p *Parser) syntaxError(expected TokenKind, want, rule string) error {
	tok := p.peek()
	return &SyntaxError{
		Pos:      p.pos,
		Expected: expected,
		Want:     want,
		Rule:     rule,
		Got:      tok,
		Snippet:  p.snippet(tok),
	}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		line := 1
		if n := len(p.tokens); n > 0 {
			line = p.tokens[n-1].Line
		}
		return Token{Kind: EOF, Line: line}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it is of kind, otherwise returns an
// error and leaves the position unchanged.
func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.peek().Kind != kind {
		return p.peek(), p.syntaxError(kind, "", "")
	}
	return p.advance(), nil
}

// expectLexeme is expect for a token whose text is fixed by the grammar.
func (p *Parser) expectLexeme(kind TokenKind, lexeme string) (Token, error) {
	if !p.peek().is(kind, lexeme) {
		return p.peek(), p.syntaxError(kind, lexeme, "")
	}
	return p.advance(), nil
}

func (p *Parser) parseProgram() error {
	if _, err := p.expectLexeme(SEPARATOR, "$$"); err != nil {
		return err
	}
	for p.peek().Kind == KEYWORD {
		if _, ok := varTypes[p.peek().Lexeme]; !ok {
			break
		}
		if err := p.parseDeclaration(); err != nil {
			return err
		}
	}
	if err := p.parseStatementList(); err != nil {
		return err
	}
	if _, err := p.expectLexeme(SEPARATOR, "$$"); err != nil {
		return err
	}
	if p.peek().Kind != EOF {
		return p.syntaxError(EOF, "", "")
	}
	return nil
}

func (p *Parser) parseDeclaration() error {
	typ := varTypes[p.advance().Lexeme]
	for {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return err
		}
		if _, err := p.syms.Declare(tok.Lexeme, typ); err != nil {
			return p.fmtError(tok, err)
		}

		switch next := p.peek(); {
		case next.is(SEPARATOR, ";"):
			p.advance()
			return nil
		case next.is(SEPARATOR, ","):
			p.advance()
		default:
			return p.syntaxError(SEPARATOR, "", `"," or ";"`)
		}
	}
}

// startsStatement reports whether tok can begin a statement.
func startsStatement(tok Token) bool {
	switch tok.Kind {
	case IDENTIFIER:
		return true
	case SEPARATOR:
		return tok.Lexeme == "{"
	case KEYWORD:
		switch tok.Lexeme {
		case "if", "return", "put", "get", "while":
			return true
		}
	}
	return false
}

func (p *Parser) parseStatementList() error {
	if err := p.parseStatement(); err != nil {
		return err
	}
	for startsStatement(p.peek()) {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseStatement() error {
	tok := p.peek()
	switch {
	case tok.Kind == IDENTIFIER:
		return p.parseAssign()
	case tok.is(SEPARATOR, "{"):
		return p.parseCompound()
	case tok.is(KEYWORD, "if"):
		return p.parseIf()
	case tok.is(KEYWORD, "return"):
		return p.parseReturn()
	case tok.is(KEYWORD, "put"):
		return p.parsePut()
	case tok.is(KEYWORD, "get"):
		return p.parseGet()
	case tok.is(KEYWORD, "while"):
		return p.parseWhile()
	}
	return p.syntaxError(KEYWORD, "", "statement")
}

func (p *Parser) parseCompound() error {
	p.advance() // {
	if err := p.parseStatementList(); err != nil {
		return err
	}
	_, err := p.expectLexeme(SEPARATOR, "}")
	return err
}

func (p *Parser) parseAssign() error {
	tok := p.advance()
	sym, err := p.syms.Lookup(tok.Lexeme)
	if err != nil {
		return p.fmtError(tok, err)
	}
	if _, err := p.expectLexeme(OPERATOR, "="); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.code.EmitOperand(OpPOPM, sym.Address)
	_, err = p.expectLexeme(SEPARATOR, ";")
	return err
}

// parseParenCondition parses "(" condition ")".
func (p *Parser) parseParenCondition() error {
	if _, err := p.expectLexeme(SEPARATOR, "("); err != nil {
		return err
	}
	if err := p.parseCondition(); err != nil {
		return err
	}
	_, err := p.expectLexeme(SEPARATOR, ")")
	return err
}

// parseIf emits:
//
//	<condition>
//	JUMPZ else      ; or JUMPZ end without an else arm
//	<then>
//	LABEL
//	JUMP end        ; only with an else arm
//	else: <else>
//	end:
func (p *Parser) parseIf() error {
	p.advance() // if
	if err := p.parseParenCondition(); err != nil {
		return err
	}

	jumpElse := p.code.EmitPlaceholder(OpJUMPZ)
	if err := p.parseStatement(); err != nil {
		return err
	}
	p.code.Emit(OpLABEL)

	if p.peek().is(KEYWORD, "else") {
		jumpEnd := p.code.EmitPlaceholder(OpJUMP)
		if err := p.code.Patch(jumpElse, p.code.Next()); err != nil {
			return err
		}
		p.advance() // else
		if err := p.parseStatement(); err != nil {
			return err
		}
		if err := p.code.Patch(jumpEnd, p.code.Next()); err != nil {
			return err
		}
	} else if err := p.code.Patch(jumpElse, p.code.Next()); err != nil {
		return err
	}

	_, err := p.expectLexeme(KEYWORD, "endif")
	return err
}

// parseWhile emits:
//
//	start: <condition>
//	LABEL
//	JUMPZ end
//	<body>
//	JUMP start
//	end:
func (p *Parser) parseWhile() error {
	start := p.code.Next()
	p.advance() // while
	if err := p.parseParenCondition(); err != nil {
		return err
	}
	p.code.Emit(OpLABEL)

	jumpEnd := p.code.EmitPlaceholder(OpJUMPZ)
	if err := p.parseStatement(); err != nil {
		return err
	}
	p.code.EmitOperand(OpJUMP, start)
	return p.code.Patch(jumpEnd, p.code.Next())
}

// parseReturn leaves the optional value on the stack; there is no return
// instruction.
func (p *Parser) parseReturn() error {
	p.advance() // return
	if !p.peek().is(SEPARATOR, ";") {
		if err := p.parseExpression(); err != nil {
			return err
		}
	}
	_, err := p.expectLexeme(SEPARATOR, ";")
	return err
}

func (p *Parser) parsePut() error {
	p.advance() // put
	if _, err := p.expectLexeme(SEPARATOR, "("); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.code.Emit(OpSTDOUT)
	if _, err := p.expectLexeme(SEPARATOR, ")"); err != nil {
		return err
	}
	_, err := p.expectLexeme(SEPARATOR, ";")
	return err
}

func (p *Parser) parseGet() error {
	p.advance() // get
	if _, err := p.expectLexeme(SEPARATOR, "("); err != nil {
		return err
	}
	for {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return err
		}
		sym, err := p.syms.Lookup(tok.Lexeme)
		if err != nil {
			return p.fmtError(tok, err)
		}
		p.code.Emit(OpSTDIN)
		p.code.EmitOperand(OpPOPM, sym.Address)

		if p.peek().is(SEPARATOR, ",") {
			p.advance()
			continue
		}
		if _, err := p.expectLexeme(SEPARATOR, ")"); err != nil {
			return err
		}
		break
	}
	_, err := p.expectLexeme(SEPARATOR, ";")
	return err
}

func (p *Parser) parseCondition() error {
	if err := p.parseExpression(); err != nil {
		return err
	}
	tok := p.peek()
	op, ok := relops[tok.Lexeme]
	if tok.Kind != OPERATOR || !ok {
		return p.syntaxError(OPERATOR, "", "relational operator")
	}
	p.advance()
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.code.Emit(op)
	return nil
}

func (p *Parser) parseExpression() error {
	if err := p.parseTerm(); err != nil {
		return err
	}
	for {
		var op Opcode
		switch tok := p.peek(); {
		case tok.is(OPERATOR, "+"):
			op = OpADD
		case tok.is(OPERATOR, "-"):
			op = OpSUB
		default:
			return nil
		}
		p.advance()
		if err := p.parseTerm(); err != nil {
			return err
		}
		p.code.Emit(op)
	}
}

func (p *Parser) parseTerm() error {
	if err := p.parseFactor(); err != nil {
		return err
	}
	for {
		var op Opcode
		switch tok := p.peek(); {
		case tok.is(OPERATOR, "*"):
			op = OpMUL
		case tok.is(OPERATOR, "/"):
			op = OpDIV
		default:
			return nil
		}
		p.advance()
		if err := p.parseFactor(); err != nil {
			return err
		}
		p.code.Emit(op)
	}
}

func (p *Parser) parseFactor() error {
	tok := p.peek()
	switch {
	case tok.is(KEYWORD, "true"):
		p.advance()
		p.code.EmitOperand(OpPUSHI, 1)
	case tok.is(KEYWORD, "false"):
		p.advance()
		p.code.EmitOperand(OpPUSHI, 0)
	case tok.Kind == INTEGER:
		val, err := strconv.Atoi(tok.Lexeme)
		if err != nil {
			return p.syntaxError(INTEGER, "", "integer literal in range")
		}
		p.advance()
		p.code.EmitOperand(OpPUSHI, val)
	case tok.Kind == IDENTIFIER:
		sym, err := p.syms.Lookup(tok.Lexeme)
		if err != nil {
			return p.fmtError(tok, err)
		}
		p.advance()
		p.code.EmitOperand(OpPUSHM, sym.Address)
	case tok.is(SEPARATOR, "("):
		p.advance()
		if err := p.parseExpression(); err != nil {
			return err
		}
		if _, err := p.expectLexeme(SEPARATOR, ")"); err != nil {
			return err
		}
	default:
		return p.syntaxError(IDENTIFIER, "", "factor (identifier, integer, true, false or \"(\")")
	}
	return nil
}
