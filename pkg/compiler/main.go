// Package compiler provides a Rat24F tokenizer and a syntax-directed
// translator that turns the token stream into stack-machine instructions.
//
// Pipeline: Rat24F source → Preprocess → Lex → Parser.Translate → instruction
// listing + symbol table listing
package compiler
