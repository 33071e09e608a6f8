package main

import (
	"fmt"
	"os"

	"rat24f/pkg/compiler"
	"rat24f/pkg/llvm"
)

const testSource = `$$
integer x, y;
x = 10;
y = 20;
if (x < y) put(y); else put(x); endif
$$
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	// Preprocess
	var err error
	src, err = compiler.Preprocess(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "preprocess error:", err)
		os.Exit(1)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Translate
	p := compiler.NewParser(tokens, src)
	if err := p.Translate(nil); err != nil {
		fmt.Fprintln(os.Stderr, "translate error:", err)
		fmt.Println("Partial listing")
		fmt.Print(p.Code())
		os.Exit(1)
	}

	fmt.Println("Instructions")
	fmt.Print(p.Code())
	fmt.Println()
	fmt.Print(p.Symbols())
	fmt.Println()

	// LLVM
	m, err := llvm.Lower(p.Program())
	if err != nil {
		fmt.Fprintln(os.Stderr, "llvm error:", err)
		os.Exit(1)
	}
	fmt.Println("LLVM IR")
	fmt.Print(m)
}
