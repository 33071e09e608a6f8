package compiler

import (
	"fmt"
	"strings"
)

const (
	commentOpen  = "[*"
	commentClose = "*]"
)

// Preprocess removes "[* ... *]" comments from src. Comment text is replaced
// by a single space, and any newlines inside a comment are kept so that token
// line numbers still point at the input.
func Preprocess(src string) (string, error) {
	var result strings.Builder
	result.Grow(len(src))

	line := 1
	rest := src
	for {
		open := strings.Index(rest, commentOpen)
		if open == -1 {
			result.WriteString(rest)
			return result.String(), nil
		}

		before := rest[:open]
		result.WriteString(before)
		line += strings.Count(before, "\n")

		body := rest[open+len(commentOpen):]
		end := strings.Index(body, commentClose)
		if end == -1 {
			return "", fmt.Errorf("unterminated comment (opened on line %d)", line)
		}

		newlines := strings.Count(body[:end], "\n")
		result.WriteByte(' ')
		result.WriteString(strings.Repeat("\n", newlines))
		line += newlines

		rest = body[end+len(commentClose):]
	}
}
