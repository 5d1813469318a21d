// Package tokenizer splits raw text into word tokens. Unlike a search
// analyzer it neither stems nor drops stop words, and it preserves case:
// case-folding belongs to the frequency table so that every consumer folds
// the same way.
package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Token represents a single word and its position in the original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into Tokens. Words are maximal runs of letters and
// digits. Apostrophes inside a word are kept ("don't"); leading and trailing
// ones are trimmed.
func Tokenize(text string) []Token {
	words := Words(text)
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Term: w, Position: i}
	}
	return tokens
}

// Words returns the bare token strings of text in order.
func Words(text string) []string {
	fields := strings.FieldsFunc(text, isSeparator)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'’")
		if f == "" {
			continue
		}
		words = append(words, f)
	}
	return words
}

// ReadWords tokenizes everything readable from r, line by line.
func ReadWords(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var words []string
	for scanner.Scan() {
		words = append(words, Words(scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning text: %w", err)
	}
	return words, nil
}

func isSeparator(r rune) bool {
	if r == '\'' || r == '’' {
		return false
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
