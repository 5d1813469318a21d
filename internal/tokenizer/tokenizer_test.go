package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"case preserved", "Baby shark BABY", []string{"Baby", "shark", "BABY"}},
		{"punctuation splits", "do, do! do? (do)", []string{"do", "do", "do", "do"}},
		{"contraction kept", "don't stop", []string{"don't", "stop"}},
		{"quotes trimmed", "'hello' world'", []string{"hello", "world"}},
		{"hyphen splits", "doo-doo", []string{"doo", "doo"}},
		{"digits", "top 10 words", []string{"top", "10", "words"}},
		{"whitespace", "multiple\tspaces\n\n and\nlines", []string{"multiple", "spaces", "and", "lines"}},
		{"lone apostrophe", "rock ' roll", []string{"rock", "roll"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Words(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := Tokenize("Baby shark, do do")
	if len(tokens) != 4 {
		t.Fatalf("got %d tokens", len(tokens))
	}
	for i, tok := range tokens {
		if tok.Position != i {
			t.Errorf("token %q position = %d, want %d", tok.Term, tok.Position, i)
		}
	}
	if tokens[0].Term != "Baby" {
		t.Errorf("first term = %q", tokens[0].Term)
	}
}

func TestReadWords(t *testing.T) {
	text := "Baby shark, do do do\nMommy shark, do do do\n"
	words, err := ReadWords(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ReadWords: %v", err)
	}
	if len(words) != 10 {
		t.Errorf("got %d words: %q", len(words), words)
	}
}

func BenchmarkWords(b *testing.B) {
	text := strings.Repeat("Baby shark, do do do do do do. Mommy shark, don't stop! ", 200)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Words(text)
	}
}
