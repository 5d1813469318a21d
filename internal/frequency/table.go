// Package frequency is the aggregation and top-K engine: it folds tokens
// into a word → count table, holds the optional exclusion set, and selects
// the highest-count words in a deterministic order.
//
// A Table and a FilterSet are immutable once built, so any number of
// goroutines may read them. Loading a new document means building a new
// pair, never mutating an existing one.
package frequency

import "strings"

// Normalize case-folds a word. It is the only normalization applied;
// punctuation handling belongs to the tokenizer.
func Normalize(word string) string {
	return strings.ToLower(word)
}

// Entry is a (word, count) snapshot, independent of the table it came from.
type Entry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Table maps case-folded words to occurrence counts. Every stored count is
// at least 1; absent words have an implicit count of 0.
type Table struct {
	counts map[string]int
	total  int
}

// NewTable folds each token and counts it.
func NewTable(tokens []string) *Table {
	t := &Table{counts: make(map[string]int)}
	for _, tok := range tokens {
		t.counts[Normalize(tok)]++
		t.total++
	}
	return t
}

// FromCounts builds a table from pre-aggregated counts. Keys are folded and
// merged; non-positive counts are dropped.
func FromCounts(counts map[string]int) *Table {
	t := &Table{counts: make(map[string]int, len(counts))}
	for word, n := range counts {
		if n <= 0 {
			continue
		}
		t.counts[Normalize(word)] += n
		t.total += n
	}
	return t
}

// Lookup returns the count for word after folding, or 0.
func (t *Table) Lookup(word string) int {
	if t == nil {
		return 0
	}
	return t.counts[Normalize(word)]
}

// Len is the number of distinct words.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.counts)
}

// Total is the number of tokens the table was built from.
func (t *Table) Total() int {
	if t == nil {
		return 0
	}
	return t.total
}

// Entries returns every word exactly once, in no particular order.
func (t *Table) Entries() []Entry {
	return t.Filtered(nil)
}

// Filtered returns the entries whose word is not in filter. The table is
// not modified; a nil filter keeps everything.
func (t *Table) Filtered(filter *FilterSet) []Entry {
	if t == nil {
		return nil
	}
	entries := make([]Entry, 0, len(t.counts))
	for word, n := range t.counts {
		if filter.Contains(word) {
			continue
		}
		entries = append(entries, Entry{Word: word, Count: n})
	}
	return entries
}
