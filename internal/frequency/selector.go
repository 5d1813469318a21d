package frequency

import (
	"container/heap"
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/errors"
)

// ErrInvalidCount is returned by Select for k <= 0.
var ErrInvalidCount = fmt.Errorf("%w: number of words must be greater than 0", apperrors.ErrInvalidArgument)

// Ranking is an ordered top-K result: count descending, then word ascending.
type Ranking []Entry

// Words returns the ranked words in order.
func (r Ranking) Words() []string {
	words := make([]string, len(r))
	for i, e := range r {
		words[i] = e.Word
	}
	return words
}

// Counts re-expresses the ranking as a word → count map. Order is lost;
// renderers that care about order must use the Ranking itself.
func (r Ranking) Counts() map[string]int {
	m := make(map[string]int, len(r))
	for _, e := range r {
		m[e.Word] = e.Count
	}
	return m
}

// Select returns the k highest-count entries of table that are not in
// filter. Ties are broken by ascending word so that identical inputs always
// produce identical rankings. A k larger than the remaining vocabulary
// yields a shorter ranking; an empty vocabulary yields an empty one.
//
// Selection keeps a bounded min-heap of the best k entries seen so far,
// O(n log k), and never modifies the table.
func Select(table *Table, filter *FilterSet, k int) (Ranking, error) {
	if k <= 0 {
		return nil, ErrInvalidCount
	}
	h := make(worstFirst, 0, min(k, table.Len()))
	for word, n := range tableCounts(table) {
		if filter.Contains(word) {
			continue
		}
		e := Entry{Word: word, Count: n}
		if len(h) < k {
			heap.Push(&h, e)
			continue
		}
		if ranksBefore(e, h[0]) {
			h[0] = e
			heap.Fix(&h, 0)
		}
	}
	ranking := Ranking(h)
	sort.Slice(ranking, func(i, j int) bool {
		return ranksBefore(ranking[i], ranking[j])
	})
	return ranking, nil
}

// ranksBefore is the total order used for rankings.
func ranksBefore(a, b Entry) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Word < b.Word
}

func tableCounts(t *Table) map[string]int {
	if t == nil {
		return nil
	}
	return t.counts
}

// worstFirst is a heap whose root is the entry that ranks last.
type worstFirst []Entry

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(Entry)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
