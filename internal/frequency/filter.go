package frequency

import "sort"

// FilterSet is a set of stop words excluded from reports. Membership hides
// a word from rankings and frequency answers; it never changes the counts
// stored in a Table. A nil *FilterSet is a valid empty filter.
type FilterSet struct {
	words map[string]struct{}
}

// NewFilterSet folds and inserts each word. Duplicates collapse and empty
// strings are ignored.
func NewFilterSet(words []string) *FilterSet {
	f := &FilterSet{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w == "" {
			continue
		}
		f.words[Normalize(w)] = struct{}{}
	}
	return f
}

// Contains reports whether the folded word is excluded.
func (f *FilterSet) Contains(word string) bool {
	if f == nil {
		return false
	}
	_, ok := f.words[Normalize(word)]
	return ok
}

func (f *FilterSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.words)
}

// Words returns the excluded words in ascending order.
func (f *FilterSet) Words() []string {
	if f == nil {
		return nil
	}
	words := make([]string, 0, len(f.words))
	for w := range f.words {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
