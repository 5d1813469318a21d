// Package report renders frequency answers and top-K rankings into the
// fixed text formats shown to users.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
)

const (
	header = "MostFrequentWords[\n"
	footer = "]"
	indent = "   "

	// InvalidCountMessage is the validation line emitted for k <= 0.
	InvalidCountMessage = "Number of words must be greater than 0."
)

// FrequencyReport answers how often word occurs. The word is echoed as the
// caller typed it. A filtered word reports 0 even though the table still
// counts it.
func FrequencyReport(word string, table *frequency.Table, filter *frequency.FilterSet) string {
	return FormatFrequency(word, Count(word, table, filter))
}

// Count is the count FrequencyReport would print for word.
func Count(word string, table *frequency.Table, filter *frequency.FilterSet) int {
	if filter.Contains(word) {
		return 0
	}
	return table.Lookup(word)
}

func FormatFrequency(word string, count int) string {
	return fmt.Sprintf("The word (%s) is contained in the text %d times.", word, count)
}

// TopWordsReport selects the k most frequent unfiltered words and formats
// them. A non-positive k yields the validation report instead.
func TopWordsReport(table *frequency.Table, filter *frequency.FilterSet, k int) string {
	ranking, err := frequency.Select(table, filter, k)
	if err != nil {
		return FormatError(err)
	}
	return FormatRanking(ranking)
}

// FormatRanking renders one "word - count" line per entry, in order.
func FormatRanking(ranking frequency.Ranking) string {
	var b strings.Builder
	b.WriteString(header)
	for _, e := range ranking {
		fmt.Fprintf(&b, "%s%s - %d\n", indent, e.Word, e.Count)
	}
	b.WriteString(footer)
	return b.String()
}

// FormatError renders a selection failure inside the report frame.
func FormatError(err error) string {
	msg := err.Error()
	if errors.Is(err, frequency.ErrInvalidCount) {
		msg = InvalidCountMessage
	}
	return header + indent + msg + "\n" + footer
}
