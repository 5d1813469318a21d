// Package document loads a text and its optional filter into an immutable
// frequency table and filter set. Each load produces a fresh pair; a loaded
// Document is never mutated, so it can be shared by concurrent readers.
package document

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/errors"
)

// Document is a loaded text with its optional exclusion set.
type Document struct {
	// ID is a content hash over the text tokens and filter words. Two
	// loads of the same content share an ID, which keys cached reports.
	ID           string
	Source       string
	FilterSource string
	Table        *frequency.Table
	Filter       *frequency.FilterSet
	LoadedAt     time.Time
}

// Summary is the JSON view of a Document.
type Summary struct {
	DocumentID   string    `json:"document_id"`
	Source       string    `json:"source"`
	FilterSource string    `json:"filter_source,omitempty"`
	Tokens       int       `json:"tokens"`
	Vocabulary   int       `json:"vocabulary"`
	Filtered     int       `json:"filtered"`
	LoadedAt     time.Time `json:"loaded_at"`
}

func (d *Document) Summary() Summary {
	return Summary{
		DocumentID:   d.ID,
		Source:       d.Source,
		FilterSource: d.FilterSource,
		Tokens:       d.Table.Total(),
		Vocabulary:   d.Table.Len(),
		Filtered:     d.Filter.Len(),
		LoadedAt:     d.LoadedAt,
	}
}

// Load reads textPath and, when filterPath is non-empty, filterPath. The
// two files are read concurrently. A missing file yields an AppError
// wrapping ErrNotFound.
func Load(ctx context.Context, textPath, filterPath string) (*Document, error) {
	var words, filterWords []string

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := readWords(ctx, textPath, "input file")
		words = w
		return err
	})
	if filterPath != "" {
		g.Go(func() error {
			w, err := readWords(ctx, filterPath, "filter file")
			filterWords = w
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := build(words, filterWords, filterPath != "")
	doc.Source = textPath
	doc.FilterSource = filterPath
	return doc, nil
}

// FromText builds a Document from in-memory text. A nil filter means no
// filter was supplied.
func FromText(source, text string, filter []string) *Document {
	doc := build(tokenizer.Words(text), filter, filter != nil)
	doc.Source = source
	return doc
}

// Exists reports whether path names a readable regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func build(words, filterWords []string, hasFilter bool) *Document {
	doc := &Document{
		ID:       contentID(words, filterWords),
		Table:    frequency.NewTable(words),
		LoadedAt: time.Now().UTC(),
	}
	if hasFilter {
		doc.Filter = frequency.NewFilterSet(filterWords)
	}
	return doc
}

func readWords(ctx context.Context, path, what string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFoundf("%s %q does not exist", what, path)
		}
		return nil, fmt.Errorf("opening %s: %w", what, err)
	}
	defer f.Close()

	words, err := tokenizer.ReadWords(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s %q: %w", what, path, err)
	}
	return words, nil
}

func contentID(words, filterWords []string) string {
	h := sha256.New()
	for _, w := range words {
		io.WriteString(h, frequency.Normalize(w))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	filter := frequency.NewFilterSet(filterWords).Words()
	io.WriteString(h, strings.Join(filter, "\x00"))
	return fmt.Sprintf("%x", h.Sum(nil)[:12])
}
