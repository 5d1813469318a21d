// Package cloud renders a ranking as a self-contained HTML word cloud.
// Entries are emitted in the order given; the renderer never re-sorts or
// re-filters.
package cloud

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
)

const DefaultTitle = "WordCloudUI"

var page = template.Must(template.New("cloud").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; text-align: center; }
.cloud { max-width: 900px; margin: 2em auto; line-height: 1.4; }
.cloud span { display: inline-block; margin: 0 0.3em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="cloud">
{{- range .Words}}
<span title="{{.Count}}" style="font-size: {{.Size}}px">{{.Word}}</span>
{{- end}}
</div>
</body>
</html>
`))

// Renderer scales font sizes linearly by count between MinFont and MaxFont.
type Renderer struct {
	MinFont int
	MaxFont int
}

func NewRenderer(minFont, maxFont int) *Renderer {
	if minFont <= 0 {
		minFont = 12
	}
	if maxFont < minFont {
		maxFont = minFont
	}
	return &Renderer{MinFont: minFont, MaxFont: maxFont}
}

type word struct {
	Word  string
	Count int
	Size  int
}

// Render returns the HTML page for ranking. An empty title falls back to
// DefaultTitle.
func (r *Renderer) Render(title string, ranking frequency.Ranking) (string, error) {
	if title == "" {
		title = DefaultTitle
	}
	data := struct {
		Title string
		Words []word
	}{Title: title, Words: r.scale(ranking)}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering word cloud: %w", err)
	}
	return buf.String(), nil
}

// WriteFile renders ranking and writes it to path, creating parent
// directories as needed.
func (r *Renderer) WriteFile(ctx context.Context, path, title string, ranking frequency.Ranking) error {
	html, err := r.Render(title, ranking)
	if err != nil {
		return err
	}
	return WriteHTML(ctx, path, html)
}

// WriteHTML writes an already rendered page to path.
func WriteHTML(ctx context.Context, path, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("writing word cloud: %w", err)
	}
	return nil
}

func (r *Renderer) scale(ranking frequency.Ranking) []word {
	if len(ranking) == 0 {
		return nil
	}
	lo, hi := ranking[0].Count, ranking[0].Count
	for _, e := range ranking[1:] {
		lo = min(lo, e.Count)
		hi = max(hi, e.Count)
	}
	words := make([]word, len(ranking))
	for i, e := range ranking {
		size := r.MaxFont
		if hi > lo {
			size = r.MinFont + (e.Count-lo)*(r.MaxFont-r.MinFont)/(hi-lo)
		}
		words[i] = word{Word: e.Word, Count: e.Count, Size: size}
	}
	return words
}
