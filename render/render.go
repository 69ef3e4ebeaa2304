// Package render converts transcript turns to sanitized HTML for embedding
// in host applications. Summaries produced by compaction are markdown, so
// hosts displaying a transcript usually want both rendering and
// sanitization in one step.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/convopg/convopg/types"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	policy = bluemonday.UGCPolicy()
)

// Markdown renders markdown text to sanitized HTML.
func Markdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

// TurnHTML renders a turn's text content to sanitized HTML. Structured data
// blocks are skipped; they are not presentation content.
func TurnHTML(turn *types.Turn) (template.HTML, error) {
	var parts []string
	for _, block := range turn.Content {
		if block.Type != types.ContentTypeText || block.Text == "" {
			continue
		}
		parts = append(parts, block.Text)
	}
	return Markdown(strings.Join(parts, "\n\n"))
}
