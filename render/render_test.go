package render

import (
	"strings"
	"testing"

	"github.com/convopg/convopg/types"
)

func TestMarkdown(t *testing.T) {
	html, err := Markdown("# Heading\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<h1") {
		t.Errorf("expected a heading, got %q", out)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("expected bold text, got %q", out)
	}
}

func TestMarkdownSanitizesHTML(t *testing.T) {
	html, err := Markdown("hello <script>alert(1)</script> world")
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Errorf("script tag survived sanitization: %q", html)
	}
}

func TestTurnHTML(t *testing.T) {
	turn := &types.Turn{
		Role: types.RoleModel,
		Content: []types.ContentBlock{
			types.TextBlock("first *paragraph*"),
			{Type: types.ContentTypeData, Data: []byte(`{"skip":"me"}`)},
			types.TextBlock("second paragraph"),
		},
	}

	html, err := TurnHTML(turn)
	if err != nil {
		t.Fatalf("TurnHTML failed: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<em>paragraph</em>") {
		t.Errorf("expected rendered emphasis, got %q", out)
	}
	if !strings.Contains(out, "second paragraph") {
		t.Errorf("expected second block rendered, got %q", out)
	}
	if strings.Contains(out, "skip") {
		t.Errorf("data block leaked into output: %q", out)
	}
}
