package fetch

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/diligence/internal/model"
)

func TestMarkdownConverter_Convert(t *testing.T) {
	m := NewMarkdownConverter()
	doc := `<h1>Traction</h1>
	<p onclick="steal()">ARR reached <b>$1.2M</b>.</p>
	<script>alert("x")</script>
	<table><tr><th>Year</th><th>ARR</th></tr><tr><td>2025</td><td>1.2M</td></tr></table>`

	got := m.Convert(doc, "https://acme.example", "fallback")
	for _, want := range []string{"# Traction", "**$1.2M**", "Year", "|"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in:\n%s", want, got)
		}
	}
	for _, banned := range []string{"alert", "steal", "<script"} {
		if strings.Contains(got, banned) {
			t.Errorf("Expected %q to be sanitized from:\n%s", banned, got)
		}
	}
}

func TestMarkdownConverter_Fallback(t *testing.T) {
	m := NewMarkdownConverter()
	if got := m.Convert("   ", "", "plain"); got != "plain" {
		t.Errorf("Expected fallback for blank input, got %q", got)
	}
	if got := m.Convert("<script>only()</script>", "", "plain"); got != "plain" {
		t.Errorf("Expected fallback when nothing survives sanitizing, got %q", got)
	}
}

func TestLoader_MarkdownForHTML(t *testing.T) {
	l := NewLoader(nil, nil)
	page, err := l.Load(context.Background(), model.Document{
		Name:    "deck",
		Content: "<html><body><h2>Team</h2><ul><li>CEO: Jane</li></ul></body></html>",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.Contains(page.Markdown, "## Team") || !strings.Contains(page.Markdown, "- CEO: Jane") {
		t.Errorf("Unexpected markdown: %q", page.Markdown)
	}

	plain, err := l.Load(context.Background(), model.Document{Name: "memo", Content: "We have 3 pilots."})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if plain.Markdown != plain.Text {
		t.Errorf("Expected plain documents to reuse text, got %q", plain.Markdown)
	}
}
