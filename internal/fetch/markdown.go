package fetch

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// MarkdownConverter renders HTML documents as markdown so tables and
// headings survive into model prompts
type MarkdownConverter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// NewMarkdownConverter creates a converter with commonmark and table support
func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Convert sanitizes htmlContent and converts it to markdown.
// Returns fallback when conversion fails or yields nothing.
func (m *MarkdownConverter) Convert(htmlContent, sourceURL, fallback string) string {
	if strings.TrimSpace(htmlContent) == "" {
		return fallback
	}
	clean := m.policy.Sanitize(htmlContent)

	var opts []converter.ConvertOptionFunc
	if sourceURL != "" {
		opts = append(opts, converter.WithDomain(sourceURL))
	}
	out, err := m.conv.ConvertString(clean, opts...)
	if err != nil || strings.TrimSpace(out) == "" {
		return fallback
	}
	return strings.TrimSpace(out)
}
