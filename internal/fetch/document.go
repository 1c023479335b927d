package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/diligence/internal/model"
)

// Page is a loaded document reduced to text
type Page struct {
	DocumentID string
	Name       string
	URL        string // Final URL after redirects; empty for inline documents
	Text       string
	Markdown   string // HTML documents only; Text otherwise
	Sentences  []string
	Links      []Link
	Tier       Tier
}

// Loader turns application documents into Pages
type Loader struct {
	fetcher    *Fetcher
	classifier *AuthorityClassifier
	markdown   *MarkdownConverter
}

// NewLoader creates a loader; a nil fetcher restricts it to inline documents
func NewLoader(fetcher *Fetcher, classifier *AuthorityClassifier) *Loader {
	if classifier == nil {
		classifier = NewAuthorityClassifier(nil)
	}
	return &Loader{fetcher: fetcher, classifier: classifier, markdown: NewMarkdownConverter()}
}

// Load returns the document's text, fetching it when only a URL is given
func (l *Loader) Load(ctx context.Context, doc model.Document) (*Page, error) {
	page := &Page{DocumentID: doc.ID, Name: doc.Name}

	var body, contentType string
	switch {
	case doc.Content != "":
		body = doc.Content
		page.Tier = TierInline
		if doc.URL != "" {
			page.URL = doc.URL
			page.Tier = l.classifier.Classify(doc.URL)
		}
	case doc.URL != "":
		if l.fetcher == nil {
			return nil, fmt.Errorf("document %s: fetching disabled", doc.Name)
		}
		result, err := l.fetcher.FetchWithRetry(ctx, doc.URL)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.Name, err)
		}
		body, contentType = result.Body, result.ContentType
		page.URL = result.FinalURL
		page.Tier = l.classifier.Classify(result.FinalURL)
	default:
		return nil, errors.New("document has neither content nor url")
	}

	if strings.Contains(contentType, "html") || LooksLikeHTML(body) {
		text, err := VisibleText(body)
		if err != nil {
			return nil, fmt.Errorf("document %s: parse html: %w", doc.Name, err)
		}
		page.Text = text
		page.Markdown = l.markdown.Convert(body, page.URL, text)
		if page.URL != "" {
			page.Links, _ = Links(body, page.URL)
		}
	} else {
		page.Text = strings.TrimSpace(body)
		page.Markdown = page.Text
	}
	page.Sentences = Sentences(page.Text)
	return page, nil
}
