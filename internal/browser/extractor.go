package browser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Article holds extracted content from an embedded external link, used by the
// reader-view preview.
type Article struct {
	Title       string
	Byline      string
	Content     string // HTML content
	TextContent string // plain text
	Excerpt     string
	SiteName    string
	URL         string
}

// Extractor converts fetched pages into readable articles.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the fetch result into an Article. Non-HTML content is
// returned as-is under a synthesized title.
func (e *Extractor) Extract(result *FetchResult) (*Article, error) {
	if result == nil {
		return nil, fmt.Errorf("nil fetch result")
	}

	if !IsHTML(result.ContentType) {
		return &Article{
			Title:       result.FinalURL,
			TextContent: string(result.Body),
			Content:     string(result.Body),
			URL:         result.FinalURL,
		}, nil
	}

	parsedURL, err := url.Parse(result.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %s: %w", result.FinalURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(result.Body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extracting content from %s: %w", result.FinalURL, err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = result.FinalURL
	}

	return &Article{
		Title:       title,
		Byline:      article.Byline,
		Content:     article.Content,
		TextContent: article.TextContent,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		URL:         result.FinalURL,
	}, nil
}
