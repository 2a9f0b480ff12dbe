package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
)

func itemNode(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc.Find("div").First()
}

func TestSummarizeTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", snippetLimit+50)
	node := itemNode(t, `<div><a href="/profile/alice.test">alice</a><p>`+long+`</p></div>`)

	author, snippet := summarize(items.Item{Node: node})
	if author != "alice" {
		t.Errorf("author = %q, want alice", author)
	}
	if !utf8.ValidString(snippet) {
		t.Error("snippet contains a split multi-byte rune")
	}
	if got := utf8.RuneCountInString(snippet); got != snippetLimit+1 { // +1 for the ellipsis
		t.Errorf("snippet runes = %d, want %d", got, snippetLimit+1)
	}
	if !strings.HasSuffix(snippet, "…") {
		t.Error("truncated snippet should end with an ellipsis")
	}
}

func TestSummarizeShortTextUntouched(t *testing.T) {
	node := itemNode(t, `<div><a href="/profile/bob.test">bob</a><p>short post</p></div>`)
	author, snippet := summarize(items.Item{Node: node})
	if author != "bob" {
		t.Errorf("author = %q, want bob", author)
	}
	if snippet != "short post" {
		t.Errorf("snippet = %q, want %q", snippet, "short post")
	}
}

func TestSummarizeMissingNode(t *testing.T) {
	author, snippet := summarize(items.Item{})
	if author != "(unknown)" || snippet != "" {
		t.Errorf("summarize(empty) = (%q, %q)", author, snippet)
	}
}
