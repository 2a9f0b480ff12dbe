package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveHostURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "https://bsky.app/"},
		{"/profile/alice.bsky.social", "https://bsky.app/profile/alice.bsky.social"},
		{"search", "https://bsky.app/search"},
		{"https://example.com/article", "https://example.com/article"},
		{"  /notifications  ", "https://bsky.app/notifications"},
	}
	for _, c := range cases {
		if got := ResolveHostURL(c.in); got != c.want {
			t.Errorf("ResolveHostURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHostPath(t *testing.T) {
	if got := HostPath("/profile/alice.bsky.social/post/abc"); got != "/profile/alice.bsky.social/post/abc" {
		t.Errorf("HostPath = %q", got)
	}
	if got := HostPath("https://example.com/x"); got != "" {
		t.Errorf("HostPath for non-host URL = %q, want empty", got)
	}
}

func TestFetchSetsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher()
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if gotUA == "" {
		t.Error("User-Agent header not set")
	}
	if gotAccept == "" {
		t.Error("Accept header not set")
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", result.StatusCode)
	}
	if !IsHTML(result.ContentType) {
		t.Errorf("ContentType = %q, expected HTML", result.ContentType)
	}
}

func TestExtractNonHTMLPassesThrough(t *testing.T) {
	e := NewExtractor()
	article, err := e.Extract(&FetchResult{
		FinalURL:    "https://example.com/data.txt",
		ContentType: "text/plain",
		Body:        []byte("plain text"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if article.TextContent != "plain text" {
		t.Errorf("TextContent = %q", article.TextContent)
	}
	if article.Title != "https://example.com/data.txt" {
		t.Errorf("Title = %q", article.Title)
	}
}
