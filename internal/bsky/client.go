package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tonycpsu/bluesky-navigator/internal/browser"
)

const (
	defaultService = "https://bsky.social"
	requestTimeout = 15 * time.Second
	maxRespSize    = 4 * 1024 * 1024

	syncCollection = "app.bskynav.sync"
)

var (
	// ErrAuthRequired marks failures the caller should treat as "feature
	// unavailable until login succeeds".
	ErrAuthRequired = errors.New("authentication required")

	// ErrCoolingDown is returned when a previous auth failure suppresses
	// further attempts; no network call was made.
	ErrCoolingDown = errors.New("authentication cooling down")
)

// Session holds the XRPC session tokens returned by createSession.
type Session struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Did        string `json:"did"`
	Handle     string `json:"handle"`
}

// Post is one post as consumed by the navigator's optional features.
type Post struct {
	URI          string
	AuthorDid    string
	AuthorHandle string
	Text         string
	CreatedAt    time.Time
	ReplyCount   int
	RepostCount  int
	LikeCount    int
}

// Timeline is a page of the authenticated user's home timeline.
type Timeline struct {
	Posts  []Post
	Cursor string
}

// Thread is a post and its replies flattened in thread order, used by the
// unroll feature.
type Thread struct {
	URI   string
	Posts []Post
}

// List is a user-curated list.
type List struct {
	URI     string
	Name    string
	Purpose string
}

// ListMember is one profile belonging to a list.
type ListMember struct {
	Did         string
	Handle      string
	DisplayName string
}

// Client talks XRPC to a Bluesky service. All authenticated calls go through
// the auth guard: after an authentication failure, attempts short-circuit
// with ErrCoolingDown until the cooldown elapses. Calls run on their own
// goroutines while the app loop polls LoggedIn, so the session pointer is
// guarded by a mutex; a Session is never mutated once stored.
type Client struct {
	httpc   *http.Client
	service string
	guard   *AuthGuard
	threads *lru.Cache[string, *Thread]
	members *lru.Cache[string, []ListMember]

	mu      sync.Mutex
	session *Session
}

// NewClient creates a client for the given service host (empty means the
// default bsky.social entryway).
func NewClient(service string, cooldown time.Duration) *Client {
	if service == "" {
		service = defaultService
	}
	threads, _ := lru.New[string, *Thread](64)
	members, _ := lru.New[string, []ListMember](32)
	return &Client{
		httpc: &http.Client{
			Transport: browser.SharedTransport,
			Timeout:   requestTimeout,
		},
		service: service,
		guard:   NewAuthGuard(cooldown),
		threads: threads,
		members: members,
	}
}

// LoggedIn reports whether a session is held.
func (c *Client) LoggedIn() bool {
	s := c.currentSession()
	return s != nil && s.AccessJwt != ""
}

func (c *Client) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Guard exposes the auth guard for status display.
func (c *Client) Guard() *AuthGuard {
	return c.guard
}

// Login creates a session. Bad credentials record a guard failure so
// follow-up attempts are suppressed for the cooldown window.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	if !c.guard.Allow() {
		return ErrCoolingDown
	}
	body := map[string]string{"identifier": identifier, "password": password}
	var sess Session
	if err := c.xrpcPost(ctx, "com.atproto.server.createSession", body, &sess); err != nil {
		if errors.Is(err, ErrAuthRequired) {
			c.guard.Failure()
		}
		return err
	}
	c.setSession(&sess)
	c.guard.Reset()
	return nil
}

// GetTimeline fetches a page of the home timeline.
func (c *Client) GetTimeline(ctx context.Context, limit int) (*Timeline, error) {
	if err := c.preflight(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var resp struct {
		Feed []struct {
			Post wirePost `json:"post"`
		} `json:"feed"`
		Cursor string `json:"cursor"`
	}
	q := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.xrpcGet(ctx, "app.bsky.feed.getTimeline", q, &resp); err != nil {
		return nil, err
	}
	tl := &Timeline{Cursor: resp.Cursor}
	for _, entry := range resp.Feed {
		tl.Posts = append(tl.Posts, entry.Post.toPost())
	}
	return tl, nil
}

// GetThread fetches a post's thread, flattened parent-first. Threads are
// cached so repeated unrolls of the same post cost nothing.
func (c *Client) GetThread(ctx context.Context, uri string) (*Thread, error) {
	if t, ok := c.threads.Get(uri); ok {
		return t, nil
	}
	if err := c.preflight(); err != nil {
		return nil, err
	}
	var resp struct {
		Thread wireThreadNode `json:"thread"`
	}
	q := url.Values{"uri": {uri}, "depth": {"50"}}
	if err := c.xrpcGet(ctx, "app.bsky.feed.getPostThread", q, &resp); err != nil {
		return nil, err
	}
	t := &Thread{URI: uri}
	flattenThread(&resp.Thread, t)
	c.threads.Add(uri, t)
	return t, nil
}

// GetLists fetches the lists owned by actor.
func (c *Client) GetLists(ctx context.Context, actor string) ([]List, error) {
	if err := c.preflight(); err != nil {
		return nil, err
	}
	var resp struct {
		Lists []struct {
			URI     string `json:"uri"`
			Name    string `json:"name"`
			Purpose string `json:"purpose"`
		} `json:"lists"`
	}
	q := url.Values{"actor": {actor}}
	if err := c.xrpcGet(ctx, "app.bsky.graph.getLists", q, &resp); err != nil {
		return nil, err
	}
	lists := make([]List, 0, len(resp.Lists))
	for _, l := range resp.Lists {
		lists = append(lists, List{URI: l.URI, Name: l.Name, Purpose: l.Purpose})
	}
	return lists, nil
}

// GetListMembers fetches the members of a list, cached per list URI.
func (c *Client) GetListMembers(ctx context.Context, listURI string) ([]ListMember, error) {
	if m, ok := c.members.Get(listURI); ok {
		return m, nil
	}
	if err := c.preflight(); err != nil {
		return nil, err
	}
	var resp struct {
		Items []struct {
			Subject struct {
				Did         string `json:"did"`
				Handle      string `json:"handle"`
				DisplayName string `json:"displayName"`
			} `json:"subject"`
		} `json:"items"`
	}
	q := url.Values{"list": {listURI}, "limit": {"100"}}
	if err := c.xrpcGet(ctx, "app.bsky.graph.getList", q, &resp); err != nil {
		return nil, err
	}
	members := make([]ListMember, 0, len(resp.Items))
	for _, it := range resp.Items {
		members = append(members, ListMember{
			Did:         it.Subject.Did,
			Handle:      it.Subject.Handle,
			DisplayName: it.Subject.DisplayName,
		})
	}
	c.members.Add(listURI, members)
	return members, nil
}

// GetBlob reads a sync record from the user's repo. Implements the read-state
// ledger's remote sync point.
func (c *Client) GetBlob(ctx context.Context, key string) ([]byte, error) {
	if err := c.preflight(); err != nil {
		return nil, err
	}
	var resp struct {
		Value struct {
			Data string `json:"data"`
		} `json:"value"`
	}
	q := url.Values{
		"repo":       {c.currentSession().Did},
		"collection": {syncCollection},
		"rkey":       {key},
	}
	if err := c.xrpcGet(ctx, "com.atproto.repo.getRecord", q, &resp); err != nil {
		return nil, err
	}
	return []byte(resp.Value.Data), nil
}

// PutBlob writes a sync record to the user's repo.
func (c *Client) PutBlob(ctx context.Context, key string, data []byte) error {
	if err := c.preflight(); err != nil {
		return err
	}
	body := map[string]any{
		"repo":       c.currentSession().Did,
		"collection": syncCollection,
		"rkey":       key,
		"record": map[string]string{
			"$type": syncCollection,
			"data":  string(data),
		},
	}
	return c.xrpcPost(ctx, "com.atproto.repo.putRecord", body, nil)
}

// preflight enforces the guard and session requirements shared by all
// authenticated calls.
func (c *Client) preflight() error {
	if !c.guard.Allow() {
		return ErrCoolingDown
	}
	if !c.LoggedIn() {
		return ErrAuthRequired
	}
	return nil
}

func (c *Client) xrpcGet(ctx context.Context, method string, q url.Values, out any) error {
	u := fmt.Sprintf("%s/xrpc/%s", c.service, method)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) xrpcPost(ctx context.Context, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	u := fmt.Sprintf("%s/xrpc/%s", c.service, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if s := c.currentSession(); s != nil && s.AccessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessJwt)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRespSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.guard.Failure()
		return fmt.Errorf("%s: %w", req.URL.Path, ErrAuthRequired)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// Wire types for the subset of the lexicon the navigator consumes.

type wirePost struct {
	URI    string `json:"uri"`
	Author struct {
		Did    string `json:"did"`
		Handle string `json:"handle"`
	} `json:"author"`
	Record struct {
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"record"`
	ReplyCount  int `json:"replyCount"`
	RepostCount int `json:"repostCount"`
	LikeCount   int `json:"likeCount"`
}

func (w wirePost) toPost() Post {
	return Post{
		URI:          w.URI,
		AuthorDid:    w.Author.Did,
		AuthorHandle: w.Author.Handle,
		Text:         w.Record.Text,
		CreatedAt:    w.Record.CreatedAt,
		ReplyCount:   w.ReplyCount,
		RepostCount:  w.RepostCount,
		LikeCount:    w.LikeCount,
	}
}

type wireThreadNode struct {
	Post    *wirePost        `json:"post"`
	Replies []wireThreadNode `json:"replies"`
}

func flattenThread(node *wireThreadNode, t *Thread) {
	if node == nil || node.Post == nil {
		return
	}
	t.Posts = append(t.Posts, node.Post.toPost())
	for i := range node.Replies {
		flattenThread(&node.Replies[i], t)
	}
}
