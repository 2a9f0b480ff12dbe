package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tonycpsu/bluesky-navigator/internal/browser"
	"github.com/tonycpsu/bluesky-navigator/internal/bsky"
	"github.com/tonycpsu/bluesky-navigator/internal/contexts"
	"github.com/tonycpsu/bluesky-navigator/internal/page"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
	"github.com/tonycpsu/bluesky-navigator/internal/storage"
	"github.com/tonycpsu/bluesky-navigator/internal/ui"
)

// pageLoadedMsg is sent when a host page finishes loading.
type pageLoadedMsg struct {
	url  string
	body []byte
	push bool // record in navigation history
	err  error
}

// mutationMsg carries one debounced batch from the active watch.
type mutationMsg struct {
	batch page.Batch
	ok    bool // false when the stream closed (context switch)
}

// previewLoadedMsg is sent when a reader-view extraction completes.
type previewLoadedMsg struct {
	article *browser.Article
	err     error
}

// threadLoadedMsg is sent when a thread unroll completes.
type threadLoadedMsg struct {
	thread *bsky.Thread
	err    error
}

// loginDoneMsg is sent when the startup login attempt completes.
type loginDoneMsg struct {
	handle string
	err    error
}

// syncDoneMsg is sent when a remote ledger sync completes.
type syncDoneMsg struct {
	err error
}

type pollTickMsg struct{}
type refreshTickMsg struct{}
type flushTickMsg struct{}

// Deps bundles everything the model needs; main builds it once and hands it
// over.
type Deps struct {
	Config   *storage.Config
	Ledger   *readstate.Ledger
	Client   *bsky.Client
	Doc      *page.Document
	StartURL string
}

// Model is the root bubbletea model.
type Model struct {
	cfg    *storage.Config
	ledger *readstate.Ledger
	client *bsky.Client

	doc        *page.Document
	loc        *page.Location
	fetcher    *browser.Fetcher
	extractor  *browser.Extractor
	dispatcher *contexts.Dispatcher
	router     *contexts.Router

	itemList  *ui.ItemList
	statusBar ui.StatusBar
	inputBar  ui.InputBar
	preview   *ui.PreviewPane
	help      *ui.HelpOverlay

	keys     KeyMap
	width    int
	height   int
	loading  bool
	hideRead bool
	watching bool // a reader is pending on the mutation stream
}

// NewModel wires the application together. The handler registry is built
// here, once, and injected into the dispatcher; nothing resolves handlers
// through package state.
func NewModel(deps Deps) Model {
	itemList := ui.NewItemList()
	opts := contexts.ListOptions{
		MarkReadOnMove: deps.Config.GetBool("markReadOnScroll"),
	}
	registry := contexts.NewRegistry(
		contexts.NewInputHandler(),
		contexts.NewPostHandler(deps.Ledger, itemList, opts),
		contexts.NewProfileHandler(deps.Ledger, itemList, opts),
		contexts.NewFeedHandler(deps.Ledger, itemList, opts),
		contexts.NewDefaultHandler(),
	)
	debounce := time.Duration(deps.Config.GetInt("debounceMs")) * time.Millisecond
	dispatcher := contexts.NewDispatcher(registry, deps.Doc, debounce)

	startURL := deps.StartURL
	if startURL == "" {
		startURL = deps.Config.GetString("startURL")
	}

	m := Model{
		cfg:        deps.Config,
		ledger:     deps.Ledger,
		client:     deps.Client,
		doc:        deps.Doc,
		loc:        page.NewLocation(browser.ResolveHostURL(startURL)),
		fetcher:    browser.NewFetcher(),
		extractor:  browser.NewExtractor(),
		dispatcher: dispatcher,
		router:     contexts.NewRouter(dispatcher, deps.Doc),
		itemList:   itemList,
		statusBar:  ui.NewStatusBar(),
		inputBar:   ui.NewInputBar(),
		preview:    ui.NewPreviewPane(),
		help:       ui.NewHelpOverlay(),
		keys:       DefaultKeyMap(),
		hideRead:   deps.Config.GetBool("hideReadItems"),
		loading:    true, // Init issues the first page load
	}
	m.statusBar.SetLoading(true)
	m.itemList.SetHideRead(m.hideRead)
	m.buildHelp()
	return m
}

func (m *Model) buildHelp() {
	lk := contexts.DefaultListKeyMap()
	m.help.AddSection("List navigation",
		lk.Next, lk.Prev, lk.PageDown, lk.PageUp, lk.GotoFirst, lk.GotoLast, lk.Open)
	m.help.AddSection("Read state",
		lk.ToggleRead, lk.MarkRead, lk.MarkUnread)
	m.help.AddSection("Content",
		lk.Preview, lk.Unroll)

	var rows [][2]string
	for _, s := range contexts.Shortcuts() {
		rows = append(rows, [2]string{s.Key, "go to " + s.Target})
	}
	m.help.AddRows("Global navigation", rows)

	m.help.AddSection("App",
		m.keys.FocusInput, m.keys.Back, m.keys.Forward, m.keys.Reload,
		m.keys.HideRead, m.keys.SyncNow, m.keys.Help, m.keys.Quit)
}

// Init kicks off the first page load, the startup login, and the timers.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadPage(m.loc.Current(), false),
		m.pollTick(),
		m.refreshTick(),
		m.flushTick(),
	}
	if id := m.cfg.GetString("identifier"); id != "" {
		if pw := m.cfg.GetString("appPassword"); pw != "" {
			cmds = append(cmds, m.login(id, pw))
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.inputBar.SetWidth(msg.Width)
		m.itemList.SetSize(msg.Width, msg.Height-4)
		m.preview.SetSize(msg.Width, msg.Height-1)
		m.help.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case mutationMsg:
		m.watching = false
		if msg.ok {
			m.dispatcher.Apply(msg.batch)
			m.refreshStatus()
		}
		// Re-arm on the dispatcher's current stream; after a context
		// switch this picks up the new handler's watch.
		return m, m.armWatch()

	case contexts.NavigateMsg:
		m.beginLoad()
		return m, m.loadPage(msg.URL, true)

	case contexts.PreviewMsg:
		m.statusBar.SetMessage("loading preview…")
		return m, m.loadPreview(msg.URL)

	case contexts.UnrollMsg:
		m.statusBar.SetMessage("unrolling thread…")
		return m, m.unroll(msg.Actor, msg.RKey)

	case previewLoadedMsg:
		m.statusBar.SetMessage("")
		if msg.err != nil {
			m.statusBar.SetMessage(fmt.Sprintf("preview failed: %v", msg.err))
			return m, nil
		}
		m.preview.ShowArticle(msg.article)
		return m, nil

	case threadLoadedMsg:
		m.statusBar.SetMessage("")
		if msg.err != nil {
			m.statusBar.SetMessage(statusForErr("unroll", msg.err))
			return m, nil
		}
		m.preview.ShowThread(msg.thread)
		return m, nil

	case loginDoneMsg:
		if msg.err != nil {
			m.statusBar.SetMessage(statusForErr("login", msg.err))
		} else {
			m.statusBar.SetMessage("logged in as @" + msg.handle)
		}
		return m, nil

	case syncDoneMsg:
		if msg.err != nil {
			m.statusBar.SetMessage(statusForErr("sync", msg.err))
		} else {
			m.statusBar.SetMessage("read state synced")
		}
		return m, nil

	case pollTickMsg:
		m.dispatcher.PollLocation(browser.HostPath(m.loc.Current()))
		m.refreshStatus()
		return m, tea.Batch(m.armWatch(), m.pollTick())

	case refreshTickMsg:
		// The host page re-renders on its own schedule; refetch in place
		// without touching history.
		return m, tea.Batch(m.loadPage(m.loc.Current(), false), m.refreshTick())

	case flushTickMsg:
		var cmds []tea.Cmd
		if m.ledger.Dirty() {
			if err := m.ledger.Flush(); err != nil {
				m.statusBar.SetMessage(fmt.Sprintf("flush failed: %v", err))
			} else if m.cfg.GetBool("syncEnabled") && m.client.LoggedIn() {
				cmds = append(cmds, m.syncRemote())
			}
		}
		cmds = append(cmds, m.flushTick())
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays eat keys while open.
	if m.help.IsOpen() {
		m.help.Close()
		return m, nil
	}
	if m.preview.IsOpen() {
		if key.Matches(msg, m.keys.Escape) || msg.String() == "q" {
			m.preview.Close()
			return m, nil
		}
		return m, m.preview.Update(msg)
	}

	// The focused input gets everything except escape, enter, and the
	// global Alt chords, which navigate from any context.
	if m.inputBar.IsActive() {
		if msg.Alt {
			if cmd, handled := m.router.Route(msg); handled {
				m.inputBar.Blur()
				m.inputBar.Reset()
				m.dispatcher.SetInputFocused(false)
				return m, tea.Batch(m.armWatch(), cmd)
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.inputBar.Blur()
			m.inputBar.Reset()
			m.dispatcher.SetInputFocused(false)
			return m, m.armWatch()
		case msg.Type == tea.KeyEnter:
			query := m.inputBar.Value()
			m.inputBar.Blur()
			m.inputBar.Reset()
			m.dispatcher.SetInputFocused(false)
			if query == "" {
				return m, m.armWatch()
			}
			m.beginLoad()
			return m, tea.Batch(m.armWatch(), m.loadPage(searchTarget(query), true))
		}
		bar, cmd := m.inputBar.Update(msg)
		m.inputBar = *bar
		return m, cmd
	}

	// Context handler first, then global chords.
	if cmd, handled := m.router.Route(msg); handled {
		m.refreshStatus()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.ledger.Dirty() {
			m.ledger.Flush()
		}
		m.dispatcher.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.FocusInput):
		m.dispatcher.SetInputFocused(true)
		return m, m.inputBar.Focus()

	case key.Matches(msg, m.keys.Back):
		if u, ok := m.loc.Back(); ok {
			m.beginLoad()
			return m, m.loadPage(u, false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Forward):
		if u, ok := m.loc.Forward(); ok {
			m.beginLoad()
			return m, m.loadPage(u, false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		m.beginLoad()
		return m, m.loadPage(m.loc.Current(), false)

	case key.Matches(msg, m.keys.HideRead):
		m.hideRead = !m.hideRead
		m.itemList.SetHideRead(m.hideRead)
		return m, nil

	case key.Matches(msg, m.keys.SyncNow):
		if err := m.ledger.Flush(); err != nil {
			m.statusBar.SetMessage(fmt.Sprintf("flush failed: %v", err))
			return m, nil
		}
		if !m.cfg.GetBool("syncEnabled") {
			m.statusBar.SetMessage("read state saved (sync disabled)")
			return m, nil
		}
		m.statusBar.SetMessage("syncing…")
		return m, m.syncRemote()
	}

	return m, nil
}

// beginLoad flips the loading indicator on ahead of a user-initiated page
// load. Background refreshes skip it; they replace the page in place.
func (m *Model) beginLoad() {
	m.loading = true
	m.statusBar.SetLoading(true)
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.statusBar.SetLoading(false)
	if msg.err != nil {
		m.statusBar.SetMessage(fmt.Sprintf("load failed: %v", msg.err))
		return m, nil
	}
	if err := m.doc.Apply(msg.url, msg.body); err != nil {
		m.statusBar.SetMessage(fmt.Sprintf("parse failed: %v", err))
		return m, nil
	}
	if msg.push {
		m.loc.Navigate(msg.url)
	}

	m.dispatcher.PollLocation(browser.HostPath(msg.url))
	m.refreshStatus()
	return m, m.armWatch()
}

// armWatch attaches a reader to the dispatcher's mutation stream unless one
// is already pending. A pending reader on a cancelled stream unblocks on its
// close and re-arms through the mutationMsg path.
func (m *Model) armWatch() tea.Cmd {
	if m.watching {
		return nil
	}
	cmd := m.waitForBatch()
	if cmd != nil {
		m.watching = true
	}
	return cmd
}

// refreshStatus recomputes the derived status bar fields.
func (m *Model) refreshStatus() {
	m.statusBar.SetURL(m.loc.Current())
	m.statusBar.SetLoading(m.loading)
	if h := m.dispatcher.Active(); h != nil {
		m.statusBar.SetContext(h.Name())
		if ctrl := h.Controller(); ctrl != nil {
			m.statusBar.SetPosition(ctrl.Index(), ctrl.Len())
			m.statusBar.SetUnread(m.itemList.Unread())
			return
		}
	}
	m.statusBar.SetPosition(0, 0)
	m.statusBar.SetUnread(0)
}

func (m Model) View() string {
	if m.help.IsOpen() {
		return lipgloss.JoinVertical(lipgloss.Left, m.help.View(), m.statusBar.View())
	}
	if m.preview.IsOpen() {
		return lipgloss.JoinVertical(lipgloss.Left, m.preview.View(), m.statusBar.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.inputBar.View(),
		m.itemList.View(),
		m.statusBar.View(),
	)
}

// loadPage fetches a host page off the Update loop.
func (m Model) loadPage(rawURL string, push bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		result, err := m.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return pageLoadedMsg{url: rawURL, err: err}
		}
		if result.StatusCode >= 400 {
			return pageLoadedMsg{url: rawURL, err: fmt.Errorf("status %d", result.StatusCode)}
		}
		return pageLoadedMsg{url: result.FinalURL, body: result.Body, push: push}
	}
}

// waitForBatch blocks on the dispatcher's current mutation stream.
func (m Model) waitForBatch() tea.Cmd {
	ch := m.dispatcher.Batches()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		b, ok := <-ch
		return mutationMsg{batch: b, ok: ok}
	}
}

func (m Model) loadPreview(rawURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		result, err := m.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return previewLoadedMsg{err: err}
		}
		article, err := m.extractor.Extract(result)
		if err != nil {
			return previewLoadedMsg{err: err}
		}
		return previewLoadedMsg{article: article}
	}
}

func (m Model) unroll(actor, rkey string) tea.Cmd {
	uri := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", actor, rkey)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		thread, err := m.client.GetThread(ctx, uri)
		if err != nil {
			return threadLoadedMsg{err: err}
		}
		return threadLoadedMsg{thread: thread}
	}
}

func (m Model) login(identifier, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := m.client.Login(ctx, identifier, password); err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{handle: identifier}
	}
}

func (m Model) syncRemote() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return syncDoneMsg{err: m.ledger.SyncRemote(ctx, m.client)}
	}
}

func (m Model) pollTick() tea.Cmd {
	d := time.Duration(m.cfg.GetInt("pollIntervalMs")) * time.Millisecond
	return tea.Tick(d, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (m Model) refreshTick() tea.Cmd {
	d := time.Duration(m.cfg.GetInt("refreshIntervalSec")) * time.Second
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m Model) flushTick() tea.Cmd {
	d := time.Duration(m.cfg.GetInt("idleFlushSec")) * time.Second
	return tea.Tick(d, func(time.Time) tea.Msg { return flushTickMsg{} })
}

// searchTarget maps input-bar text to a host location: paths pass through,
// anything else becomes a search query.
func searchTarget(query string) string {
	if query == "" {
		return "/"
	}
	if query[0] == '/' {
		return query
	}
	return "/search?q=" + url.QueryEscape(query)
}

func statusForErr(what string, err error) string {
	switch {
	case errors.Is(err, bsky.ErrCoolingDown):
		return what + " suppressed: auth cooling down"
	case errors.Is(err, bsky.ErrAuthRequired):
		return what + " unavailable: login required"
	default:
		return fmt.Sprintf("%s failed: %v", what, err)
	}
}
