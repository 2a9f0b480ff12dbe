package readstate

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

// memKV is an in-memory stand-in for the host key/value store.
type memKV struct {
	values map[string]string
}

func newMemKV() *memKV {
	return &memKV{values: make(map[string]string)}
}

func (m *memKV) Get(key, def string) string {
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

func (m *memKV) Set(key, value string) error {
	m.values[key] = value
	return nil
}

// memRemote is an in-memory RemoteStore; delay slows GetBlob down so a sync
// can overlap other ledger activity.
type memRemote struct {
	blob  []byte
	puts  [][]byte
	delay time.Duration
}

func (r *memRemote) GetBlob(_ context.Context, _ string) ([]byte, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.blob, nil
}

func (r *memRemote) PutBlob(_ context.Context, _ string, data []byte) error {
	r.puts = append(r.puts, data)
	return nil
}

func remoteBlob(t *testing.T, entries map[string]time.Time) []byte {
	t.Helper()
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestLoadFailsOpen(t *testing.T) {
	kv := newMemKV()
	kv.values[ledgerKey] = "{not json"

	l := Load(kv, 100)
	if l.Len() != 0 {
		t.Errorf("corrupt ledger should load empty, got %d entries", l.Len())
	}

	l = Load(newMemKV(), 100)
	if l.Len() != 0 {
		t.Errorf("absent ledger should load empty, got %d entries", l.Len())
	}
}

func TestToggleIdempotence(t *testing.T) {
	l := Load(newMemKV(), 100)
	l.Mark("a/1", MarkRead)

	// Two toggles net to a no-op, both from the read and unread side.
	l.Mark("a/1", ToggleRead)
	l.Mark("a/1", ToggleRead)
	if !l.IsRead("a/1") {
		t.Error("double toggle should leave a/1 read")
	}

	l.Mark("b/2", ToggleRead)
	l.Mark("b/2", ToggleRead)
	if l.IsRead("b/2") {
		t.Error("double toggle should leave b/2 unread")
	}
}

func TestMarkSemantics(t *testing.T) {
	l := Load(newMemKV(), 100)

	l.Mark("x", MarkRead)
	if !l.IsRead("x") {
		t.Error("MarkRead should set the entry")
	}
	l.Mark("x", MarkUnread)
	if l.IsRead("x") {
		t.Error("MarkUnread should delete the entry")
	}

	// Untrackable items are no-ops, not failures.
	l.Mark("", MarkRead)
	l.Mark("", ToggleRead)
	if l.Len() != 0 {
		t.Errorf("empty id should never be recorded, got %d entries", l.Len())
	}
}

func TestBoundedRetention(t *testing.T) {
	kv := newMemKV()
	const n = 10
	l := Load(kv, n)

	// Insert n+k entries with strictly increasing timestamps.
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	for i := 0; i < n+7; i++ {
		l.Mark(fmt.Sprintf("id-%d", i), MarkRead)
	}

	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if l.Len() != n {
		t.Fatalf("expected %d entries after flush, got %d", n, l.Len())
	}
	// The survivors must be exactly the n most recently marked.
	for i := 7; i < n+7; i++ {
		if !l.IsRead(fmt.Sprintf("id-%d", i)) {
			t.Errorf("id-%d should have survived the trim", i)
		}
	}
	for i := 0; i < 7; i++ {
		if l.IsRead(fmt.Sprintf("id-%d", i)) {
			t.Errorf("id-%d should have been evicted", i)
		}
	}
}

func TestSyncRemoteMergeDirtiesLedger(t *testing.T) {
	l := Load(newMemKV(), 100)
	l.Mark("a/1", MarkRead)
	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}
	if l.Dirty() {
		t.Fatal("ledger should be clean after flush")
	}

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	remote := &memRemote{blob: remoteBlob(t, map[string]time.Time{"b/2": now})}
	if err := l.SyncRemote(context.Background(), remote); err != nil {
		t.Fatal(err)
	}
	if !l.IsRead("b/2") {
		t.Error("remote marker should be merged into the ledger")
	}
	// Merged-in remote markers must survive the next flush locally.
	if !l.Dirty() {
		t.Error("a merge that added entries should dirty the ledger")
	}
	if len(remote.puts) != 1 {
		t.Fatalf("PutBlob calls = %d, want 1", len(remote.puts))
	}
	var written map[string]time.Time
	if err := json.Unmarshal(remote.puts[0], &written); err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Errorf("written blob has %d entries, want 2", len(written))
	}

	// A sync that changes nothing leaves the ledger clean.
	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := l.SyncRemote(context.Background(), remote); err != nil {
		t.Fatal(err)
	}
	if l.Dirty() {
		t.Error("a no-op merge should not dirty the ledger")
	}
}

func TestSyncRemoteSafeAgainstConcurrentMarks(t *testing.T) {
	l := Load(newMemKV(), 10000)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	remote := &memRemote{
		blob:  remoteBlob(t, map[string]time.Time{"remote/1": now}),
		delay: 10 * time.Millisecond,
	}

	// Marking keeps running on the update loop while a slow sync is in
	// flight; both sides must see a consistent ledger afterwards.
	done := make(chan error, 1)
	go func() { done <- l.SyncRemote(context.Background(), remote) }()
	for i := 0; i < 500; i++ {
		l.Mark(fmt.Sprintf("local/%d", i), MarkRead)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if !l.IsRead("remote/1") {
		t.Error("remote marker lost during concurrent marking")
	}
	for i := 0; i < 500; i++ {
		if !l.IsRead(fmt.Sprintf("local/%d", i)) {
			t.Fatalf("local/%d lost during sync", i)
		}
	}
}

func TestFlushPersistsAndReloads(t *testing.T) {
	kv := newMemKV()
	l := Load(kv, 100)
	l.Mark("a/1", MarkRead)
	l.Mark("b/2", MarkRead)

	if !l.Dirty() {
		t.Error("ledger should be dirty after mutations")
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if l.Dirty() {
		t.Error("ledger should be clean after flush")
	}

	// A fresh load sees the persisted state.
	reloaded := Load(kv, 100)
	if !reloaded.IsRead("a/1") || !reloaded.IsRead("b/2") {
		t.Error("reloaded ledger missing persisted entries")
	}

	// The persisted form is plain JSON keyed by stable ID.
	var raw map[string]time.Time
	if err := json.Unmarshal([]byte(kv.values[ledgerKey]), &raw); err != nil {
		t.Fatalf("persisted ledger is not valid JSON: %v", err)
	}
	if len(raw) != 2 {
		t.Errorf("expected 2 persisted entries, got %d", len(raw))
	}
}
