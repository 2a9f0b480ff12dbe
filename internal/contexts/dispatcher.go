package contexts

import (
	"context"
	"time"

	"github.com/tonycpsu/bluesky-navigator/internal/page"
)

// Dispatcher decides which handler is active and runs the mutation watch for
// it. Context switches are strictly ordered: the outgoing handler's watch is
// cancelled and its Deactivate completes before the incoming handler's
// Activate runs.
type Dispatcher struct {
	registry *Registry
	doc      *page.Document
	debounce time.Duration

	active       Handler
	inputFocused bool
	lastPath     string

	cancelWatch context.CancelFunc
	batches     <-chan page.Batch
}

// NewDispatcher creates a dispatcher over the given registry and document.
// quiet is the debounce window applied to mutation batches.
func NewDispatcher(registry *Registry, doc *page.Document, quiet time.Duration) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		doc:      doc,
		debounce: quiet,
	}
}

// Active returns the currently active handler, or nil before the first poll.
func (d *Dispatcher) Active() Handler { return d.active }

// Batches returns the debounced mutation stream for the active handler's
// item kind. The channel is replaced on every context switch and closed when
// the outgoing watch is cancelled; callers should re-arm on close.
func (d *Dispatcher) Batches() <-chan page.Batch { return d.batches }

// PollLocation compares the current host path against the last observed one
// and re-resolves context when it changed. Safe to call every tick; same-path
// polls are no-ops.
func (d *Dispatcher) PollLocation(path string) {
	if path == d.lastPath && d.active != nil {
		return
	}
	d.lastPath = path
	d.setContext(d.registry.Resolve(path, d.inputFocused))
}

// SetInputFocused records the input-focus override and re-resolves. Focus
// changes preempt path-based matching: a focused input always selects the
// input handler, and releasing focus restores the path's handler.
func (d *Dispatcher) SetInputFocused(focused bool) {
	if focused == d.inputFocused {
		return
	}
	d.inputFocused = focused
	d.setContext(d.registry.Resolve(d.lastPath, d.inputFocused))
}

// Apply rebuilds the active handler's snapshot from the current document.
// Called when a mutation batch arrives; batches for a handler that has since
// been deactivated are ignored.
func (d *Dispatcher) Apply(b page.Batch) {
	if d.active == nil {
		return
	}
	ctrl := d.active.Controller()
	if ctrl == nil || ctrl.Kind().Selector() != b.Selector {
		return
	}
	ctrl.Rebuild(d.doc)
}

// Shutdown cancels any running watch.
func (d *Dispatcher) Shutdown() {
	d.stopWatch()
	if d.active != nil {
		d.active.Deactivate()
		d.active = nil
	}
}

// setContext always runs the full deactivate-then-activate pair, even when
// next is the handler already active: a location change within the same
// context still needs a clean rebind (chord buffer cleared, watch restarted
// against the new page).
func (d *Dispatcher) setContext(next Handler) {
	if d.active != nil {
		d.stopWatch()
		d.active.Deactivate()
	}
	d.active = next
	if next == nil {
		return
	}
	next.Activate()
	d.startWatch(next)
}

func (d *Dispatcher) startWatch(h Handler) {
	ctrl := h.Controller()
	if ctrl == nil {
		d.batches = nil
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelWatch = cancel
	kind := ctrl.Kind()
	raw := page.Watch(ctx, d.doc, kind.Selector(), kind.Key)
	d.batches = page.Debounce(ctx, raw, d.debounce)
}

func (d *Dispatcher) stopWatch() {
	if d.cancelWatch != nil {
		d.cancelWatch()
		d.cancelWatch = nil
	}
	d.batches = nil
}
