package autocomplete

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"searchbox/internal/domain"
	"searchbox/internal/eventbus"
)

// Key is a keyboard key the controller understands, named like DOM key values
type Key string

const (
	KeyArrowDown Key = "ArrowDown"
	KeyArrowUp   Key = "ArrowUp"
	KeyPageDown  Key = "PageDown" // jump to the last item
	KeyPageUp    Key = "PageUp"   // jump to the first item
	KeyEnter     Key = "Enter"
	KeyEscape    Key = "Escape"
	KeyTab       Key = "Tab" // accept the inline completion
)

// Controller owns the interaction state of one search box.
// Every transition runs under a single mutex, so user events and fetch
// completions never interleave partially.
type Controller struct {
	mu sync.Mutex

	opts       Options
	registry   *registry
	tracker    tracker
	dispatcher *dispatcher
	bus        eventbus.EventBus
	ownsBus    bool

	state   domain.State
	phase   phase
	focused bool
	pending map[string]bool // sources of the current generation that have not settled
	failed  int

	stallTimer *time.Timer
	cancel     context.CancelFunc
	destroyed  bool
}

// New validates the options and returns an idle, closed controller
func New(opts Options) (*Controller, error) {
	opts = opts.withDefaults()

	reg, err := newRegistry(opts.Sources)
	if err != nil {
		return nil, fmt.Errorf("failed to register sources: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		opts:       opts,
		registry:   reg,
		dispatcher: newDispatcher(ctx, opts.Tracer, opts.MaxConcurrentFetches),
		bus:        opts.Bus,
		cancel:     cancel,
		phase:      phaseIdle,
		state: domain.State{
			Status:      domain.StatusIdle,
			Collections: reg.emptyCollections(),
		},
	}
	if c.bus == nil {
		c.bus = eventbus.New()
		c.ownsBus = true
	}

	log.Printf("autocomplete %s: created with sources %v", opts.ID, reg.ids())
	return c, nil
}

// ID returns the prefix used for binding ids
func (c *Controller) ID() string {
	return c.opts.ID
}

// Placeholder returns the configured input placeholder
func (c *Controller) Placeholder() string {
	return c.opts.Placeholder
}

// Bus returns the event bus snapshots and domain events are published on
func (c *Controller) Bus() eventbus.EventBus {
	return c.bus
}

// Snapshot returns a copy of the current state; see domain.State.Clone
func (c *Controller) Snapshot() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers fn for state snapshots, delivered in transition order.
// A subscriber that falls behind skips intermediate snapshots but always receives the latest.
// The returned function unsubscribes.
func (c *Controller) Subscribe(fn func(domain.State)) func() {
	return c.bus.Subscribe(eventbus.EventStateChanged, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.StateChangedEvent); ok {
			fn(ev.State)
		}
	})
}

// Destroyed reports whether Destroy has been called
func (c *Controller) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Type records raw as the query and starts a fetch cycle for it.
// State.Query is updated before any fetch begins.
func (c *Controller) Type(raw string) domain.Query {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return c.state.Query
	}

	query, prev, changed := c.tracker.set(raw)
	if !changed {
		// The live query is repeated; only a closed panel with something to show reopens
		if query.IsEmpty() || c.phase != phaseIdle {
			return query
		}
	}

	c.state.Query = query
	if changed {
		c.bus.Publish(eventbus.QueryChangedEvent{Previous: prev, Query: query})
	}

	if query.IsEmpty() && !(c.opts.OpenOnFocus && c.focused) {
		c.invalidateLocked()
		c.state.Collections = c.registry.emptyCollections()
		c.state.Faults = nil
		c.notifyLocked()
		return query
	}

	c.startGenerationLocked()
	return query
}

// Focus marks the input as focused and opens the panel when there is something to fetch
func (c *Controller) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.focused = true
	if c.phase != phaseIdle {
		return
	}
	if c.opts.OpenOnFocus || !c.state.Query.IsEmpty() {
		c.startGenerationLocked()
	}
}

// Blur marks the input as unfocused and closes the panel
func (c *Controller) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.focused = false
	c.closeLocked()
}

// Close hides the panel and clears the active item. The query is kept.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.closeLocked()
}

// Submit handles a form submission without a selected item
func (c *Controller) Submit() domain.Query {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.destroyed {
		log.Printf("autocomplete %s: submit %q", c.opts.ID, c.state.Query)
		c.closeLocked()
	}
	return c.state.Query
}

// Reset empties the query and closes the panel
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	_, prev, changed := c.tracker.set("")
	c.state.Query = ""
	if changed {
		c.bus.Publish(eventbus.QueryChangedEvent{Previous: prev})
	}
	c.invalidateLocked()
	c.state.Collections = c.registry.emptyCollections()
	c.state.Faults = nil
	c.notifyLocked()
}

// MoveActive walks the active item across all collections in registration order
func (c *Controller) MoveActive(dir Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed || !c.state.IsOpen {
		return
	}
	refs := c.state.Items()
	if len(refs) == 0 {
		return
	}
	c.setActiveLocked(moveActive(refs, c.state.ActiveItemID, dir, c.opts.WrapNavigation))
}

// SetActive highlights ref if it is present in the collections
func (c *Controller) SetActive(ref domain.ItemRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed || !c.state.IsOpen {
		return
	}
	if _, _, ok := c.state.Lookup(ref); !ok {
		return
	}
	c.setActiveLocked(&ref)
}

// ClearActive removes the highlight
func (c *Controller) ClearActive() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed || c.state.ActiveItemID == nil {
		return
	}
	c.setActiveLocked(nil)
}

// SelectActive selects the highlighted item. It returns the item's URL and
// false when nothing is highlighted.
func (c *Controller) SelectActive() (string, bool) {
	c.mu.Lock()
	if c.destroyed || c.state.ActiveItemID == nil {
		c.mu.Unlock()
		return "", false
	}
	ref := *c.state.ActiveItemID
	c.mu.Unlock()

	return c.Select(ref)
}

// Select resolves ref to its source, derives the URL and hands it to OnNavigate
func (c *Controller) Select(ref domain.ItemRef) (string, bool) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return "", false
	}
	item, src, ok := c.state.Lookup(ref)
	if !ok {
		c.mu.Unlock()
		return "", false
	}

	url := src.URLOf(item)
	log.Printf("autocomplete %s: selected %s -> %s", c.opts.ID, ref, url)
	c.bus.Publish(eventbus.NavigationRequestedEvent{URL: url, Item: item, Ref: ref})

	if c.opts.CloseOnSelect {
		c.closeLocked()
	} else {
		c.setActiveLocked(&ref)
	}
	onNavigate := c.opts.OnNavigate
	c.mu.Unlock()

	if onNavigate != nil {
		onNavigate(url)
	}
	return url, true
}

// HandleKey applies the keyboard semantics shared by every input binding.
// It reports whether the key was consumed.
func (c *Controller) HandleKey(key Key) bool {
	snap := c.Snapshot()

	switch key {
	case KeyArrowDown:
		if !snap.IsOpen {
			c.Focus()
			return true
		}
		c.MoveActive(Next)
		return true
	case KeyArrowUp:
		if !snap.IsOpen {
			return false
		}
		c.MoveActive(Previous)
		return true
	case KeyPageDown:
		if !snap.IsOpen {
			return false
		}
		c.MoveActive(Last)
		return true
	case KeyPageUp:
		if !snap.IsOpen {
			return false
		}
		c.MoveActive(First)
		return true
	case KeyEnter:
		if snap.IsOpen && snap.ActiveItemID != nil {
			_, ok := c.SelectActive()
			return ok
		}
		c.Submit()
		return true
	case KeyEscape:
		if snap.IsOpen {
			c.Close()
			return true
		}
		if !snap.Query.IsEmpty() {
			c.Reset()
			return true
		}
		return false
	case KeyTab:
		if snap.Completion == "" || snap.Completion == string(snap.Query) {
			return false
		}
		c.Type(snap.Completion)
		return true
	}
	return false
}

// Destroy invalidates in-flight fetches and releases timers. Later completions are no-ops.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.state.Generation++
	c.dispatcher.stop()
	c.stopStallLocked()
	c.pending = nil
	c.cancel()
	ownsBus := c.ownsBus
	c.mu.Unlock()

	log.Printf("autocomplete %s: destroyed", c.opts.ID)
	if ownsBus {
		c.bus.Close()
	}
}

func (c *Controller) startGenerationLocked() {
	c.state.Generation++
	gen := c.state.Generation
	query := c.state.Query

	c.state.ActiveItemID = nil
	c.state.Completion = ""
	c.state.Faults = nil
	c.state.IsOpen = true
	c.state.Status = domain.StatusLoading
	c.phase = c.phase.next(triggerFetchStarted)

	c.pending = make(map[string]bool, c.registry.len())
	for _, id := range c.registry.ids() {
		c.pending[id] = true
	}
	c.failed = 0

	log.Printf("autocomplete %s: generation %d for %q across %d sources", c.opts.ID, gen, query, c.registry.len())
	c.bus.Publish(eventbus.GenerationStartedEvent{Generation: gen, Query: query, Sources: c.registry.ids()})

	if c.registry.len() == 0 {
		c.finishGenerationLocked()
		c.notifyLocked()
		return
	}

	c.startStallLocked(gen)
	c.dispatcher.start(gen, query, c.registry.sources, c.settle)
	c.notifyLocked()
}

// settle merges one fetch completion. Results of any other generation are dropped.
func (c *Controller) settle(res fetchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	if res.generation != c.state.Generation {
		log.Printf("autocomplete %s: %v: source %s generation %d (current %d)",
			c.opts.ID, domain.ErrStaleResult, res.sourceID, res.generation, c.state.Generation)
		c.bus.Publish(eventbus.StaleResultDiscardedEvent{
			SourceID:          res.sourceID,
			Generation:        res.generation,
			CurrentGeneration: c.state.Generation,
			Query:             res.query,
		})
		return
	}
	if !c.pending[res.sourceID] {
		return
	}
	delete(c.pending, res.sourceID)

	pos, ok := c.registry.position(res.sourceID)
	if !ok {
		return
	}

	if res.err != nil {
		fault := &domain.SourceFetchError{
			SourceID:   res.sourceID,
			Query:      res.query,
			Generation: res.generation,
			Err:        res.err,
		}
		log.Printf("autocomplete %s: %v", c.opts.ID, fault)
		if c.state.Faults == nil {
			c.state.Faults = make(map[string]error)
		}
		c.state.Faults[res.sourceID] = fault
		c.state.Collections[pos].Items = nil
		c.failed++
		c.bus.Publish(eventbus.SourceFailedEvent{Err: fault})
	} else {
		c.state.Collections[pos].Items = res.items
	}

	// The active item may have belonged to the collection that was just replaced
	if c.state.ActiveItemID != nil {
		if _, _, ok := c.state.Lookup(*c.state.ActiveItemID); !ok {
			c.state.ActiveItemID = nil
		}
	}
	c.state.Completion = completionFor(c.state)

	if len(c.pending) == 0 {
		c.finishGenerationLocked()
	}
	c.notifyLocked()
}

func (c *Controller) finishGenerationLocked() {
	c.stopStallLocked()
	if c.registry.len() > 0 && c.failed == c.registry.len() {
		c.phase = c.phase.next(triggerAllFailed)
		c.state.Status = domain.StatusError
		return
	}
	c.phase = c.phase.next(triggerSettled)
	c.state.Status = domain.StatusIdle
}

func (c *Controller) closeLocked() {
	if c.phase == phaseIdle && !c.state.IsOpen {
		return
	}
	c.invalidateLocked()
	c.notifyLocked()
}

// invalidateLocked bumps the generation so in-flight completions become stale, then closes
func (c *Controller) invalidateLocked() {
	c.state.Generation++
	c.dispatcher.stop()
	c.stopStallLocked()
	c.pending = nil
	c.failed = 0

	c.phase = c.phase.next(triggerClose)
	c.state.IsOpen = false
	c.state.ActiveItemID = nil
	c.state.Completion = ""
	c.state.Status = domain.StatusIdle
}

func (c *Controller) setActiveLocked(ref *domain.ItemRef) {
	if ref == nil && c.state.ActiveItemID == nil {
		return
	}
	if ref != nil && c.state.IsActive(*ref) {
		return
	}
	c.state.ActiveItemID = ref
	c.state.Completion = completionFor(c.state)
	c.notifyLocked()
}

func (c *Controller) startStallLocked(gen uint64) {
	c.stopStallLocked()
	if c.opts.StallThreshold < 0 {
		return
	}
	c.stallTimer = time.AfterFunc(c.opts.StallThreshold, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.destroyed || gen != c.state.Generation || c.phase != phaseLoading {
			return
		}
		log.Printf("autocomplete %s: generation %d stalled", c.opts.ID, gen)
		c.state.Status = domain.StatusStalled
		c.notifyLocked()
	})
}

func (c *Controller) stopStallLocked() {
	if c.stallTimer != nil {
		c.stallTimer.Stop()
		c.stallTimer = nil
	}
}

func (c *Controller) notifyLocked() {
	c.bus.Publish(eventbus.StateChangedEvent{State: c.state.Clone()})
}
