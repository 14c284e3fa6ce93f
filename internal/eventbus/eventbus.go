package eventbus

import (
	"log"
	"runtime/debug"
	"sync"

	"searchbox/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventStateChanged         = domain.EventStateChanged
	EventQueryChanged         = domain.EventQueryChanged
	EventGenerationStarted    = domain.EventGenerationStarted
	EventStaleResultDiscarded = domain.EventStaleResultDiscarded
	EventSourceFailed         = domain.EventSourceFailed
	EventNavigationRequested  = domain.EventNavigationRequested
	EventConfigLoaded         = domain.EventConfigLoaded
	EventConfigSaved          = domain.EventConfigSaved
)

// Re-export domain event types
type StateChangedEvent = domain.StateChangedEvent
type QueryChangedEvent = domain.QueryChangedEvent
type GenerationStartedEvent = domain.GenerationStartedEvent
type StaleResultDiscardedEvent = domain.StaleResultDiscardedEvent
type SourceFailedEvent = domain.SourceFailedEvent
type NavigationRequestedEvent = domain.NavigationRequestedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	// Subscribe returns an unsubscribe function; calling it more than once is harmless
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup

	// StateChanged is coalesced: only the newest snapshot waits here and is never dropped
	stateMu    sync.Mutex
	state      DomainEvent
	stateReady chan struct{}

	quit      chan struct{}
	closeOnce sync.Once
}

// New creates a new event bus
func New() EventBus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan:  make(chan DomainEvent, 1000),
		stateReady: make(chan struct{}, 1),
		quit:       make(chan struct{}),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	// Skip logging for high-frequency events
	switch event.Type() {
	case EventStateChanged, EventQueryChanged:
	default:
		log.Printf("EventBus: Publishing event %s", event.Type())
	}

	select {
	case <-b.quit:
		return
	default:
	}

	if event.Type() == EventStateChanged {
		b.stateMu.Lock()
		b.state = event
		b.stateMu.Unlock()
		select {
		case b.stateReady <- struct{}{}:
		default:
		}
		return
	}

	select {
	case b.eventChan <- event:
		// Event sent successfully
	default:
		// Channel full, log and drop
		log.Printf("Event bus channel full, dropping event: %v", event.Type())
	}
}

// Subscribe subscribes to events of a specific type
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				// Copy so an in-flight dispatch keeps its own slice
				next := make([]subscription, 0, len(subs)-1)
				next = append(next, subs[:i]...)
				b.handlers[eventType] = append(next, subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher. Pending events are discarded.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
	})
}

// dispatch delivers events one at a time in publication order. Only the newest
// pending snapshot is delivered.
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.fanOut(event)

		case <-b.stateReady:
			// Events queued before the snapshot go first
			for n := len(b.eventChan); n > 0; n-- {
				b.fanOut(<-b.eventChan)
			}
			b.stateMu.Lock()
			event := b.state
			b.state = nil
			b.stateMu.Unlock()
			if event != nil {
				b.fanOut(event)
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}

func (b *bus) fanOut(event DomainEvent) {
	b.mu.RLock()
	subs := b.handlers[event.Type()]
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s.handler, event)
	}
}

func (b *bus) deliver(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Event handler panic for %s: %v\nStack: %s", event.Type(), r, debug.Stack())
		}
	}()
	h(event)
}
