package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"searchbox/internal/domain"
	"searchbox/internal/eventbus"
)

// testSource answers every query through fetch and counts calls
type testSource struct {
	id    string
	fetch func(ctx context.Context, q domain.Query) ([]domain.Item, error)
	calls atomic.Int32
}

func (s *testSource) ID() string { return s.id }

func (s *testSource) Fetch(ctx context.Context, q domain.Query) iter.Seq2[domain.Item, error] {
	s.calls.Add(1)
	return func(yield func(domain.Item, error) bool) {
		items, err := s.fetch(ctx, q)
		if err != nil {
			yield(domain.Item{}, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (s *testSource) URLOf(item domain.Item) string {
	return "https://example.test/" + s.id + "/" + item.ObjectID
}

// itemsFor returns n items named after the query
func itemsFor(q domain.Query, n int) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		items[i] = domain.Item{
			ObjectID: fmt.Sprintf("%s-%d", q, i+1),
			Name:     fmt.Sprintf("%s item %d", q, i+1),
		}
	}
	return items
}

func instantSource(id string, n int) *testSource {
	return &testSource{id: id, fetch: func(_ context.Context, q domain.Query) ([]domain.Item, error) {
		return itemsFor(q, n), nil
	}}
}

func failingSource(id string) *testSource {
	return &testSource{id: id, fetch: func(context.Context, domain.Query) ([]domain.Item, error) {
		return nil, errors.New("backend unavailable")
	}}
}

// gate blocks fetches per query until released
type gate struct {
	mu    sync.Mutex
	chans map[domain.Query]chan struct{}
}

func newGate() *gate {
	return &gate{chans: make(map[domain.Query]chan struct{})}
}

func (g *gate) ch(q domain.Query) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.chans[q]
	if !ok {
		ch = make(chan struct{})
		g.chans[q] = ch
	}
	return ch
}

func (g *gate) release(q domain.Query) {
	close(g.ch(q))
}

// gatedSource waits for its gate. With ignoreCancel the fetch completes even after
// its context is cancelled, the way a backend that ignores cancellation behaves.
func gatedSource(id string, g *gate, ignoreCancel bool) *testSource {
	return &testSource{id: id, fetch: func(ctx context.Context, q domain.Query) ([]domain.Item, error) {
		if ignoreCancel {
			<-g.ch(q)
			return itemsFor(q, 2), nil
		}
		select {
		case <-g.ch(q):
			return itemsFor(q, 2), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
}

func newController(t *testing.T, mutate func(*Options), sources ...domain.Source) *Controller {
	t.Helper()
	opts := DefaultOptions()
	opts.ID = "sb"
	opts.Sources = sources
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return c
}

// waitSettled waits until every fetch of the current generation has settled
func waitSettled(t *testing.T, c *Controller) domain.State {
	t.Helper()
	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.Status == domain.StatusIdle || s.Status == domain.StatusError
	}, 2*time.Second, 5*time.Millisecond)
	return c.Snapshot()
}

// collect records every event of one type published on bus
type collector[T eventbus.DomainEvent] struct {
	mu     sync.Mutex
	events []T
}

func collect[T eventbus.DomainEvent](t *testing.T, bus eventbus.EventBus, eventType eventbus.EventType) *collector[T] {
	col := &collector[T]{}
	unsubscribe := bus.Subscribe(eventType, func(e eventbus.DomainEvent) {
		if ev, ok := e.(T); ok {
			col.mu.Lock()
			col.events = append(col.events, ev)
			col.mu.Unlock()
		}
	})
	t.Cleanup(unsubscribe)
	return col
}

func (c *collector[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.events))
	copy(out, c.events)
	return out
}

func (c *collector[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
