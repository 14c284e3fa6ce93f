package bridge

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchbox/internal/autocomplete"
	"searchbox/internal/domain"
)

// fakeSurface records listeners and lets tests emit signals
type fakeSurface struct {
	mu          sync.Mutex
	listeners   map[SignalKind]map[int]Listener
	nextID      int
	failOn      SignalKind
	unsupported map[SignalKind]bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{listeners: make(map[SignalKind]map[int]Listener)}
}

func (s *fakeSurface) AddListener(kind SignalKind, fn Listener) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == s.failOn {
		return nil, errors.New("surface rejected listener")
	}
	if s.unsupported[kind] {
		return nil, ErrUnsupportedSignal
	}
	if s.listeners[kind] == nil {
		s.listeners[kind] = make(map[int]Listener)
	}
	s.nextID++
	id := s.nextID
	s.listeners[kind][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[kind], id)
	}, nil
}

func (s *fakeSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ls := range s.listeners {
		n += len(ls)
	}
	return n
}

func (s *fakeSurface) emit(sig Signal) bool {
	s.mu.Lock()
	var fns []Listener
	for _, fn := range s.listeners[sig.Kind] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	handled := false
	for _, fn := range fns {
		if fn(sig) {
			handled = true
		}
	}
	return handled
}

type catalog struct{}

func (catalog) ID() string { return "products" }

func (catalog) Fetch(_ context.Context, q domain.Query) iter.Seq2[domain.Item, error] {
	return domain.Sequence([]domain.Item{
		{ObjectID: "1", Name: string(q) + " one"},
		{ObjectID: "2", Name: string(q) + " two"},
	}, nil)
}

func (catalog) URLOf(item domain.Item) string { return "/p/" + item.ObjectID }

var elements = Elements{Form: "form", Input: "form/input", Panel: "panel"}

func newTestController(t *testing.T) *autocomplete.Controller {
	t.Helper()
	opts := autocomplete.DefaultOptions()
	opts.Sources = []domain.Source{catalog{}}
	c, err := autocomplete.New(opts)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return c
}

func waitOpen(t *testing.T, c *autocomplete.Controller) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.IsOpen && s.Status == domain.StatusIdle
	}, time.Second, 5*time.Millisecond)
}

func TestAttachIsIdempotent(t *testing.T) {
	surface := newFakeSurface()
	b := New(newTestController(t))

	require.NoError(t, b.Attach(surface, elements))
	n := surface.count()
	assert.Equal(t, len(AllSignals), n)

	require.NoError(t, b.Attach(surface, elements))
	assert.Equal(t, n, surface.count())
	assert.True(t, b.Attached())
}

func TestDetachLeavesNoListeners(t *testing.T) {
	surface := newFakeSurface()
	b := New(newTestController(t))

	require.NoError(t, b.Attach(surface, elements))
	b.Detach()
	assert.Zero(t, surface.count())
	assert.False(t, b.Attached())

	b.Detach()
	require.NoError(t, b.Attach(surface, elements))
	assert.Equal(t, len(AllSignals), surface.count())
}

func TestAttachFailureReleasesAcquiredListeners(t *testing.T) {
	surface := newFakeSurface()
	surface.failOn = SignalMouseDown
	b := New(newTestController(t))

	err := b.Attach(surface, elements)
	var attachErr *domain.ListenerAttachmentError
	require.ErrorAs(t, err, &attachErr)
	assert.Equal(t, string(SignalMouseDown), attachErr.Surface)
	assert.Zero(t, surface.count())
	assert.False(t, b.Attached())
}

func TestAttachSkipsUnsupportedSignals(t *testing.T) {
	surface := newFakeSurface()
	surface.unsupported = map[SignalKind]bool{SignalTouchStart: true, SignalTouchMove: true}
	b := New(newTestController(t))

	require.NoError(t, b.Attach(surface, elements))
	assert.Equal(t, len(AllSignals)-2, surface.count())
}

func TestAttachToDestroyedController(t *testing.T) {
	c := newTestController(t)
	c.Destroy()

	err := New(c).Attach(newFakeSurface(), elements)
	require.ErrorIs(t, err, domain.ErrDestroyed)
}

func TestAttachRequiresInput(t *testing.T) {
	err := New(newTestController(t)).Attach(newFakeSurface(), Elements{Panel: "panel"})
	var attachErr *domain.ListenerAttachmentError
	require.ErrorAs(t, err, &attachErr)
}

func TestOutsideMouseDownCloses(t *testing.T) {
	surface := newFakeSurface()
	c := newTestController(t)
	require.NoError(t, New(c).Attach(surface, elements))

	c.Type("boot")
	waitOpen(t, c)

	// Clicks inside the panel keep it open
	assert.False(t, surface.emit(Signal{Kind: SignalMouseDown, Target: "panel/products/1"}))
	assert.True(t, c.Snapshot().IsOpen)

	assert.True(t, surface.emit(Signal{Kind: SignalMouseDown, Target: "status"}))
	assert.False(t, c.Snapshot().IsOpen)
}

func TestTouchMoveOutsidePanelCloses(t *testing.T) {
	surface := newFakeSurface()
	c := newTestController(t)
	require.NoError(t, New(c).Attach(surface, elements))

	c.Type("boot")
	waitOpen(t, c)

	surface.emit(Signal{Kind: SignalTouchMove, Target: "panel/products/2"})
	assert.True(t, c.Snapshot().IsOpen)

	surface.emit(Signal{Kind: SignalTouchMove, Target: "form/input"})
	assert.False(t, c.Snapshot().IsOpen)
}

func TestKeysAndFocusDriveController(t *testing.T) {
	surface := newFakeSurface()
	c := newTestController(t)
	require.NoError(t, New(c).Attach(surface, elements))

	c.Type("boot")
	waitOpen(t, c)

	assert.True(t, surface.emit(Signal{Kind: SignalKeyDown, Target: "form/input", Key: autocomplete.KeyArrowDown}))
	require.NotNil(t, c.Snapshot().ActiveItemID)
	assert.Equal(t, "1", c.Snapshot().ActiveItemID.ObjectID)

	// Keys aimed elsewhere are ignored
	assert.False(t, surface.emit(Signal{Kind: SignalKeyDown, Target: "status", Key: autocomplete.KeyArrowDown}))
	assert.Equal(t, "1", c.Snapshot().ActiveItemID.ObjectID)

	surface.emit(Signal{Kind: SignalFocusOut})
	assert.False(t, c.Snapshot().IsOpen)

	surface.emit(Signal{Kind: SignalFocusIn, Target: "form/input"})
	assert.True(t, c.Snapshot().IsOpen)
}

func TestDetachedBridgeIgnoresSignals(t *testing.T) {
	surface := newFakeSurface()
	c := newTestController(t)
	b := New(c)
	require.NoError(t, b.Attach(surface, elements))

	// A listener captured before detach must not drive the controller afterwards
	surface.mu.Lock()
	var captured Listener
	for _, fn := range surface.listeners[SignalFocusIn] {
		captured = fn
	}
	surface.mu.Unlock()

	c.Type("boot")
	waitOpen(t, c)
	b.Detach()

	assert.False(t, captured(Signal{Kind: SignalFocusOut}))
	assert.True(t, c.Snapshot().IsOpen)
}

func TestTargetWithin(t *testing.T) {
	assert.True(t, Target("panel").Within("panel"))
	assert.True(t, Target("panel/products/1").Within("panel"))
	assert.False(t, Target("panelx").Within("panel"))
	assert.False(t, Target("panel").Within(""))
	assert.True(t, elements.Contains("form/input"))
	assert.False(t, elements.Contains("help"))
}
