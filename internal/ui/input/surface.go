package input

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"searchbox/internal/bridge"
)

// Locator resolves a terminal cell to the element drawn there
type Locator func(x, y int) bridge.Target

type listener struct {
	id uint64
	fn bridge.Listener
}

// Surface turns bubbletea messages into bridge signals.
// Keys and focus changes always target the input line; a terminal has no other
// focusable element. Terminals have no touch input.
type Surface struct {
	keys   KeyMap
	input  bridge.Target
	locate Locator

	mu        sync.Mutex
	listeners map[bridge.SignalKind][]listener
	nextID    uint64
}

// NewSurface creates a surface whose keyboard focus sits on input
func NewSurface(keys KeyMap, input bridge.Target, locate Locator) *Surface {
	if locate == nil {
		locate = func(int, int) bridge.Target { return "" }
	}
	return &Surface{
		keys:      keys,
		input:     input,
		locate:    locate,
		listeners: make(map[bridge.SignalKind][]listener),
	}
}

// AddListener implements bridge.Surface
func (s *Surface) AddListener(kind bridge.SignalKind, fn bridge.Listener) (func(), error) {
	switch kind {
	case bridge.SignalTouchStart, bridge.SignalTouchMove:
		return nil, bridge.ErrUnsupportedSignal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[kind] = append(s.listeners[kind], listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(kind, id) })
	}, nil
}

func (s *Surface) remove(kind bridge.SignalKind, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.listeners[kind]
	kept := make([]listener, 0, len(current))
	for _, l := range current {
		if l.id != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		delete(s.listeners, kind)
		return
	}
	s.listeners[kind] = kept
}

// ListenerCount returns how many listeners are attached across all kinds
func (s *Surface) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, ls := range s.listeners {
		n += len(ls)
	}
	return n
}

// Signal translates msg, reporting false when msg is not an input signal
func (s *Surface) Signal(msg tea.Msg) (bridge.Signal, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		k, ok := s.keys.Translate(msg)
		if !ok {
			return bridge.Signal{}, false
		}
		return bridge.Signal{Kind: bridge.SignalKeyDown, Target: s.input, Key: k}, true
	case tea.FocusMsg:
		return bridge.Signal{Kind: bridge.SignalFocusIn, Target: s.input}, true
	case tea.BlurMsg:
		return bridge.Signal{Kind: bridge.SignalFocusOut, Target: s.input}, true
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return bridge.Signal{}, false
		}
		return bridge.Signal{Kind: bridge.SignalMouseDown, Target: s.locate(msg.X, msg.Y)}, true
	}
	return bridge.Signal{}, false
}

// Dispatch delivers msg to the listeners of its signal kind and reports whether
// any of them consumed it
func (s *Surface) Dispatch(msg tea.Msg) bool {
	sig, ok := s.Signal(msg)
	if !ok {
		return false
	}

	s.mu.Lock()
	ls := make([]listener, len(s.listeners[sig.Kind]))
	copy(ls, s.listeners[sig.Kind])
	s.mu.Unlock()

	consumed := false
	for _, l := range ls {
		if l.fn(sig) {
			consumed = true
		}
	}
	return consumed
}
