package bridge

import (
	"errors"
	"log"
	"sync"

	"searchbox/internal/autocomplete"
	"searchbox/internal/domain"
)

// Controller is the part of the autocomplete controller the bridge drives
type Controller interface {
	Snapshot() domain.State
	Focus()
	Blur()
	HandleKey(key autocomplete.Key) bool
	Destroyed() bool
}

// Bridge translates surface signals into controller transitions.
// It holds listeners only between Attach and Detach.
type Bridge struct {
	controller Controller

	mu       sync.Mutex
	elements Elements
	removers []func()
	attached bool
}

// New creates a detached bridge for controller
func New(controller Controller) *Bridge {
	return &Bridge{controller: controller}
}

// Attach subscribes to every signal the surface supports. Attaching an attached
// bridge is a no-op. On failure every listener acquired so far is released and a
// *domain.ListenerAttachmentError is returned.
func (b *Bridge) Attach(surface Surface, elements Elements) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return nil
	}
	if b.controller.Destroyed() {
		return &domain.ListenerAttachmentError{Surface: "controller", Err: domain.ErrDestroyed}
	}
	if surface == nil {
		return &domain.ListenerAttachmentError{Surface: "surface", Err: errors.New("surface is nil")}
	}
	if elements.Input == "" {
		return &domain.ListenerAttachmentError{Surface: "input", Err: errors.New("input element is required")}
	}

	b.elements = elements
	for _, kind := range AllSignals {
		remove, err := surface.AddListener(kind, b.handle)
		if errors.Is(err, ErrUnsupportedSignal) {
			continue
		}
		if err != nil {
			b.releaseLocked()
			return &domain.ListenerAttachmentError{Surface: string(kind), Err: err}
		}
		if remove == nil {
			b.releaseLocked()
			return &domain.ListenerAttachmentError{Surface: string(kind), Err: errors.New("surface returned no remover")}
		}
		b.removers = append(b.removers, remove)
	}

	b.attached = true
	log.Printf("bridge: attached %d listeners", len(b.removers))
	return nil
}

// Detach removes every listener. Detaching a detached bridge is a no-op.
func (b *Bridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return
	}
	n := len(b.removers)
	b.releaseLocked()
	b.attached = false
	log.Printf("bridge: detached %d listeners", n)
}

// Attached reports whether listeners are held
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attached
}

func (b *Bridge) releaseLocked() {
	for i := len(b.removers) - 1; i >= 0; i-- {
		b.removers[i]()
	}
	b.removers = nil
}

func (b *Bridge) handle(sig Signal) bool {
	b.mu.Lock()
	elements := b.elements
	attached := b.attached
	b.mu.Unlock()

	if !attached || b.controller.Destroyed() {
		return false
	}

	switch sig.Kind {
	case SignalFocusIn:
		if sig.Target == "" || sig.Target.Within(elements.Input) {
			b.controller.Focus()
			return true
		}
	case SignalFocusOut:
		b.controller.Blur()
		return true
	case SignalKeyDown:
		if sig.Target == "" || sig.Target.Within(elements.Input) {
			return b.controller.HandleKey(sig.Key)
		}
	case SignalMouseDown, SignalTouchStart:
		if sig.Target.Within(elements.Input) {
			b.controller.Focus()
			return false
		}
		if !elements.Contains(sig.Target) && b.controller.Snapshot().IsOpen {
			b.controller.Blur()
			return true
		}
	case SignalTouchMove:
		// Scrolling anywhere but the panel dismisses it
		if !sig.Target.Within(elements.Panel) && b.controller.Snapshot().IsOpen {
			b.controller.Blur()
			return true
		}
	}
	return false
}
