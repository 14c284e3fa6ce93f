package bridge

import (
	"errors"
	"strings"

	"searchbox/internal/autocomplete"
)

// SignalKind is a low-level input signal a surface can deliver
type SignalKind string

const (
	SignalFocusIn    SignalKind = "focusin"
	SignalFocusOut   SignalKind = "focusout"
	SignalKeyDown    SignalKind = "keydown"
	SignalMouseDown  SignalKind = "mousedown"
	SignalTouchStart SignalKind = "touchstart"
	SignalTouchMove  SignalKind = "touchmove"
)

// AllSignals lists every signal the bridge listens for, in attach order
var AllSignals = []SignalKind{
	SignalFocusIn,
	SignalFocusOut,
	SignalKeyDown,
	SignalMouseDown,
	SignalTouchStart,
	SignalTouchMove,
}

// ErrUnsupportedSignal is returned by surfaces that can never produce a signal kind.
// The bridge skips such kinds instead of failing.
var ErrUnsupportedSignal = errors.New("signal not supported by surface")

// Target identifies the element a signal happened on, as a slash separated path
// from the surface root, e.g. "panel/products/42". Empty means nowhere in particular.
type Target string

// Within reports whether t is parent or one of its descendants
func (t Target) Within(parent Target) bool {
	if parent == "" {
		return false
	}
	return t == parent || strings.HasPrefix(string(t), string(parent)+"/")
}

// Signal is one input event
type Signal struct {
	Kind   SignalKind
	Target Target
	Key    autocomplete.Key // only for SignalKeyDown
}

// Listener handles a signal and reports whether it was consumed
type Listener func(Signal) bool

// Surface is an environment that produces signals: a terminal program, a test double.
type Surface interface {
	// AddListener subscribes fn to kind. The returned function removes the listener.
	AddListener(kind SignalKind, fn Listener) (remove func(), err error)
}

// Elements are the parts of the search box living on a surface
type Elements struct {
	Form  Target
	Input Target
	Panel Target
}

// Contains reports whether t is inside the search box
func (e Elements) Contains(t Target) bool {
	return t.Within(e.Form) || t.Within(e.Input) || t.Within(e.Panel)
}
