package autocomplete

import (
	"log"

	"searchbox/internal/domain"
)

// phase is the coarse interaction phase. Error is advisory and never blocks input.
type phase int

const (
	phaseIdle phase = iota // panel closed
	phaseOpen
	phaseLoading
	phaseError
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseOpen:
		return "open"
	case phaseLoading:
		return "loading"
	case phaseError:
		return "error"
	}
	return "unknown"
}

type trigger int

const (
	triggerFetchStarted trigger = iota
	triggerSettled              // last outstanding fetch settled, at least one succeeded
	triggerAllFailed            // last outstanding fetch settled, every source failed
	triggerClose
)

func (t trigger) String() string {
	switch t {
	case triggerFetchStarted:
		return "fetch-started"
	case triggerSettled:
		return "settled"
	case triggerAllFailed:
		return "all-failed"
	case triggerClose:
		return "close"
	}
	return "unknown"
}

var transitions = map[phase]map[trigger]phase{
	phaseIdle: {
		triggerFetchStarted: phaseLoading,
		triggerClose:        phaseIdle,
	},
	phaseOpen: {
		triggerFetchStarted: phaseLoading,
		triggerClose:        phaseIdle,
	},
	phaseLoading: {
		triggerFetchStarted: phaseLoading,
		triggerSettled:      phaseOpen,
		triggerAllFailed:    phaseError,
		triggerClose:        phaseIdle,
	},
	phaseError: {
		triggerFetchStarted: phaseLoading,
		triggerClose:        phaseIdle,
	},
}

// next returns the phase reached from p on t. Undefined transitions keep p.
func (p phase) next(t trigger) phase {
	if to, ok := transitions[p][t]; ok {
		return to
	}
	log.Printf("autocomplete: ignoring %s in phase %s", t, p)
	return p
}

// Direction selects how MoveActive walks the flattened result list
type Direction int

const (
	Next Direction = iota
	Previous
	First
	Last
)

// moveActive returns the ref reached from active by walking refs in dir.
// A nil active counts as sitting just before the first item for Next and just after the last for Previous.
func moveActive(refs []domain.ItemRef, active *domain.ItemRef, dir Direction, wrap bool) *domain.ItemRef {
	n := len(refs)
	if n == 0 {
		return nil
	}

	current := -1
	if active != nil {
		for i, ref := range refs {
			if ref == *active {
				current = i
				break
			}
		}
	}

	var target int
	switch dir {
	case First:
		target = 0
	case Last:
		target = n - 1
	case Next:
		if current < 0 {
			target = 0
		} else if current+1 < n {
			target = current + 1
		} else if wrap {
			target = 0
		} else {
			target = n - 1
		}
	case Previous:
		if current < 0 {
			target = n - 1
		} else if current > 0 {
			target = current - 1
		} else if wrap {
			target = n - 1
		} else {
			target = 0
		}
	default:
		return active
	}

	ref := refs[target]
	return &ref
}

// completionFor returns the inline completion for the active item
func completionFor(state domain.State) string {
	if state.ActiveItemID == nil {
		return ""
	}
	item, _, ok := state.Lookup(*state.ActiveItemID)
	if !ok {
		return ""
	}
	return item.Name
}
