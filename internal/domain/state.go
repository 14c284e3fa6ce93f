package domain

import (
	"maps"
	"slices"
)

// Status is the fetch status exposed to renderers
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusStalled Status = "stalled" // still loading past the stall threshold
	StatusError   Status = "error"   // every source of the current generation failed
)

// State is the interaction state a renderer draws from.
// Values handed out by the controller are deep copies and safe to keep.
type State struct {
	Query        Query
	IsOpen       bool
	ActiveItemID *ItemRef // nil when no item is highlighted
	Status       Status
	Collections  []Collection // registration order
	Completion   string       // name of the active item, "" when none
	Generation   uint64
	Faults       map[string]error // source id -> fault of the current generation
}

// Clone returns a copy of the state that shares nothing mutable with it,
// except the values held in Item.Extra and the sources themselves
func (s State) Clone() State {
	out := s
	if s.ActiveItemID != nil {
		ref := *s.ActiveItemID
		out.ActiveItemID = &ref
	}
	out.Collections = make([]Collection, len(s.Collections))
	for i, c := range s.Collections {
		items := make([]Item, len(c.Items))
		for j, item := range c.Items {
			items[j] = item.clone()
		}
		out.Collections[i] = Collection{Source: c.Source, Items: items}
	}
	if s.Faults != nil {
		out.Faults = make(map[string]error, len(s.Faults))
		for id, err := range s.Faults {
			out.Faults[id] = err
		}
	}
	return out
}

// Items returns every item in collection order, flattened
func (s State) Items() []ItemRef {
	var refs []ItemRef
	for _, c := range s.Collections {
		for _, item := range c.Items {
			refs = append(refs, ItemRef{SourceID: c.SourceID(), ObjectID: item.ObjectID})
		}
	}
	return refs
}

// Lookup resolves a reference to its item and source
func (s State) Lookup(ref ItemRef) (Item, Source, bool) {
	for _, c := range s.Collections {
		if c.SourceID() != ref.SourceID {
			continue
		}
		for _, item := range c.Items {
			if item.ObjectID == ref.ObjectID {
				return item, c.Source, true
			}
		}
	}
	return Item{}, nil, false
}

// IsActive reports whether ref is the highlighted item
func (s State) IsActive(ref ItemRef) bool {
	return s.ActiveItemID != nil && *s.ActiveItemID == ref
}

// TotalItems counts items across all collections
func (s State) TotalItems() int {
	n := 0
	for _, c := range s.Collections {
		n += len(c.Items)
	}
	return n
}

func (i Item) clone() Item {
	i.Categories = slices.Clone(i.Categories)
	i.Extra = maps.Clone(i.Extra)
	return i
}
