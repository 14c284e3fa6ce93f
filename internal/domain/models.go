package domain

import (
	"context"
	"iter"
)

// Query is the text a fetch cycle was started for
type Query string

// IsEmpty reports whether the query has no characters at all
func (q Query) IsEmpty() bool {
	return q == ""
}

// Item is a single search result. Only ObjectID is interpreted by the controller;
// everything else is passed through to the renderer.
type Item struct {
	ObjectID    string
	Name        string
	Highlighted string // escaped Name markup with <mark>...</mark> around matched parts, if the source provides it
	Brand       string
	Categories  []string
	Image       string
	URL         string
	Extra       map[string]any
}

// Category returns the first category or "" if there is none
func (i Item) Category() string {
	if len(i.Categories) == 0 {
		return ""
	}
	return i.Categories[0]
}

// Source provides results for a query
type Source interface {
	// ID names the source; unique within a controller
	ID() string

	// Fetch lazily yields the items for query. Iteration stops early when ctx is cancelled.
	// A non-nil error ends the sequence.
	Fetch(ctx context.Context, query Query) iter.Seq2[Item, error]

	// URLOf derives the navigable URL for an item of this source
	URLOf(item Item) string
}

// ItemRef identifies an item across all collections
type ItemRef struct {
	SourceID string
	ObjectID string
}

// String returns "source/object"
func (r ItemRef) String() string {
	return r.SourceID + "/" + r.ObjectID
}

// Collection is the set of items one source returned for the current query
type Collection struct {
	Source Source
	Items  []Item
}

// SourceID returns the id of the collection's source
func (c Collection) SourceID() string {
	if c.Source == nil {
		return ""
	}
	return c.Source.ID()
}

// Sequence adapts an already materialised result to the lazy Source.Fetch shape
func Sequence(items []Item, err error) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		if err != nil {
			yield(Item{}, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
