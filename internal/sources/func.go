package sources

import (
	"context"
	"iter"

	"searchbox/internal/domain"
)

// FetchFunc returns every item for a query at once
type FetchFunc func(ctx context.Context, query domain.Query) ([]domain.Item, error)

// Func adapts a plain function to a source
type Func struct {
	id    string
	fetch FetchFunc
	settings
}

// NewFunc creates a source that calls fetch for every query
func NewFunc(id string, fetch FetchFunc, opts ...Option) *Func {
	return &Func{id: id, fetch: fetch, settings: newSettings(opts)}
}

func (f *Func) ID() string { return f.id }

func (f *Func) Fetch(ctx context.Context, query domain.Query) iter.Seq2[domain.Item, error] {
	return func(yield func(domain.Item, error) bool) {
		domain.Sequence(f.fetch(ctx, query))(yield)
	}
}

func (f *Func) URLOf(item domain.Item) string {
	return f.urlOf(item)
}
