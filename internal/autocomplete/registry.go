package autocomplete

import (
	"fmt"

	"searchbox/internal/domain"
)

// registry holds the sources of one controller. It never changes after construction.
type registry struct {
	sources []domain.Source
	index   map[string]int
}

func newRegistry(sources []domain.Source) (*registry, error) {
	r := &registry{
		sources: make([]domain.Source, 0, len(sources)),
		index:   make(map[string]int, len(sources)),
	}
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("source %d is nil", i)
		}
		id := src.ID()
		if id == "" {
			return nil, fmt.Errorf("source %d has an empty id", i)
		}
		if _, dup := r.index[id]; dup {
			return nil, fmt.Errorf("duplicate source id %q", id)
		}
		r.index[id] = len(r.sources)
		r.sources = append(r.sources, src)
	}
	return r, nil
}

func (r *registry) len() int {
	return len(r.sources)
}

func (r *registry) ids() []string {
	ids := make([]string, len(r.sources))
	for i, src := range r.sources {
		ids[i] = src.ID()
	}
	return ids
}

// position returns the registration index of a source id
func (r *registry) position(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// emptyCollections returns one empty collection per source in registration order
func (r *registry) emptyCollections() []domain.Collection {
	cols := make([]domain.Collection, len(r.sources))
	for i, src := range r.sources {
		cols[i] = domain.Collection{Source: src}
	}
	return cols
}
