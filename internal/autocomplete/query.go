package autocomplete

import "searchbox/internal/domain"

// tracker derives the current query from raw input. Input passes through untouched,
// whitespace included.
type tracker struct {
	current domain.Query
}

// set records raw as the current query and reports the previous one
func (t *tracker) set(raw string) (next, prev domain.Query, changed bool) {
	prev = t.current
	next = domain.Query(raw)
	t.current = next
	return next, prev, next != prev
}
