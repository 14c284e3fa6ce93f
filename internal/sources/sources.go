// Package sources provides result sources for the autocomplete controller:
// in-memory and embedded catalogs, a SQLite catalog and a hosted search index.
package sources

import (
	"html"
	"net/http"
	"strings"
	"unicode/utf8"

	"searchbox/internal/domain"
)

// DefaultLimit matches the hits per page of the hosted index
const DefaultLimit = 5

const (
	highlightPreTag  = "<mark>"
	highlightPostTag = "</mark>"
)

type settings struct {
	limit       int
	urlTemplate string
	httpClient  *http.Client
	baseURL     string
}

// Option configures a source
type Option func(*settings)

// WithLimit caps the number of items per query
func WithLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithURLTemplate derives item URLs from template, replacing {id} with the object id.
// Without a template the item's own URL is used.
func WithURLTemplate(template string) Option {
	return func(s *settings) {
		s.urlTemplate = template
	}
}

// WithHTTPClient sets the client used by remote sources
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// WithBaseURL points a remote source at a different host
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		limit:      DefaultLimit,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) urlOf(item domain.Item) string {
	if s.urlTemplate == "" {
		return item.URL
	}
	return strings.ReplaceAll(s.urlTemplate, "{id}", item.ObjectID)
}

// matches reports whether the query occurs in the item's name, brand or categories
func matches(item domain.Item, query domain.Query) bool {
	if query.IsEmpty() {
		return true
	}
	q := strings.ToLower(string(query))
	if strings.Contains(strings.ToLower(item.Name), q) || strings.Contains(strings.ToLower(item.Brand), q) {
		return true
	}
	for _, c := range item.Categories {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

// highlight wraps the first occurrence of query in name with mark tags.
// The result is escaped markup, like the hosted index returns.
func highlight(name string, query domain.Query) string {
	if query.IsEmpty() {
		return html.EscapeString(name)
	}
	lower := strings.ToLower(name)
	q := strings.ToLower(string(query))
	// Case folding changed byte offsets, positions would not line up
	if len(lower) != len(name) || len(q) != len(query) {
		return html.EscapeString(name)
	}
	i := strings.Index(lower, q)
	if i < 0 {
		return html.EscapeString(name)
	}
	j := i + len(q)
	if j > len(name) || !utf8.ValidString(name[i:j]) {
		return html.EscapeString(name)
	}
	return html.EscapeString(name[:i]) + highlightPreTag + html.EscapeString(name[i:j]) + highlightPostTag + html.EscapeString(name[j:])
}
