package sources

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"iter"
	"os"

	"searchbox/internal/domain"
)

//go:embed catalog.json
var demoCatalog embed.FS

// catalogItem is the JSON shape of catalog files, named like hosted index records
type catalogItem struct {
	ObjectID   string   `json:"objectID"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	Categories []string `json:"categories"`
	Image      string   `json:"image"`
	URL        string   `json:"url"`
}

func (c catalogItem) item() domain.Item {
	return domain.Item{
		ObjectID:   c.ObjectID,
		Name:       c.Name,
		Brand:      c.Brand,
		Categories: c.Categories,
		Image:      c.Image,
		URL:        c.URL,
	}
}

// Static searches an in-memory catalog by substring
type Static struct {
	id    string
	items []domain.Item
	settings
}

// NewStatic creates a source over items, kept in the given order
func NewStatic(id string, items []domain.Item, opts ...Option) *Static {
	cp := make([]domain.Item, len(items))
	copy(cp, items)
	return &Static{id: id, items: cp, settings: newSettings(opts)}
}

// LoadStatic reads a JSON array of catalog records
func LoadStatic(id, path string, opts ...Option) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	items, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return NewStatic(id, items, opts...), nil
}

// Demo returns the catalog bundled with the binary
func Demo(id string, opts ...Option) (*Static, error) {
	data, err := demoCatalog.ReadFile("catalog.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read demo catalog: %w", err)
	}
	items, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse demo catalog: %w", err)
	}
	return NewStatic(id, items, opts...), nil
}

func parseCatalog(data []byte) ([]domain.Item, error) {
	var records []catalogItem
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	items := make([]domain.Item, len(records))
	for i, r := range records {
		items[i] = r.item()
	}
	return items, nil
}

func (s *Static) ID() string { return s.id }

// Fetch yields matching items lazily, in catalog order
func (s *Static) Fetch(ctx context.Context, query domain.Query) iter.Seq2[domain.Item, error] {
	return func(yield func(domain.Item, error) bool) {
		n := 0
		for _, item := range s.items {
			if err := ctx.Err(); err != nil {
				yield(domain.Item{}, err)
				return
			}
			if !matches(item, query) {
				continue
			}
			item.Highlighted = highlight(item.Name, query)
			if !yield(item, nil) {
				return
			}
			n++
			if n >= s.limit {
				return
			}
		}
	}
}

func (s *Static) URLOf(item domain.Item) string {
	return s.urlOf(item)
}

// Len returns the catalog size
func (s *Static) Len() int {
	return len(s.items)
}

// Items returns a copy of the catalog
func (s *Static) Items() []domain.Item {
	cp := make([]domain.Item, len(s.items))
	copy(cp, s.items)
	return cp
}
