package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"searchbox/internal/domain"
)

// Algolia queries a hosted search index over its REST API
type Algolia struct {
	id        string
	appID     string
	apiKey    string
	indexName string
	settings
	policy *bluemonday.Policy
}

// NewAlgolia creates a source for indexName. The host defaults to https://{appID}-dsn.algolia.net.
func NewAlgolia(id, appID, apiKey, indexName string, opts ...Option) *Algolia {
	a := &Algolia{
		id:        id,
		appID:     appID,
		apiKey:    apiKey,
		indexName: indexName,
		settings:  newSettings(opts),
	}
	if a.baseURL == "" {
		a.baseURL = "https://" + appID + "-dsn.algolia.net"
	}

	// Highlight values are markup; keep only the highlight tags
	a.policy = bluemonday.NewPolicy()
	a.policy.AllowElements("mark")
	return a
}

type algoliaHit struct {
	catalogItem
	HighlightResult struct {
		Name struct {
			Value string `json:"value"`
		} `json:"name"`
	} `json:"_highlightResult"`
}

type algoliaResponse struct {
	Hits   []algoliaHit `json:"hits"`
	NbHits int          `json:"nbHits"`
}

type algoliaError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (a *Algolia) ID() string { return a.id }

func (a *Algolia) Fetch(ctx context.Context, query domain.Query) iter.Seq2[domain.Item, error] {
	return func(yield func(domain.Item, error) bool) {
		domain.Sequence(a.search(ctx, query))(yield)
	}
}

func (a *Algolia) URLOf(item domain.Item) string {
	return a.urlOf(item)
}

func (a *Algolia) search(ctx context.Context, query domain.Query) ([]domain.Item, error) {
	params := url.Values{}
	params.Set("query", string(query))
	params.Set("hitsPerPage", strconv.Itoa(a.limit))
	params.Set("highlightPreTag", highlightPreTag)
	params.Set("highlightPostTag", highlightPostTag)
	endpoint := a.baseURL + "/1/indexes/" + url.PathEscape(a.indexName) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Algolia-Application-Id", a.appID)
	req.Header.Set("X-Algolia-API-Key", a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr algoliaError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("index error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("index error (status %d): %s", resp.StatusCode, string(body))
	}

	var result algoliaResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	items := make([]domain.Item, 0, len(result.Hits))
	for _, hit := range result.Hits {
		item := hit.item()
		item.Highlighted = a.policy.Sanitize(hit.HighlightResult.Name.Value)
		if item.Highlighted == "" {
			item.Highlighted = html.EscapeString(item.Name)
		}
		items = append(items, item)
	}
	return items, nil
}
