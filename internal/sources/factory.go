package sources

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"searchbox/internal/config"
	"searchbox/internal/domain"
)

// Set is the sources built from configuration, in configured order
type Set struct {
	Sources []domain.Source
	closers []func() error
}

// Close releases every source that holds resources
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds one source per entry. httpClient is used by remote sources and may be nil.
func FromConfig(cfgs []config.SourceConfig, httpClient *http.Client) (*Set, error) {
	set := &Set{}
	for _, sc := range cfgs {
		src, closer, err := build(sc, httpClient)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("failed to build source %q: %w", sc.ID, err)
		}
		if closer != nil {
			set.closers = append(set.closers, closer)
		}

		timeout, err := sc.TimeoutDuration()
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("invalid timeout for source %q: %w", sc.ID, err)
		}
		set.Sources = append(set.Sources, WithTimeout(src, timeout))
		log.Printf("Source %s (%s) ready", sc.ID, sc.Type)
	}
	return set, nil
}

func build(sc config.SourceConfig, httpClient *http.Client) (domain.Source, func() error, error) {
	opts := []Option{WithLimit(sc.HitsPerPage)}
	if sc.URLTemplate != "" {
		opts = append(opts, WithURLTemplate(sc.URLTemplate))
	}

	switch sc.Type {
	case config.SourceDemo:
		src, err := Demo(sc.ID, opts...)
		return src, nil, err

	case config.SourceStatic:
		if sc.Path == "" {
			return nil, nil, errors.New("static source needs a path")
		}
		src, err := LoadStatic(sc.ID, sc.Path, opts...)
		return src, nil, err

	case config.SourceSQLite:
		if sc.Path == "" {
			return nil, nil, errors.New("sqlite source needs a path")
		}
		src, err := OpenSQLite(sc.ID, sc.Path, opts...)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil

	case config.SourceAlgolia:
		a := sc.Algolia
		if a.AppID == "" || a.APIKey == "" || a.IndexName == "" {
			return nil, nil, errors.New("algolia source needs app_id, api_key and index_name")
		}
		if httpClient != nil {
			opts = append(opts, WithHTTPClient(httpClient))
		}
		if a.Host != "" {
			opts = append(opts, WithBaseURL(a.Host))
		}
		return NewAlgolia(sc.ID, a.AppID, a.APIKey, a.IndexName, opts...), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown source type %q", sc.Type)
}
