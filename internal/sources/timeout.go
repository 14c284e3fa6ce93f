package sources

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"searchbox/internal/domain"
)

// ErrTimeout is returned when a wrapped source does not finish in time
var ErrTimeout = errors.New("source timed out")

type timeoutSource struct {
	domain.Source
	timeout time.Duration
}

// WithTimeout bounds every fetch of src. The bound holds even when src ignores
// its context. A non-positive timeout returns src unchanged.
func WithTimeout(src domain.Source, timeout time.Duration) domain.Source {
	if timeout <= 0 {
		return src
	}
	return &timeoutSource{Source: src, timeout: timeout}
}

type fetched struct {
	item domain.Item
	err  error
}

func (s *timeoutSource) Fetch(ctx context.Context, query domain.Query) iter.Seq2[domain.Item, error] {
	return func(yield func(domain.Item, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		ch := make(chan fetched)
		go func() {
			defer close(ch)
			defer func() {
				if r := recover(); r != nil {
					select {
					case ch <- fetched{err: fmt.Errorf("source panicked: %v", r)}:
					case <-ctx.Done():
					}
				}
			}()
			for item, err := range s.Source.Fetch(ctx, query) {
				select {
				case ch <- fetched{item: item, err: err}:
				case <-ctx.Done():
					return
				}
				if err != nil {
					return
				}
			}
		}()

		for {
			select {
			case f, ok := <-ch:
				if !ok {
					return
				}
				if f.err != nil {
					yield(domain.Item{}, s.wrap(ctx, f.err))
					return
				}
				if !yield(f.item, nil) {
					return
				}
			case <-ctx.Done():
				yield(domain.Item{}, s.wrap(ctx, ctx.Err()))
				return
			}
		}
	}
}

func (s *timeoutSource) wrap(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
	}
	return err
}
