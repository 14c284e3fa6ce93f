package autocomplete

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"searchbox/internal/domain"
)

// fetchResult is one settled fetch, stamped with the generation it was started for
type fetchResult struct {
	sourceID   string
	generation uint64
	query      domain.Query
	items      []domain.Item
	err        error
}

// dispatcher fans a query out to every source. It does not decide whether a result
// is current; the controller compares generations when a result is delivered.
type dispatcher struct {
	base   context.Context
	tracer trace.Tracer
	limit  int
	cancel context.CancelFunc
}

func newDispatcher(base context.Context, tracer trace.Tracer, limit int) *dispatcher {
	return &dispatcher{base: base, tracer: tracer, limit: limit}
}

// start cancels the previous generation and launches one fetch per source.
// deliver is called once per source from a worker goroutine.
func (d *dispatcher) start(generation uint64, query domain.Query, sources []domain.Source, deliver func(fetchResult)) {
	d.stop()

	ctx, cancel := context.WithCancel(d.base)
	d.cancel = cancel

	go func() {
		defer cancel()

		var g errgroup.Group
		if d.limit > 0 {
			g.SetLimit(d.limit)
		}
		for _, src := range sources {
			g.Go(func() error {
				items, err := d.fetch(ctx, src, generation, query)
				deliver(fetchResult{
					sourceID:   src.ID(),
					generation: generation,
					query:      query,
					items:      items,
					err:        err,
				})
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// stop cancels whatever generation is in flight
func (d *dispatcher) stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *dispatcher) fetch(ctx context.Context, src domain.Source, generation uint64, query domain.Query) (items []domain.Item, err error) {
	ctx, span := d.tracer.Start(ctx, "autocomplete.fetch", trace.WithAttributes(
		attribute.String("source.id", src.ID()),
		attribute.String("query", string(query)),
		attribute.Int64("generation", int64(generation)),
	))
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("source panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("items", len(items)))
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for item, ferr := range src.Fetch(ctx, query) {
		if ferr != nil {
			return nil, ferr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Items without an id cannot be referenced, and ids must be unique per source
		if item.ObjectID == "" {
			continue
		}
		if _, dup := seen[item.ObjectID]; dup {
			continue
		}
		seen[item.ObjectID] = struct{}{}
		items = append(items, item)
	}
	return items, nil
}
