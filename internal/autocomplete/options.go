package autocomplete

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"searchbox/internal/domain"
	"searchbox/internal/eventbus"
)

const (
	DefaultStallThreshold = 300 * time.Millisecond
	tracerName            = "searchbox/autocomplete"
)

// Options configures a Controller. Start from DefaultOptions and override fields.
type Options struct {
	// ID prefixes every binding id. Generated when empty.
	ID string

	// Sources are queried in this order, which is also the order collections render in
	Sources []domain.Source

	Placeholder    string
	OpenOnFocus    bool
	WrapNavigation bool
	CloseOnSelect  bool

	// StallThreshold is how long a generation may load before status becomes stalled.
	// Zero means DefaultStallThreshold, negative disables the stalled status.
	StallThreshold time.Duration

	// MaxConcurrentFetches bounds in-flight fetches per generation, 0 means no bound
	MaxConcurrentFetches int

	// OnNavigate receives the URL of a selected item. The controller never navigates itself.
	OnNavigate func(url string)

	// Bus receives state snapshots and domain events. A private bus is created when nil.
	Bus eventbus.EventBus

	Tracer trace.Tracer
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		CloseOnSelect:  true,
		StallThreshold: DefaultStallThreshold,
	}
}

func (o Options) withDefaults() Options {
	if o.ID == "" {
		o.ID = "searchbox-" + uuid.NewString()[:8]
	}
	if o.StallThreshold == 0 {
		o.StallThreshold = DefaultStallThreshold
	}
	if o.MaxConcurrentFetches < 0 {
		o.MaxConcurrentFetches = 0
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}
	return o
}
