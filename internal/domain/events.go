package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventStateChanged         EventType = "StateChanged"
	EventQueryChanged         EventType = "QueryChanged"
	EventGenerationStarted    EventType = "GenerationStarted"
	EventStaleResultDiscarded EventType = "StaleResultDiscarded"
	EventSourceFailed         EventType = "SourceFailed"
	EventNavigationRequested  EventType = "NavigationRequested"
	EventConfigLoaded         EventType = "ConfigLoaded"
	EventConfigSaved          EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// StateChangedEvent carries a snapshot taken right after a transition
type StateChangedEvent struct {
	State State
}

func (e StateChangedEvent) Type() EventType { return EventStateChanged }

// QueryChangedEvent is emitted when the tracked query changes
type QueryChangedEvent struct {
	Previous Query
	Query    Query
}

func (e QueryChangedEvent) Type() EventType { return EventQueryChanged }

// GenerationStartedEvent is emitted when a new fetch cycle begins
type GenerationStartedEvent struct {
	Generation uint64
	Query      Query
	Sources    []string // ids of the sources being fetched, empty for an invalidation-only generation
}

func (e GenerationStartedEvent) Type() EventType { return EventGenerationStarted }

// StaleResultDiscardedEvent is emitted when a completion of an old generation is dropped
type StaleResultDiscardedEvent struct {
	SourceID          string
	Generation        uint64
	CurrentGeneration uint64
	Query             Query
}

func (e StaleResultDiscardedEvent) Type() EventType { return EventStaleResultDiscarded }

// SourceFailedEvent is emitted when a current-generation fetch fails
type SourceFailedEvent struct {
	Err *SourceFetchError
}

func (e SourceFailedEvent) Type() EventType { return EventSourceFailed }

// NavigationRequestedEvent is emitted when an item is selected.
// The renderer decides what navigating to URL means.
type NavigationRequestedEvent struct {
	URL  string
	Item Item
	Ref  ItemRef
}

func (e NavigationRequestedEvent) Type() EventType { return EventNavigationRequested }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path    string
	Sources []string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
