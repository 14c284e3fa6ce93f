package domain

import (
	"errors"
	"fmt"
)

// ErrStaleResult marks a fetch completion that belonged to an older generation.
// It is bookkeeping only and never shown to users.
var ErrStaleResult = errors.New("stale result discarded")

// ErrDestroyed is returned by transitions attempted after the controller was destroyed
var ErrDestroyed = errors.New("controller destroyed")

// SourceFetchError is a failed fetch of one source. It never affects other sources.
type SourceFetchError struct {
	SourceID   string
	Query      Query
	Generation uint64
	Err        error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source %q failed for query %q: %v", e.SourceID, e.Query, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// ListenerAttachmentError means the environment bridge could not attach to a surface
type ListenerAttachmentError struct {
	Surface string // element or signal that could not be bound
	Err     error
}

func (e *ListenerAttachmentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to attach listener to %s", e.Surface)
	}
	return fmt.Sprintf("failed to attach listener to %s: %v", e.Surface, e.Err)
}

func (e *ListenerAttachmentError) Unwrap() error { return e.Err }
