package ui

import (
	"time"

	"searchbox/internal/domain"
	"searchbox/internal/eventbus"
)

// StateMsg carries a controller snapshot into the update loop
type StateMsg struct {
	State domain.State
}

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer for animations
type tickMsg time.Time

// detailsPagerMsg contains the result of showing an item in the pager
type detailsPagerMsg struct {
	ref domain.ItemRef
	err error
}

// openedMsg contains the result of handing a URL to the open command
type openedMsg struct {
	url string
	err error
}

// clearStatusMsg clears the status line
type clearStatusMsg struct{}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
