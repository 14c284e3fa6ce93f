package autocomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"searchbox/internal/domain"
)

func TestPhaseTransitions(t *testing.T) {
	tests := []struct {
		from phase
		on   trigger
		want phase
	}{
		{phaseIdle, triggerFetchStarted, phaseLoading},
		{phaseLoading, triggerSettled, phaseOpen},
		{phaseLoading, triggerAllFailed, phaseError},
		{phaseError, triggerFetchStarted, phaseLoading},
		{phaseOpen, triggerClose, phaseIdle},
		{phaseLoading, triggerClose, phaseIdle},
		// Undefined transitions keep the phase
		{phaseIdle, triggerSettled, phaseIdle},
		{phaseOpen, triggerAllFailed, phaseOpen},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.on.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.next(tt.on))
		})
	}
}

func TestMoveActiveWalk(t *testing.T) {
	refs := []domain.ItemRef{
		{SourceID: "a", ObjectID: "1"},
		{SourceID: "a", ObjectID: "2"},
		{SourceID: "b", ObjectID: "1"},
	}
	at := func(i int) *domain.ItemRef { return &refs[i] }
	missing := &domain.ItemRef{SourceID: "gone", ObjectID: "1"}

	tests := []struct {
		name   string
		active *domain.ItemRef
		dir    Direction
		wrap   bool
		want   *domain.ItemRef
	}{
		{"next from none", nil, Next, false, at(0)},
		{"previous from none", nil, Previous, false, at(2)},
		{"next crosses sources", at(1), Next, false, at(2)},
		{"next clamps", at(2), Next, false, at(2)},
		{"next wraps", at(2), Next, true, at(0)},
		{"previous clamps", at(0), Previous, false, at(0)},
		{"previous wraps", at(0), Previous, true, at(2)},
		{"first", at(2), First, false, at(0)},
		{"last", at(0), Last, false, at(2)},
		{"unknown active restarts", missing, Next, false, at(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := moveActive(refs, tt.active, tt.dir, tt.wrap)
			assert.Equal(t, *tt.want, *got)
		})
	}

	assert.Nil(t, moveActive(nil, nil, Next, true))
}
