package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTask_LegalEdges(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskStatusPending, TaskStatusProcessing, true},
		{TaskStatusProcessing, TaskStatusSuccess, true},
		{TaskStatusProcessing, TaskStatusFiltered, true},
		{TaskStatusProcessing, TaskStatusSkipped, true},
		{TaskStatusProcessing, TaskStatusFailed, true},
		{TaskStatusFailed, TaskStatusPending, true},
		{TaskStatusPending, TaskStatusSuccess, false},
		{TaskStatusSuccess, TaskStatusPending, false},
		{TaskStatusFiltered, TaskStatusProcessing, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransitionTask(c.from, c.to), "CanTransitionTask(%s, %s)", c.from, c.to)
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusSuccess, TaskStatusFiltered, TaskStatusSkipped, TaskStatusFailed}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}
	nonTerminal := []TaskStatus{TaskStatusPending, TaskStatusProcessing}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestNewChildTask_InheritsLineage(t *testing.T) {
	now := time.Unix(0, 0)
	root := NewRootTask("root-1", TaskKindCompany, TaskPayload{CompanyName: "Acme"}, 3, now)
	child := NewChildTask("child-1", TaskKindSourceDiscovery, TaskPayload{URL: "https://acme.com/careers"}, root, 3, now)

	require.Equal(t, root.TrackingID, child.TrackingID, "expected child to inherit tracking id")
	assert.Equal(t, root.SpawnDepth+1, child.SpawnDepth)
	require.Len(t, child.AncestryChain, 1)
	assert.Equal(t, root.ID, child.AncestryChain[0])
	assert.Equal(t, TaskStatusPending, child.Status, "expected new child task to start Pending")
}

func TestTaskKind_IsValid(t *testing.T) {
	assert.True(t, TaskKindCompany.IsValid(), "expected company kind to be valid")
	assert.False(t, TaskKind("bogus").IsValid(), "expected unknown kind to be invalid")
}
