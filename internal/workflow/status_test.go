package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_LegalMoves(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusAwaitingApproval},
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusPending, StatusCancelled},
		{StatusAwaitingApproval, StatusApproved},
		{StatusAwaitingApproval, StatusRejected},
		{StatusAwaitingApproval, StatusCancelled},
		{StatusApproved, StatusCompleted},
		{StatusApproved, StatusFailed},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}
}

func TestCanTransition_IllegalMoves(t *testing.T) {
	illegal := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusFailed},
		{StatusAwaitingApproval, StatusPending},
		{StatusAwaitingApproval, StatusCompleted},
		{StatusApproved, StatusPending},
		{StatusApproved, StatusCancelled},
		{StatusApproved, StatusRejected},
		{StatusCompleted, StatusFailed},
		{StatusCompleted, StatusApproved},
		{StatusRejected, StatusApproved},
		{StatusCancelled, StatusPending},
		{StatusFailed, StatusApproved},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(StatusCompleted))
	assert.True(t, Terminal(StatusRejected))
	assert.True(t, Terminal(StatusCancelled))
	assert.True(t, Terminal(StatusFailed))
	assert.False(t, Terminal(StatusPending))
	assert.False(t, Terminal(StatusAwaitingApproval))
	assert.False(t, Terminal(StatusApproved))
	assert.False(t, Terminal(Status("bogus")))
}

func TestOpen(t *testing.T) {
	assert.True(t, Open(StatusPending))
	assert.True(t, Open(StatusAwaitingApproval))
	assert.True(t, Open(StatusApproved))
	assert.False(t, Open(StatusRejected))
	assert.False(t, Open(StatusCancelled))
	assert.False(t, Open(StatusFailed))
	assert.False(t, Open(StatusCompleted))
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "staff", "customer"} {
		role, err := ParseRole(s)
		assert.NoError(t, err)
		assert.Equal(t, s, role.String())
	}

	_, err := ParseRole("manager")
	assert.Error(t, err)
}

func TestLifecycleTransitions(t *testing.T) {
	assert.True(t, CanTransitionLifecycle(LifecycleActive, LifecycleSoftDeleted))
	assert.True(t, CanTransitionLifecycle(LifecycleSoftDeleted, LifecycleActive))
	assert.True(t, CanTransitionLifecycle(LifecycleSoftDeleted, LifecyclePurgeEligible))

	assert.False(t, CanTransitionLifecycle(LifecycleActive, LifecyclePurgeEligible))
	assert.False(t, CanTransitionLifecycle(LifecyclePurgeEligible, LifecycleActive))
	assert.False(t, CanTransitionLifecycle(LifecyclePurgeEligible, LifecycleSoftDeleted))
}
