package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_FromPending(t *testing.T) {
	// Exactly approved, rejected and cancelled are reachable in one step.
	assert.True(t, CanTransition(StatusPending, StatusApproved))
	assert.True(t, CanTransition(StatusPending, StatusRejected))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.False(t, CanTransition(StatusPending, StatusConfirmed))
	assert.False(t, CanTransition(StatusPending, StatusPending))
}

func TestCanTransition_FromApproved(t *testing.T) {
	assert.True(t, CanTransition(StatusApproved, StatusConfirmed))
	assert.True(t, CanTransition(StatusApproved, StatusCancelled))
	assert.False(t, CanTransition(StatusApproved, StatusRejected))
	assert.False(t, CanTransition(StatusApproved, StatusPending))
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []ApplicationStatus{StatusConfirmed, StatusRejected, StatusCancelled} {
		assert.True(t, IsTerminal(terminal), "%s should be terminal", terminal)
		assert.Empty(t, NextStatuses(terminal), "%s should have no outgoing transitions", terminal)
		for _, to := range []ApplicationStatus{StatusPending, StatusApproved, StatusRejected, StatusConfirmed, StatusCancelled} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s must be forbidden", terminal, to)
		}
	}
}

func TestRuleFor_Actors(t *testing.T) {
	approve, ok := RuleFor(ActionApprove)
	require.True(t, ok)
	assert.Equal(t, ActorLandlord, approve.Actor)
	assert.Equal(t, StatusApproved, approve.To)
	assert.True(t, approve.AllowsFrom(StatusPending))
	assert.False(t, approve.AllowsFrom(StatusApproved))

	reject, ok := RuleFor(ActionReject)
	require.True(t, ok)
	assert.Equal(t, ActorLandlord, reject.Actor)
	assert.Equal(t, StatusRejected, reject.To)

	cancel, ok := RuleFor(ActionCancel)
	require.True(t, ok)
	assert.Equal(t, ActorApplicant, cancel.Actor)
	assert.True(t, cancel.AllowsFrom(StatusPending))
	assert.True(t, cancel.AllowsFrom(StatusApproved))
	assert.False(t, cancel.AllowsFrom(StatusConfirmed))

	confirm, ok := RuleFor(ActionConfirmPayment)
	require.True(t, ok)
	assert.Equal(t, ActorEither, confirm.Actor)
	assert.True(t, confirm.AllowsFrom(StatusApproved))
	assert.False(t, confirm.AllowsFrom(StatusPending))

	_, ok = RuleFor(ApplicationAction("delete"))
	assert.False(t, ok)
}

func TestRulesAgreeWithTransitionGraph(t *testing.T) {
	// Every action rule must be a subset of the valid transition graph.
	for _, action := range []ApplicationAction{ActionApprove, ActionReject, ActionCancel, ActionConfirmPayment} {
		rule, ok := RuleFor(action)
		require.True(t, ok)
		for _, from := range rule.From {
			assert.True(t, CanTransition(from, rule.To), "%s: %s -> %s", action, from, rule.To)
		}
	}
}

func TestParseApplicationStatus(t *testing.T) {
	st, err := ParseApplicationStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, st)

	_, err = ParseApplicationStatus("paused")
	assert.Error(t, err)
}
