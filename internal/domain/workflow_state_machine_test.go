package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateMachine_Transitions(t *testing.T) {
	sm := NewRunStateMachine()

	tests := []struct {
		name        string
		from        RunState
		action      RunTransition
		expectedTo  RunState
		shouldError bool
	}{
		// Valid transitions
		{"Pending -> Evaluating via Evaluate", RunStatePending, TransitionEvaluate, RunStateEvaluating, false},
		{"Evaluating -> Skipped via Skip", RunStateEvaluating, TransitionSkip, RunStateSkipped, false},
		{"Evaluating -> Executing via Execute", RunStateEvaluating, TransitionExecute, RunStateExecuting, false},
		{"Evaluating -> Failed via Fail", RunStateEvaluating, TransitionFail, RunStateFailed, false},
		{"Executing -> Completed via Complete", RunStateExecuting, TransitionComplete, RunStateCompleted, false},
		{"Executing -> Failed via Fail", RunStateExecuting, TransitionFail, RunStateFailed, false},

		// Invalid transitions
		{"Pending -> Executing (must evaluate first)", RunStatePending, TransitionExecute, RunStatePending, true},
		{"Evaluating -> Completed (must execute first)", RunStateEvaluating, TransitionComplete, RunStateEvaluating, true},
		{"Skipped -> Executing (terminal)", RunStateSkipped, TransitionExecute, RunStateSkipped, true},
		{"Completed -> Failed (terminal)", RunStateCompleted, TransitionFail, RunStateCompleted, true},
		{"Failed -> Evaluating (no retry)", RunStateFailed, TransitionEvaluate, RunStateFailed, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			newState, err := sm.Transition(tc.from, tc.action)

			if tc.shouldError {
				assert.Error(t, err)
				assert.Equal(t, tc.from, newState, "State should not change on invalid transition")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedTo, newState)
			}
		})
	}
}

func TestRunStateMachine_IsTerminal(t *testing.T) {
	sm := NewRunStateMachine()

	assert.True(t, sm.IsTerminal(RunStateSkipped))
	assert.True(t, sm.IsTerminal(RunStateCompleted))
	assert.True(t, sm.IsTerminal(RunStateFailed))
	assert.False(t, sm.IsTerminal(RunStatePending))
	assert.False(t, sm.IsTerminal(RunStateEvaluating))
	assert.False(t, sm.IsTerminal(RunStateExecuting))

	for _, s := range []RunState{RunStateSkipped, RunStateCompleted, RunStateFailed} {
		assert.Empty(t, sm.ValidTransitions(s), "terminal state %s has transitions", s)
	}
}

func TestRunStateMachine_ValidTransitionsFromEvaluating(t *testing.T) {
	sm := NewRunStateMachine()

	assert.ElementsMatch(t,
		[]RunTransition{TransitionSkip, TransitionExecute, TransitionFail},
		sm.ValidTransitions(RunStateEvaluating))
	assert.True(t, sm.CanTransition(RunStatePending, TransitionEvaluate))
	assert.False(t, sm.CanTransition(RunStatePending, TransitionSkip))
}

func TestRun_Apply(t *testing.T) {
	run := NewRunStateMachine().NewRun()
	assert.Equal(t, RunStatePending, run.State())

	require.NoError(t, run.Apply(TransitionEvaluate))
	require.NoError(t, run.Apply(TransitionExecute))
	require.NoError(t, run.Apply(TransitionComplete))
	assert.Equal(t, RunStateCompleted, run.State())

	assert.Error(t, run.Apply(TransitionFail))
	assert.Equal(t, RunStateCompleted, run.State())
}
