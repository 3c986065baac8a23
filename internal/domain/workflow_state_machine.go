package domain

import (
	"fmt"
)

// RunState represents the lifecycle state of one workflow run
type RunState string

const (
	// RunStatePending is a candidate workflow that has not been evaluated yet
	RunStatePending RunState = "Pending"
	// RunStateEvaluating indicates the trigger rule is being checked
	RunStateEvaluating RunState = "Evaluating"
	// RunStateSkipped indicates the trigger rule did not match
	RunStateSkipped RunState = "Skipped"
	// RunStateExecuting indicates actions are being dispatched
	RunStateExecuting RunState = "Executing"
	// RunStateCompleted indicates the dispatcher returned (individual actions may have failed)
	RunStateCompleted RunState = "Completed"
	// RunStateFailed indicates the dispatcher itself failed
	RunStateFailed RunState = "Failed"
)

// RunTransition represents an event that moves a run between states
type RunTransition string

const (
	TransitionEvaluate RunTransition = "Evaluate"
	TransitionSkip     RunTransition = "Skip"
	TransitionExecute  RunTransition = "Execute"
	TransitionComplete RunTransition = "Complete"
	TransitionFail     RunTransition = "Fail"
)

// RunStateMachine enforces valid state transitions for workflow runs.
// Invalid transitions return an error (fail-fast approach).
type RunStateMachine struct {
	transitions map[stateTransitionKey]RunState
}

type stateTransitionKey struct {
	state      RunState
	transition RunTransition
}

// NewRunStateMachine creates a state machine with the run lifecycle rules.
// State diagram:
//
//	  [Pending]
//	      │ Evaluate
//	      ▼
//	 [Evaluating] ──Skip──► [Skipped]
//	      │ Execute
//	      ▼
//	 [Executing] ──Fail──► [Failed]
//	      │ Complete
//	      ▼
//	 [Completed]
//
// Evaluating may also Fail when the run cannot be evaluated at all.
func NewRunStateMachine() *RunStateMachine {
	sm := &RunStateMachine{
		transitions: make(map[stateTransitionKey]RunState),
	}

	sm.addTransition(RunStatePending, TransitionEvaluate, RunStateEvaluating)
	sm.addTransition(RunStateEvaluating, TransitionSkip, RunStateSkipped)
	sm.addTransition(RunStateEvaluating, TransitionExecute, RunStateExecuting)
	sm.addTransition(RunStateEvaluating, TransitionFail, RunStateFailed)
	sm.addTransition(RunStateExecuting, TransitionComplete, RunStateCompleted)
	sm.addTransition(RunStateExecuting, TransitionFail, RunStateFailed)

	return sm
}

func (sm *RunStateMachine) addTransition(from RunState, via RunTransition, to RunState) {
	sm.transitions[stateTransitionKey{state: from, transition: via}] = to
}

// Transition attempts to transition from the current state using the given action.
// Returns the new state or an error if the transition is invalid.
func (sm *RunStateMachine) Transition(current RunState, action RunTransition) (RunState, error) {
	next, ok := sm.transitions[stateTransitionKey{state: current, transition: action}]
	if !ok {
		return current, fmt.Errorf("invalid state transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *RunStateMachine) CanTransition(current RunState, action RunTransition) bool {
	_, ok := sm.transitions[stateTransitionKey{state: current, transition: action}]
	return ok
}

// ValidTransitions returns all valid transitions from the given state.
func (sm *RunStateMachine) ValidTransitions(state RunState) []RunTransition {
	var result []RunTransition
	for key := range sm.transitions {
		if key.state == state {
			result = append(result, key.transition)
		}
	}
	return result
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (sm *RunStateMachine) IsTerminal(state RunState) bool {
	return state == RunStateSkipped || state == RunStateCompleted || state == RunStateFailed
}

// Run tracks the state of one workflow run and refuses illegal moves.
type Run struct {
	sm    *RunStateMachine
	state RunState
}

// NewRun starts a run in Pending.
func (sm *RunStateMachine) NewRun() *Run {
	return &Run{sm: sm, state: RunStatePending}
}

// State returns the current state.
func (r *Run) State() RunState {
	return r.state
}

// Apply performs a transition, leaving the state unchanged on error.
func (r *Run) Apply(action RunTransition) error {
	next, err := r.sm.Transition(r.state, action)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}
