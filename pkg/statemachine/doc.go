// Package statemachine implements a small, thread-safe finite state machine
// with guarded transitions and pre-transition actions.
//
// Transitions are registered per (from, event) pair. When an event fires, the
// first transition whose guards all pass is taken; its actions then run in
// order and any action error aborts the transition, leaving the state
// unchanged. The signup sequencer relies on that: step validation is an
// action, so a failing step keeps the flow where it is and the validation
// error reaches the caller.
//
//	sm := statemachine.MustNew("step_1",
//	    statemachine.WithTransition("step_1", "step_2", "next",
//	        statemachine.WithAction(validateAccount)),
//	    statemachine.WithTransition("step_2", "step_1", "previous"),
//	)
//	if err := sm.Fire(ctx, "next", draft); err != nil {
//	    // validation errors are wrapped in ErrActionFailed
//	}
package statemachine
