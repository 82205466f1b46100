package signup

import (
	"context"
	"errors"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/statemachine"
)

// Flow states beyond the collecting steps.
const (
	StateSubmitting statemachine.State = "submitting"
	StateSucceeded  statemachine.State = "succeeded"
	StateFailed     statemachine.State = "failed"
)

const (
	EventNext     statemachine.Event = "next"
	EventPrevious statemachine.Event = "previous"
	EventSubmit   statemachine.Event = "submit"
	EventSucceed  statemachine.Event = "succeed"
	EventFail     statemachine.Event = "fail"
)

// transition is the payload handed to sequencer actions.
type transition struct {
	draft   Draft
	request apiclient.SignupRequest
}

// stepCheck runs after a step's fields validated, before leaving it.
type stepCheck func(ctx context.Context, d Draft) error

// Sequencer is the linear step machine:
//
//	step_1 -> ... -> step_5 -> submitting -> succeeded
//	                               |  ^
//	                               v  |
//	                              failed
type Sequencer struct {
	sm *statemachine.Machine
}

func newSequencer(v Validator, checks map[Step]stepCheck, submit statemachine.Action, listener statemachine.Listener) *Sequencer {
	opts := make([]statemachine.Option, 0, 2*len(Steps)+4)

	for _, s := range Steps {
		if s < LastStep {
			opts = append(opts, statemachine.WithTransition(s.state(), (s+1).state(), EventNext,
				statemachine.WithAction(leaveStep(v, s, checks[s]))))
		}
		if s > FirstStep {
			opts = append(opts, statemachine.WithTransition(s.state(), (s-1).state(), EventPrevious))
		}
	}

	opts = append(opts,
		statemachine.WithTransition(LastStep.state(), StateSubmitting, EventSubmit, statemachine.WithAction(submit)),
		statemachine.WithTransition(StateFailed, StateSubmitting, EventSubmit, statemachine.WithAction(submit)),
		statemachine.WithTransition(StateSubmitting, StateSucceeded, EventSucceed),
		statemachine.WithTransition(StateSubmitting, StateFailed, EventFail),
		statemachine.WithListener(listener),
	)

	return &Sequencer{sm: statemachine.MustNew(FirstStep.state(), opts...)}
}

func leaveStep(v Validator, s Step, check stepCheck) statemachine.Action {
	return func(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
		d := data.(*transition).draft
		if err := v.Step(s, d); err != nil {
			return err
		}
		if check != nil {
			return check(ctx, d)
		}
		return nil
	}
}

// State returns the raw machine state.
func (s *Sequencer) State() statemachine.State {
	return s.sm.Current()
}

// rewind puts the machine back on the first step.
func (s *Sequencer) rewind() {
	s.sm.Reset()
}

// Current returns the active step, or 0 once the flow is past collecting.
func (s *Sequencer) Current() Step {
	step, _ := stepOf(s.sm.Current())
	return step
}

// fire triggers event and strips the machine's action wrapper so callers see
// the validation or API error itself.
func (s *Sequencer) fire(ctx context.Context, event statemachine.Event, data *transition) error {
	err := s.sm.Fire(ctx, event, data)
	if err == nil || !errors.Is(err, statemachine.ErrActionFailed) {
		return err
	}
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := u.Unwrap(); len(errs) > 1 {
			return errs[len(errs)-1]
		}
	}
	return err
}
