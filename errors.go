package fsm

import (
	"fmt"
	"strings"

	"errors"
)

// Construction failures. These are only produced by Build and always
// abort it; a machine value is never returned alongside them.
var (
	ErrNoStates        = errors.New("fsm: no states defined")
	ErrNoInitial       = errors.New("fsm: no initial state declared")
	ErrUndefinedState  = errors.New("fsm: undefined state")
	ErrNoInitialChild  = errors.New("fsm: compound state has no initial child")
	ErrDuplicateState  = errors.New("fsm: duplicate state")
	ErrBuilderMisuse   = errors.New("fsm: builder call out of order")
	ErrFinalTransition = errors.New("fsm: final state cannot declare transitions")
)

// Runtime failures. These abort the current Transition call before any
// action has run; the caller's input state is never touched.
var (
	ErrInvalidState      = errors.New("fsm: state not in graph")
	ErrInvalidTransition = errors.New("fsm: no enabled transition")
	ErrGuardFailed       = errors.New("fsm: guard rejected")
	ErrMissingGuard      = errors.New("fsm: guard not registered")
	ErrMissingAction     = errors.New("fsm: action not registered")
	ErrContext           = errors.New("fsm: context error")
)

// ConstructionError aggregates every problem Build found in the
// definition. Individual problems wrap the sentinel errors above and can
// be matched with errors.Is.
type ConstructionError struct {
	Problems []error
}

func (e *ConstructionError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, problem := range e.Problems {
		msgs[i] = problem.Error()
	}
	return fmt.Sprintf("fsm: invalid machine definition: %s", strings.Join(msgs, "; "))
}

func (e *ConstructionError) Unwrap() []error {
	return e.Problems
}
