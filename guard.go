package fsm

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/cloud-shuttle/go-fsm/clock"
)

// Guard is a side-effect-free predicate gating whether a transition may
// fire. The engine may evaluate a guard zero or more times for the same
// (context, event) pair, so Check must be pure with respect to the
// machine's observable behavior.
type Guard[C any] interface {
	Check(ctx *C, event Event) bool
	Description() string
}

type funcGuard[C any] struct {
	description string
	fn          func(ctx *C, event Event) bool
}

func (guard *funcGuard[C]) Check(ctx *C, event Event) bool {
	return guard.fn(ctx, event)
}

func (guard *funcGuard[C]) Description() string {
	return guard.description
}

// Predicate wraps a plain function as a Guard.
func Predicate[C any](description string, fn func(ctx *C, event Event) bool) Guard[C] {
	return &funcGuard[C]{description: description, fn: fn}
}

/******* Combinators *******/

func descriptions[C any](guards []Guard[C]) []string {
	out := make([]string, len(guards))
	for i, guard := range guards {
		out[i] = guard.Description()
	}
	return out
}

// And passes when every guard passes, evaluated left to right with
// short-circuit on the first rejection.
func And[C any](guards ...Guard[C]) Guard[C] {
	return Predicate(
		"("+strings.Join(descriptions(guards), " && ")+")",
		func(ctx *C, event Event) bool {
			for _, guard := range guards {
				if !guard.Check(ctx, event) {
					return false
				}
			}
			return true
		},
	)
}

// Or passes when any guard passes, evaluated left to right with
// short-circuit on the first pass.
func Or[C any](guards ...Guard[C]) Guard[C] {
	return Predicate(
		"("+strings.Join(descriptions(guards), " || ")+")",
		func(ctx *C, event Event) bool {
			for _, guard := range guards {
				if guard.Check(ctx, event) {
					return true
				}
			}
			return false
		},
	)
}

func Not[C any](guard Guard[C]) Guard[C] {
	return Predicate(
		"!"+guard.Description(),
		func(ctx *C, event Event) bool {
			return !guard.Check(ctx, event)
		},
	)
}

// Xor passes when exactly one of a and b passes.
func Xor[C any](a, b Guard[C]) Guard[C] {
	return Predicate(
		"("+a.Description()+" ^ "+b.Description()+")",
		func(ctx *C, event Event) bool {
			return a.Check(ctx, event) != b.Check(ctx, event)
		},
	)
}

// AtLeast passes when n or more of the guards pass. AtLeast(len/2+1, ...)
// gives majority-of-N.
func AtLeast[C any](n int, guards ...Guard[C]) Guard[C] {
	return Predicate(
		fmt.Sprintf("atLeast(%d: %s)", n, strings.Join(descriptions(guards), ", ")),
		func(ctx *C, event Event) bool {
			passed := 0
			for _, guard := range guards {
				if guard.Check(ctx, event) {
					passed++
					if passed >= n {
						return true
					}
				}
			}
			return false
		},
	)
}

/******* Field guards *******/

// FieldEquals passes when the extracted field equals want.
func FieldEquals[C any, V comparable](field string, get func(ctx *C) V, want V) Guard[C] {
	return Predicate(
		fmt.Sprintf("%s == %v", field, want),
		func(ctx *C, event Event) bool {
			return get(ctx) == want
		},
	)
}

// InRange passes when low <= field <= high.
func InRange[C any, V cmp.Ordered](field string, get func(ctx *C) V, low, high V) Guard[C] {
	return Predicate(
		fmt.Sprintf("%v <= %s <= %v", low, field, high),
		func(ctx *C, event Event) bool {
			v := get(ctx)
			return v >= low && v <= high
		},
	)
}

// Since passes once at least threshold has elapsed since the extracted
// timestamp, typically the instant an Assign action stamped on state
// entry. The optional clock makes the guard deterministic under test.
func Since[C any](field string, get func(ctx *C) time.Time, threshold time.Duration, maybeClock ...clock.Clock) Guard[C] {
	source := clock.Make()
	if len(maybeClock) > 0 {
		source = maybeClock[0]
	}
	return Predicate(
		fmt.Sprintf("since(%s) >= %s", field, threshold),
		func(ctx *C, event Event) bool {
			return source.Now().Sub(get(ctx)) >= threshold
		},
	)
}

// AtMost passes while the extracted counter is below ceiling. Useful for
// rate-limiting a specific edge when the counter is incremented by one of
// the transition's actions.
func AtMost[C any](field string, get func(ctx *C) int, ceiling int) Guard[C] {
	return Predicate(
		fmt.Sprintf("%s < %d", field, ceiling),
		func(ctx *C, event Event) bool {
			return get(ctx) < ceiling
		},
	)
}

/******* Reasons *******/

type guardReasoner interface {
	guardReason() string
}

type explainedGuard[C any] struct {
	Guard[C]
	reason string
}

func (guard *explainedGuard[C]) guardReason() string {
	return guard.reason
}

// Explained attaches a reason to a guard. When the rejection of an
// Explained guard leaves an event with no enabled transition, the engine
// reports ErrGuardFailed carrying the reason instead of the generic
// ErrInvalidTransition.
func Explained[C any](guard Guard[C], reason string) Guard[C] {
	return &explainedGuard[C]{Guard: guard, reason: reason}
}
