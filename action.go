package fsm

import (
	"log/slog"
)

// Action is an effect executed during a transition. Execute may mutate
// the context it is handed; failures must be returned, never trapped, so
// the engine can abort the call and surface them as ErrContext.
type Action[C any] interface {
	Execute(ctx *C, event Event) error
	Name() string
}

type funcAction[C any] struct {
	name string
	fn   func(ctx *C, event Event) error
}

func (action *funcAction[C]) Execute(ctx *C, event Event) error {
	return action.fn(ctx, event)
}

func (action *funcAction[C]) Name() string {
	return action.name
}

// ActionFunc wraps a plain function as an Action.
func ActionFunc[C any](name string, fn func(ctx *C, event Event) error) Action[C] {
	return &funcAction[C]{name: name, fn: fn}
}

// Assign writes computed values into the context. It cannot fail; use
// ActionFunc when the computation has error cases.
func Assign[C any](name string, assign func(ctx *C, event Event)) Action[C] {
	return &funcAction[C]{name: name, fn: func(ctx *C, event Event) error {
		assign(ctx, event)
		return nil
	}}
}

// Log emits a record on the logging side channel without touching the
// context. A nil logger falls back to slog.Default.
func Log[C any](logger *slog.Logger, msg string) Action[C] {
	return &funcAction[C]{name: "log(" + msg + ")", fn: func(ctx *C, event Event) error {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.Info(msg, "event", event.Name())
		return nil
	}}
}

// Pure triggers an external side channel and ignores the context
// entirely.
func Pure[C any](name string, fn func(event Event)) Action[C] {
	return &funcAction[C]{name: name, fn: func(ctx *C, event Event) error {
		fn(event)
		return nil
	}}
}

// Deferred schedules fn on its own goroutine, fire and forget. The
// transition does not wait for it and its completion is not tracked.
func Deferred[C any](name string, fn func(event Event)) Action[C] {
	return &funcAction[C]{name: name, fn: func(ctx *C, event Event) error {
		go fn(event)
		return nil
	}}
}
