package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloud-shuttle/go-fsm"
	"github.com/cloud-shuttle/go-fsm/pkg/telemetry"
)

func TestTracingWiring(t *testing.T) {
	tracer := telemetry.NewProvider().Tracer("machines")

	machine, err := fsm.New[struct{}]("traced").
		State("a").
		OnExitFunc("leave", func(ctx *struct{}, event fsm.Event) error { return nil }).
		On("Go", "b").
		GuardFunc("open", func(ctx *struct{}, event fsm.Event) bool { return true }).
		State("b").
		Initial("a").
		Build(fsm.WithTrace[struct{}](telemetry.Tracing(tracer)))
	require.NoError(t, err)

	// every step runs under a span, including guard evaluation and the
	// action sequence; the no-op backend must not disturb the engine
	state, err := machine.Transition(machine.InitialState(), fsm.NewEvent("Go"))
	require.NoError(t, err)
	require.Equal(t, "b", state.Value().Leaf())

	_, err = machine.Transition(state, fsm.NewEvent("Go"))
	require.ErrorIs(t, err, fsm.ErrInvalidTransition)
}
