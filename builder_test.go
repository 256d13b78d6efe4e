package fsm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloud-shuttle/go-fsm"
)

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*fsm.Machine[struct{}], error)
		want  error
	}{
		{
			name: "no states",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("empty").Build()
			},
			want: fsm.ErrNoStates,
		},
		{
			name: "no initial state",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("a").
					State("b").
					Build()
			},
			want: fsm.ErrNoInitial,
		},
		{
			name: "initial names undefined state",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("a").
					Initial("ghost").
					Build()
			},
			want: fsm.ErrUndefinedState,
		},
		{
			name: "transition target undefined",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("a").On("Go", "nowhere").
					Initial("a").
					Build()
			},
			want: fsm.ErrUndefinedState,
		},
		{
			name: "ambiguous relative target",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("outer1").ChildState("leaf").Initial("leaf").Parent().
					State("outer2").ChildState("leaf").Initial("leaf").Parent().
					State("a").On("Go", "leaf").
					Initial("a").
					Build()
			},
			want: fsm.ErrUndefinedState,
		},
		{
			name: "compound without initial child",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("parent").
					ChildState("child").
					Parent().
					Initial("parent").
					Build()
			},
			want: fsm.ErrNoInitialChild,
		},
		{
			name: "duplicate state in same scope",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("a").
					State("a").
					Initial("a").
					Build()
			},
			want: fsm.ErrDuplicateState,
		},
		{
			name: "On before any State",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					On("Go", "a").
					State("a").
					Initial("a").
					Build()
			},
			want: fsm.ErrBuilderMisuse,
		},
		{
			name: "Parent without ChildState",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("a").
					Parent().
					Initial("a").
					Build()
			},
			want: fsm.ErrBuilderMisuse,
		},
		{
			name: "final state with outgoing transition",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("done").On("Go", "done").Final().
					Initial("done").
					Build()
			},
			want: fsm.ErrFinalTransition,
		},
		{
			name: "history on leaf state",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("a").History().
					Initial("a").
					Build()
			},
			want: fsm.ErrBuilderMisuse,
		},
		{
			name: "history default names undefined child",
			build: func() (*fsm.Machine[struct{}], error) {
				return fsm.New[struct{}]("m").
					State("parent").History("ghost").
					ChildState("child").
					Initial("child").
					Parent().
					Initial("parent").
					Build()
			},
			want: fsm.ErrUndefinedState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine, err := tt.build()
			require.Nil(t, machine)
			require.ErrorIs(t, err, tt.want)

			var construction *fsm.ConstructionError
			require.ErrorAs(t, err, &construction)
			require.NotEmpty(t, construction.Problems)
		})
	}
}

func TestBuildCollectsAllProblems(t *testing.T) {
	_, err := fsm.New[struct{}]("m").
		On("Go", "a"). // before any State
		State("a").On("Go", "nowhere").
		State("a"). // duplicate
		Initial("a").
		Build()

	require.ErrorIs(t, err, fsm.ErrBuilderMisuse)
	require.ErrorIs(t, err, fsm.ErrUndefinedState)
	require.ErrorIs(t, err, fsm.ErrDuplicateState)

	var construction *fsm.ConstructionError
	require.ErrorAs(t, err, &construction)
	require.Len(t, construction.Problems, 3)
}

func TestBuilderSingleUse(t *testing.T) {
	b := fsm.New[struct{}]("m").State("a").Initial("a")

	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	require.ErrorIs(t, err, fsm.ErrBuilderMisuse)
}

func TestTargetResolution(t *testing.T) {
	machine, err := fsm.New[struct{}]("m").
		State("outer").
		ChildState("a").
		On("Sibling", "b").       // sibling in the same scope
		On("Absolute", "/other"). // absolute qualified name
		On("Unique", "deep").     // unique basename anywhere
		State("b").
		ChildState("deep").
		Initial("deep").
		Parent().
		Initial("a").
		Parent().
		State("other").
		Initial("outer").
		Build()
	require.NoError(t, err)

	start := machine.InitialState()
	require.Equal(t, fsm.Compound("outer", "a"), start.Value())

	state, err := machine.Transition(start, fsm.NewEvent("Sibling"))
	require.NoError(t, err)
	require.Equal(t, fsm.Compound("outer", "b", "deep"), state.Value())

	state, err = machine.Transition(start, fsm.NewEvent("Absolute"))
	require.NoError(t, err)
	require.Equal(t, fsm.Simple("other"), state.Value())

	state, err = machine.Transition(start, fsm.NewEvent("Unique"))
	require.NoError(t, err)
	require.Equal(t, fsm.Compound("outer", "b", "deep"), state.Value())
}

func TestDeclarationOrderIrrelevant(t *testing.T) {
	forward, err := fsm.New[struct{}]("m").
		State("a").On("Go", "b").
		State("b").
		Initial("a").
		Build()
	require.NoError(t, err)

	backward, err := fsm.New[struct{}]("m").
		State("b").
		State("a").On("Go", "b").
		Initial("a").
		Build()
	require.NoError(t, err)

	f, err := forward.Transition(forward.InitialState(), fsm.NewEvent("Go"))
	require.NoError(t, err)
	g, err := backward.Transition(backward.InitialState(), fsm.NewEvent("Go"))
	require.NoError(t, err)
	require.Equal(t, f.Value(), g.Value())
}

func TestMachineIdentity(t *testing.T) {
	a, err := fsm.New[struct{}]("m").State("a").Initial("a").Build()
	require.NoError(t, err)
	b, err := fsm.New[struct{}]("m").State("a").Initial("a").Build()
	require.NoError(t, err)

	require.Equal(t, "m", a.Name())
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
}
