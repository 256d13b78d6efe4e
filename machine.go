package fsm

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/cloud-shuttle/go-fsm/elements"
	"github.com/cloud-shuttle/go-fsm/kinds"
)

// MachineState is the externally visible runtime value: the active state
// plus the context carried alongside it. Each successful Transition
// produces a fresh instance; the input is never mutated, which keeps
// change detection and time travel trivial for callers.
type MachineState[C any] struct {
	value   StateValue
	context C
}

func (state MachineState[C]) Value() StateValue {
	return state.value
}

func (state MachineState[C]) Context() C {
	return state.context
}

// Trace observes engine steps. It is called with the step name and the
// elements involved and returns an end function invoked when the step
// completes, matching the begin/end span shape of tracing backends.
type Trace func(step string, elems ...elements.Element) func(...any)

// Option applies configuration at Build time.
type Option[C any] func(*Machine[C])

// WithLogger attaches a structured logger; the engine logs transitions
// at debug level.
func WithLogger[C any](logger *slog.Logger) Option[C] {
	return func(m *Machine[C]) {
		m.logger = logger
	}
}

// WithTrace attaches a trace hook. See pkg/telemetry for an
// OpenTelemetry adapter.
func WithTrace[C any](trace Trace) Option[C] {
	return func(m *Machine[C]) {
		m.trace = trace
	}
}

// WithStrict makes Build fail on name-based guard/action references that
// are not registered, instead of deferring them to transition time.
func WithStrict[C any]() Option[C] {
	return func(m *Machine[C]) {
		m.strict = true
	}
}

// WithMaxHistory bounds the number of compound states a HistoryMachine
// keeps recordings for; the oldest recording is evicted first. Zero
// means unbounded.
func WithMaxHistory[C any](n int) Option[C] {
	return func(m *Machine[C]) {
		m.maxHistory = n
	}
}

// Machine owns the state node graph, the registered named guards and
// actions, and the initial state and context. It is immutable after
// Build and safe to share across goroutines as long as C and the event
// payloads are.
type Machine[C any] struct {
	name           string
	id             string
	root           *node[C]
	namespace      map[string]*node[C]
	initialContext C
	guards         map[string]Guard[C]
	actions        map[string]Action[C]
	strict         bool
	maxHistory     int
	logger         *slog.Logger
	trace          Trace
}

func (m *Machine[C]) Name() string {
	return m.name
}

func (m *Machine[C]) ID() string {
	return m.id
}

// Graph exposes the read-only definition, e.g. for pkg/plantuml.
func (m *Machine[C]) Graph() elements.Node {
	return m.root
}

// InitialState returns the machine's starting point: the declared
// initial state resolved down to its leaf, paired with the initial
// context. No entry actions run.
func (m *Machine[C]) InitialState() MachineState[C] {
	leaf := m.initialLeaf(m.root)
	return MachineState[C]{value: stateValueOf(leaf.qualifiedName), context: m.initialContext}
}

func (m *Machine[C]) initialLeaf(n *node[C]) *node[C] {
	for len(n.children) > 0 {
		child, ok := n.children[n.initial]
		if !ok {
			return n
		}
		n = child
	}
	return n
}

func (m *Machine[C]) parent(n *node[C]) *node[C] {
	if n == nil || n.qualifiedName == "/" {
		return nil
	}
	return m.namespace[path.Dir(n.qualifiedName)]
}

// find resolves a state reference: absolute qualified names verbatim,
// otherwise a unique basename match anywhere in the graph.
func (m *Machine[C]) find(name string) *node[C] {
	if name == "" {
		return nil
	}
	if path.IsAbs(name) {
		return m.namespace[path.Clean(name)]
	}
	var match *node[C]
	for qualified, n := range m.namespace {
		if qualified == "/" || path.Base(qualified) != name {
			continue
		}
		if match != nil {
			return nil
		}
		match = n
	}
	return match
}

// candidates returns the node owning the transitions consulted for the
// event and those transitions in declaration order. Ancestors are
// consulted only when the leaf declares zero transitions for the event.
func (m *Machine[C]) candidates(leaf *node[C], event string) (*node[C], []*transition[C]) {
	for n := leaf; n != nil; n = m.parent(n) {
		if list := n.transitions[event]; len(list) > 0 {
			return n, list
		}
	}
	return nil, nil
}

func (m *Machine[C]) resolveGuard(ref guardRef[C]) (Guard[C], error) {
	if ref.guard != nil {
		return ref.guard, nil
	}
	guard, ok := m.guards[ref.name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingGuard, ref.name)
	}
	return guard, nil
}

func (m *Machine[C]) resolveAction(ref actionRef[C]) (Action[C], error) {
	if ref.action != nil {
		return ref.action, nil
	}
	action, ok := m.actions[ref.name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingAction, ref.name)
	}
	return action, nil
}

// selectTransition picks the first candidate whose full guard list
// passes, evaluated left to right with short-circuit on the first
// rejection. A rejecting Explained guard leaves its reason behind.
func (m *Machine[C]) selectTransition(candidates []*transition[C], ctx *C, event Event) (*transition[C], string, error) {
	reason := ""
	for _, candidate := range candidates {
		enabled := true
		for _, ref := range candidate.guards {
			guard, err := m.resolveGuard(ref)
			if err != nil {
				return nil, "", err
			}
			if m.trace != nil {
				end := m.trace("guard", candidate)
				ok := guard.Check(ctx, event)
				end(ok)
				if ok {
					continue
				}
			} else if guard.Check(ctx, event) {
				continue
			}
			if reasoner, ok := guard.(guardReasoner); ok && reason == "" {
				reason = reasoner.guardReason()
			}
			enabled = false
			break
		}
		if enabled {
			return candidate, "", nil
		}
	}
	return nil, reason, nil
}

type step[C any] struct {
	phase   string
	element elements.Element
	action  Action[C]
}

// plan resolves every action of the exit/effect/entry sequence before
// anything executes, so a missing named action can never leave a
// transition half applied.
func (m *Machine[C]) plan(exiting []*node[C], chosen *transition[C], entering []*node[C]) ([]step[C], error) {
	steps := []step[C]{}
	for _, n := range exiting {
		for _, ref := range n.exit {
			action, err := m.resolveAction(ref)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step[C]{phase: "exit", element: n, action: action})
		}
	}
	for _, ref := range chosen.actions {
		action, err := m.resolveAction(ref)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step[C]{phase: "effect", element: chosen, action: action})
	}
	for _, n := range entering {
		for _, ref := range n.entry {
			action, err := m.resolveAction(ref)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step[C]{phase: "entry", element: n, action: action})
		}
	}
	return steps, nil
}

// exitChain lists the vacated nodes from the leaf up to, excluding, the
// lowest common ancestor.
func (m *Machine[C]) exitChain(leaf *node[C], lca string) []*node[C] {
	chain := []*node[C]{}
	for q := leaf.qualifiedName; q != lca && q != "/" && q != "."; q = path.Dir(q) {
		if n, ok := m.namespace[q]; ok {
			chain = append(chain, n)
		}
	}
	return chain
}

// entryChain lists the entered nodes from just below the lowest common
// ancestor down to the target, then keeps descending through initial
// children to the final leaf.
func (m *Machine[C]) entryChain(lca string, target *node[C]) []*node[C] {
	chain := []*node[C]{}
	for q := target.qualifiedName; q != lca && q != "/" && q != "."; q = path.Dir(q) {
		if n, ok := m.namespace[q]; ok {
			chain = append([]*node[C]{n}, chain...)
		}
	}
	for n := target; len(n.children) > 0; {
		child, ok := n.children[n.initial]
		if !ok {
			break
		}
		chain = append(chain, child)
		n = child
	}
	return chain
}

// Transition resolves and fires the transition for (state, event). All
// guards are validated before any action runs: on error the returned
// state is the zero value and the caller's input remains valid. On
// success it returns the new immutable MachineState with the mutated
// context.
func (m *Machine[C]) Transition(state MachineState[C], event Event) (MachineState[C], error) {
	var zero MachineState[C]
	leaf, ok := m.namespace[state.value.qualifiedName]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrInvalidState, state.value.qualifiedName)
	}
	if m.trace != nil {
		defer m.trace("transition", leaf, event)()
	}
	if kinds.IsKind(leaf.kind, kinds.Final) {
		return zero, fmt.Errorf("%w: %q is final", ErrInvalidTransition, state.value.qualifiedName)
	}

	source, candidates := m.candidates(leaf, event.Name())
	if len(candidates) == 0 {
		return zero, fmt.Errorf("%w: event %q in state %q", ErrInvalidTransition, event.Name(), state.value.qualifiedName)
	}

	// guards must not observe action effects, so they run on a scratch
	// copy of the context
	scratch := state.context
	chosen, reason, err := m.selectTransition(candidates, &scratch, event)
	if err != nil {
		return zero, err
	}
	if chosen == nil {
		if reason != "" {
			return zero, fmt.Errorf("%w: %s", ErrGuardFailed, reason)
		}
		return zero, fmt.Errorf("%w: event %q in state %q", ErrInvalidTransition, event.Name(), state.value.qualifiedName)
	}

	target, ok := m.namespace[chosen.target]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrInvalidState, chosen.target)
	}
	lca := LCA(source.qualifiedName, chosen.target)
	exiting := m.exitChain(leaf, lca)
	entering := m.entryChain(lca, target)

	steps, err := m.plan(exiting, chosen, entering)
	if err != nil {
		return zero, err
	}

	ctx := state.context
	for _, s := range steps {
		var end func(...any)
		if m.trace != nil {
			end = m.trace(s.phase, s.element)
		}
		err := s.action.Execute(&ctx, event)
		if end != nil {
			end(err)
		}
		if err != nil {
			return zero, fmt.Errorf("%w: action %q: %v", ErrContext, s.action.Name(), err)
		}
	}

	final := target
	if len(entering) > 0 {
		final = entering[len(entering)-1]
	}
	next := MachineState[C]{value: stateValueOf(final.qualifiedName), context: ctx}
	if m.logger != nil {
		m.logger.Debug("transition",
			"machine", m.name,
			"event", event.Name(),
			"from", state.value.qualifiedName,
			"to", next.value.qualifiedName,
		)
	}
	return next, nil
}

// CanTransition reports whether some transition is enabled for (state,
// event) without running any action.
func (m *Machine[C]) CanTransition(state MachineState[C], event Event) bool {
	leaf, ok := m.namespace[state.value.qualifiedName]
	if !ok || kinds.IsKind(leaf.kind, kinds.Final) {
		return false
	}
	_, candidates := m.candidates(leaf, event.Name())
	if len(candidates) == 0 {
		return false
	}
	scratch := state.context
	chosen, _, err := m.selectTransition(candidates, &scratch, event)
	return err == nil && chosen != nil
}
