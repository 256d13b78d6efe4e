package fsm

import (
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/cloud-shuttle/go-fsm/kinds"
	"github.com/cloud-shuttle/go-fsm/pkg/set"
)

// Builder assembles a machine definition through a fluent call chain:
//
//	machine, err := fsm.New[Light]("traffic").
//		State("red").On("Next", "green").
//		State("green").On("Next", "yellow").
//		State("yellow").On("Next", "red").
//		Initial("red").
//		Build()
//
// Call legality is enforced at run time: On before any State, Parent
// without ChildState, and similar misuse are collected and reported by
// Build as a ConstructionError rather than panicking mid-chain. A
// builder produces exactly one machine; it must not be reused.
type Builder[C any] struct {
	machineName    string
	root           *node[C]
	scope          []*node[C] // innermost enclosing compound scope last
	current        *node[C]
	trans          *transition[C]
	initialContext C
	guards         map[string]Guard[C]
	actions        map[string]Action[C]
	defined        set.Set[string]
	errs           []error
	built          bool
}

// New opens a builder for a machine with the given name.
func New[C any](name string) *Builder[C] {
	root := newNode[C](name, "/", kinds.Machine)
	return &Builder[C]{
		machineName: name,
		root:        root,
		scope:       []*node[C]{root},
		guards:      map[string]Guard[C]{},
		actions:     map[string]Action[C]{},
		defined:     set.New[string](),
	}
}

func (b *Builder[C]) fail(format string, args ...any) *Builder[C] {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
	return b
}

func (b *Builder[C]) parentScope() *node[C] {
	return b.scope[len(b.scope)-1]
}

// State closes the previous state's definition and opens a new one in
// the current scope. Declaration order does not affect the resulting
// graph, only which state subsequent calls configure.
func (b *Builder[C]) State(name string) *Builder[C] {
	if name == "" {
		return b.fail("%w: empty state name", ErrUndefinedState)
	}
	owner := b.parentScope()
	qualifiedName := path.Join(owner.qualifiedName, name)
	if b.defined.Contains(qualifiedName) {
		return b.fail("%w: %q", ErrDuplicateState, qualifiedName)
	}
	b.defined.Add(qualifiedName)
	n := newNode[C](name, qualifiedName, kinds.Simple)
	owner.children[name] = n
	owner.childOrder = append(owner.childOrder, name)
	b.current = n
	b.trans = nil
	return b
}

// Initial declares the initial state of the current scope: the machine's
// initial state at the top level, the initial child inside ChildState.
func (b *Builder[C]) Initial(name string) *Builder[C] {
	b.parentScope().initial = name
	return b
}

// On opens a transition from the current state.
func (b *Builder[C]) On(event, target string) *Builder[C] {
	if b.current == nil {
		return b.fail("%w: On(%q, %q) before any State", ErrBuilderMisuse, event, target)
	}
	name := fmt.Sprintf("%s_%d", event, len(b.current.transitions[event]))
	t := &transition[C]{
		name:          name,
		qualifiedName: path.Join(b.current.qualifiedName, name),
		event:         event,
		source:        b.current.qualifiedName,
		target:        target,
	}
	if _, seen := b.current.transitions[event]; !seen {
		b.current.eventOrder = append(b.current.eventOrder, event)
	}
	b.current.transitions[event] = append(b.current.transitions[event], t)
	b.trans = t
	return b
}

// Guard appends a guard to the open transition. All guards of a
// transition must pass for it to fire.
func (b *Builder[C]) Guard(guard Guard[C]) *Builder[C] {
	if b.trans == nil {
		return b.fail("%w: Guard before any On", ErrBuilderMisuse)
	}
	b.trans.guards = append(b.trans.guards, guardRef[C]{guard: guard})
	return b
}

// GuardFunc appends an inline predicate to the open transition.
func (b *Builder[C]) GuardFunc(description string, fn func(ctx *C, event Event) bool) *Builder[C] {
	return b.Guard(Predicate(description, fn))
}

// GuardNamed appends a guard resolved by name from the registry. In
// strict mode unresolved names fail Build; otherwise they surface as
// ErrMissingGuard at transition time.
func (b *Builder[C]) GuardNamed(name string) *Builder[C] {
	if b.trans == nil {
		return b.fail("%w: GuardNamed(%q) before any On", ErrBuilderMisuse, name)
	}
	b.trans.guards = append(b.trans.guards, guardRef[C]{name: name})
	return b
}

// Do appends an action to the open transition, executed after exit
// actions and before entry actions.
func (b *Builder[C]) Do(action Action[C]) *Builder[C] {
	if b.trans == nil {
		return b.fail("%w: Do(%q) before any On", ErrBuilderMisuse, action.Name())
	}
	b.trans.actions = append(b.trans.actions, actionRef[C]{action: action})
	return b
}

// DoFunc appends an inline action to the open transition.
func (b *Builder[C]) DoFunc(name string, fn func(ctx *C, event Event) error) *Builder[C] {
	return b.Do(ActionFunc(name, fn))
}

// DoNamed appends an action resolved by name from the registry.
func (b *Builder[C]) DoNamed(name string) *Builder[C] {
	if b.trans == nil {
		return b.fail("%w: DoNamed(%q) before any On", ErrBuilderMisuse, name)
	}
	b.trans.actions = append(b.trans.actions, actionRef[C]{name: name})
	return b
}

// OnEntry appends an entry action to the current state.
func (b *Builder[C]) OnEntry(action Action[C]) *Builder[C] {
	if b.current == nil {
		return b.fail("%w: OnEntry before any State", ErrBuilderMisuse)
	}
	b.current.entry = append(b.current.entry, actionRef[C]{action: action})
	return b
}

func (b *Builder[C]) OnEntryFunc(name string, fn func(ctx *C, event Event) error) *Builder[C] {
	return b.OnEntry(ActionFunc(name, fn))
}

// OnExit appends an exit action to the current state.
func (b *Builder[C]) OnExit(action Action[C]) *Builder[C] {
	if b.current == nil {
		return b.fail("%w: OnExit before any State", ErrBuilderMisuse)
	}
	b.current.exit = append(b.current.exit, actionRef[C]{action: action})
	return b
}

func (b *Builder[C]) OnExitFunc(name string, fn func(ctx *C, event Event) error) *Builder[C] {
	return b.OnExit(ActionFunc(name, fn))
}

// ChildState turns the current state into a compound state and opens a
// child inside it. Close the sub-definition with Parent.
func (b *Builder[C]) ChildState(name string) *Builder[C] {
	if b.current == nil {
		return b.fail("%w: ChildState(%q) before any State", ErrBuilderMisuse, name)
	}
	b.current.kind = kinds.Compound
	b.scope = append(b.scope, b.current)
	return b.State(name)
}

// Parent closes the current ChildState scope and makes the enclosing
// compound state current again.
func (b *Builder[C]) Parent() *Builder[C] {
	if len(b.scope) == 1 {
		return b.fail("%w: Parent without ChildState", ErrBuilderMisuse)
	}
	b.current = b.scope[len(b.scope)-1]
	b.scope = b.scope[:len(b.scope)-1]
	b.trans = nil
	return b
}

// Final marks the current state terminal: it may declare no outgoing
// transitions and rejects every event at run time.
func (b *Builder[C]) Final() *Builder[C] {
	if b.current == nil {
		return b.fail("%w: Final before any State", ErrBuilderMisuse)
	}
	b.current.kind = kinds.Final
	return b
}

// History binds shallow history to the current compound state: the
// machine remembers its last active direct child. The optional argument
// overrides the default target used before any recording exists; it
// defaults to the state's initial child.
func (b *Builder[C]) History(maybeDefault ...string) *Builder[C] {
	return b.history(false, maybeDefault...)
}

// DeepHistory binds deep history: the machine remembers the full active
// descendant path.
func (b *Builder[C]) DeepHistory(maybeDefault ...string) *Builder[C] {
	return b.history(true, maybeDefault...)
}

func (b *Builder[C]) history(deep bool, maybeDefault ...string) *Builder[C] {
	if b.current == nil {
		return b.fail("%w: History before any State", ErrBuilderMisuse)
	}
	binding := &historyBinding{deep: deep}
	if len(maybeDefault) > 0 {
		binding.defaultChild = maybeDefault[0]
	}
	b.current.history = binding
	return b
}

// InitialContext sets the context value carried by the machine's initial
// state.
func (b *Builder[C]) InitialContext(ctx C) *Builder[C] {
	b.initialContext = ctx
	return b
}

// RegisterGuard registers a guard under a name for GuardNamed wiring.
func (b *Builder[C]) RegisterGuard(name string, guard Guard[C]) *Builder[C] {
	b.guards[name] = guard
	return b
}

// RegisterAction registers an action under a name for DoNamed wiring.
func (b *Builder[C]) RegisterAction(name string, action Action[C]) *Builder[C] {
	b.actions[name] = action
	return b
}

// Build validates the definition and produces the immutable machine. No
// entry actions run at build time.
func (b *Builder[C]) Build(opts ...Option[C]) (*Machine[C], error) {
	if b.built {
		return nil, &ConstructionError{Problems: []error{
			fmt.Errorf("%w: builder already consumed by Build", ErrBuilderMisuse),
		}}
	}
	b.built = true

	problems := append([]error{}, b.errs...)
	if b.defined.Size() == 0 {
		problems = append(problems, ErrNoStates)
		return nil, &ConstructionError{Problems: problems}
	}

	namespace := map[string]*node[C]{}
	b.index(b.root, namespace)

	m := &Machine[C]{
		name:           b.machineName,
		id:             uuid.NewString(),
		root:           b.root,
		namespace:      namespace,
		initialContext: b.initialContext,
		guards:         b.guards,
		actions:        b.actions,
	}
	for _, opt := range opts {
		opt(m)
	}

	b.validate(b.root, namespace, m.strict, &problems)

	if len(problems) > 0 {
		return nil, &ConstructionError{Problems: problems}
	}
	return m, nil
}

func (b *Builder[C]) index(n *node[C], namespace map[string]*node[C]) {
	namespace[n.qualifiedName] = n
	for _, name := range n.childOrder {
		b.index(n.children[name], namespace)
	}
}

func (b *Builder[C]) validate(n *node[C], namespace map[string]*node[C], strict bool, problems *[]error) {
	if len(n.children) > 0 {
		if n != b.root && !kinds.IsKind(n.kind, kinds.Compound) {
			n.kind = kinds.Compound
		}
		if n.initial == "" {
			if n == b.root {
				*problems = append(*problems, ErrNoInitial)
			} else {
				*problems = append(*problems, fmt.Errorf("%w: %q", ErrNoInitialChild, n.qualifiedName))
			}
		} else if _, ok := n.children[n.initial]; !ok {
			*problems = append(*problems, fmt.Errorf("%w: initial %q of %q", ErrUndefinedState, n.initial, n.qualifiedName))
		}
	}

	if n.history != nil {
		if len(n.children) == 0 {
			*problems = append(*problems, fmt.Errorf("%w: history on leaf %q", ErrBuilderMisuse, n.qualifiedName))
		} else {
			if n.history.defaultChild == "" {
				n.history.defaultChild = n.initial
			}
			if _, ok := n.children[n.history.defaultChild]; !ok {
				*problems = append(*problems, fmt.Errorf("%w: history default %q of %q", ErrUndefinedState, n.history.defaultChild, n.qualifiedName))
			}
		}
	}

	if kinds.IsKind(n.kind, kinds.Final) && len(n.eventOrder) > 0 {
		*problems = append(*problems, fmt.Errorf("%w: %q", ErrFinalTransition, n.qualifiedName))
	}

	for _, event := range n.eventOrder {
		for _, t := range n.transitions[event] {
			target, err := resolveTarget(namespace, n, t.target)
			if err != nil {
				*problems = append(*problems, err)
				continue
			}
			t.target = target
			if strict {
				b.validateRefs(t, problems)
			}
		}
	}

	for _, name := range n.childOrder {
		b.validate(n.children[name], namespace, strict, problems)
	}
}

// validateRefs checks name-based guard/action wiring at build time;
// only strict mode calls it, otherwise unresolved names are tolerated
// until transition time.
func (b *Builder[C]) validateRefs(t *transition[C], problems *[]error) {
	for _, ref := range t.guards {
		if ref.guard == nil {
			if _, ok := b.guards[ref.name]; !ok {
				*problems = append(*problems, fmt.Errorf("%w: %q on %q", ErrMissingGuard, ref.name, t.qualifiedName))
			}
		}
	}
	for _, ref := range t.actions {
		if ref.action == nil {
			if _, ok := b.actions[ref.name]; !ok {
				*problems = append(*problems, fmt.Errorf("%w: %q on %q", ErrMissingAction, ref.name, t.qualifiedName))
			}
		}
	}
}

// resolveTarget turns a transition's declared target into a qualified
// name: absolute paths verbatim, then the source's siblings, then the
// source's own children, then a unique basename match anywhere in the
// graph.
func resolveTarget[C any](namespace map[string]*node[C], source *node[C], raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty target on %q", ErrUndefinedState, source.qualifiedName)
	}
	if path.IsAbs(raw) {
		qualified := path.Clean(raw)
		if _, ok := namespace[qualified]; !ok {
			return "", fmt.Errorf("%w: target %q on %q", ErrUndefinedState, raw, source.qualifiedName)
		}
		return qualified, nil
	}
	if sibling := path.Join(path.Dir(source.qualifiedName), raw); namespace[sibling] != nil {
		return sibling, nil
	}
	if child := path.Join(source.qualifiedName, raw); namespace[child] != nil {
		return child, nil
	}
	matches := []string{}
	for qualified := range namespace {
		if path.Base(qualified) == raw && qualified != "/" {
			matches = append(matches, qualified)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("%w: target %q on %q", ErrUndefinedState, raw, source.qualifiedName)
	default:
		return "", fmt.Errorf("%w: target %q on %q is ambiguous", ErrUndefinedState, raw, source.qualifiedName)
	}
}
