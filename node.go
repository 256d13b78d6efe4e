package fsm

import (
	"github.com/cloud-shuttle/go-fsm/elements"
	"github.com/cloud-shuttle/go-fsm/kinds"
)

type guardRef[C any] struct {
	guard Guard[C] // nil when referenced by registry name
	name  string
}

type actionRef[C any] struct {
	action Action[C] // nil when referenced by registry name
	name   string
}

type transition[C any] struct {
	name          string
	qualifiedName string
	event         string
	source        string
	target        string // raw name until Build resolves it to a qualified name
	guards        []guardRef[C]
	actions       []actionRef[C]
}

type historyBinding struct {
	deep         bool
	defaultChild string
}

// node is one vertex of the owned state tree. Parents own children
// outright; ancestor lookup during event bubbling splits the qualified
// path instead of following back-pointers.
type node[C any] struct {
	name          string
	qualifiedName string
	kind          uint64
	entry         []actionRef[C]
	exit          []actionRef[C]
	transitions   map[string][]*transition[C]
	eventOrder    []string
	children      map[string]*node[C]
	childOrder    []string
	initial       string
	history       *historyBinding
}

func newNode[C any](name, qualifiedName string, kind uint64) *node[C] {
	return &node[C]{
		name:          name,
		qualifiedName: qualifiedName,
		kind:          kind,
		transitions:   map[string][]*transition[C]{},
		children:      map[string]*node[C]{},
	}
}

/******* elements.Node *******/

func (n *node[C]) Kind() uint64 {
	return n.kind
}

func (n *node[C]) Name() string {
	return n.name
}

func (n *node[C]) QualifiedName() string {
	return n.qualifiedName
}

func (n *node[C]) Children() []elements.Node {
	out := make([]elements.Node, 0, len(n.childOrder))
	for _, name := range n.childOrder {
		out = append(out, n.children[name])
	}
	return out
}

func (n *node[C]) InitialChild() string {
	if len(n.children) == 0 {
		return ""
	}
	return n.initial
}

func (n *node[C]) Transitions() []elements.Transition {
	out := []elements.Transition{}
	for _, event := range n.eventOrder {
		for _, t := range n.transitions[event] {
			out = append(out, t)
		}
	}
	return out
}

func (n *node[C]) EntryNames() []string {
	return actionRefNames(n.entry)
}

func (n *node[C]) ExitNames() []string {
	return actionRefNames(n.exit)
}

func (n *node[C]) HistoryBinding() (bool, string, bool) {
	if n.history == nil {
		return false, "", false
	}
	return n.history.deep, n.history.defaultChild, true
}

func actionRefNames[C any](refs []actionRef[C]) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		if ref.action != nil {
			out[i] = ref.action.Name()
		} else {
			out[i] = ref.name
		}
	}
	return out
}

/******* elements.Transition *******/

func (t *transition[C]) Kind() uint64 {
	return kinds.Transition
}

func (t *transition[C]) Name() string {
	return t.name
}

func (t *transition[C]) QualifiedName() string {
	return t.qualifiedName
}

func (t *transition[C]) Event() string {
	return t.event
}

func (t *transition[C]) Source() string {
	return t.source
}

func (t *transition[C]) Target() string {
	return t.target
}

func (t *transition[C]) GuardDescriptions() []string {
	out := make([]string, len(t.guards))
	for i, ref := range t.guards {
		if ref.guard != nil {
			out[i] = ref.guard.Description()
		} else {
			out[i] = ref.name
		}
	}
	return out
}

func (t *transition[C]) ActionNames() []string {
	return actionRefNames(t.actions)
}
