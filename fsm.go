// Package fsm implements a hierarchical finite-state-machine engine.
//
// A machine is assembled once through a Builder and is immutable afterwards.
// All runtime mutation lives in the MachineState values returned by
// Transition: the engine is a pure function from (state, event) to a new
// state or an error, executes exit/transition/entry actions in a fixed
// order, and never partially applies a transition. History recording is
// layered on top by HistoryMachine so the machine definition itself stays
// read-only and safe to share across goroutines.
package fsm

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/cloud-shuttle/go-fsm/kinds"
)

/******* Event *******/

// Event is a discrete external stimulus. Events are immutable once
// dispatched; derive variants with WithData.
type Event struct {
	kind uint64
	name string
	id   string
	data any
}

func NewEvent(name string, maybeData ...any) Event {
	var data any
	if len(maybeData) > 0 {
		data = maybeData[0]
	}
	return Event{
		kind: kinds.Event,
		name: name,
		id:   uuid.NewString(),
		data: data,
	}
}

func (event Event) Kind() uint64 {
	if event.kind == 0 {
		return kinds.Event
	}
	return event.kind
}

func (event Event) Name() string {
	return event.name
}

func (event Event) QualifiedName() string {
	return event.name
}

func (event Event) ID() string {
	return event.id
}

func (event Event) Data() any {
	return event.data
}

func (event Event) WithData(data any) Event {
	return Event{
		kind: event.kind,
		name: event.name,
		id:   event.id,
		data: data,
	}
}

/******* StateValue *******/

// StateValue identifies the active state as a slash-separated path from
// the machine root, e.g. "/active/running". Equality is structural.
type StateValue struct {
	qualifiedName string
}

// Simple names a top-level state.
func Simple(name string) StateValue {
	return StateValue{qualifiedName: path.Join("/", name)}
}

// Compound names a state by its full descendant chain, outermost first.
func Compound(names ...string) StateValue {
	return StateValue{qualifiedName: path.Join(append([]string{"/"}, names...)...)}
}

func stateValueOf(qualifiedName string) StateValue {
	return StateValue{qualifiedName: path.Clean(qualifiedName)}
}

// Leaf returns the deepest active component.
func (value StateValue) Leaf() string {
	if value.qualifiedName == "" {
		return ""
	}
	return path.Base(value.qualifiedName)
}

// Path returns the descendant chain, outermost first.
func (value StateValue) Path() []string {
	if value.IsZero() {
		return nil
	}
	return strings.Split(strings.TrimPrefix(value.qualifiedName, "/"), "/")
}

func (value StateValue) QualifiedName() string {
	return value.qualifiedName
}

func (value StateValue) String() string {
	return value.qualifiedName
}

func (value StateValue) IsZero() bool {
	return value.qualifiedName == "" || value.qualifiedName == "/"
}

// LCA finds the lowest common ancestor between two qualified state names.
//
// For example:
// - LCA("/s/s1", "/s/s2") returns "/s"
// - LCA("/s/s1", "/s/s1/s11") returns "/s/s1"
// - LCA("/s/s1", "/s/s1") returns "/s"
func LCA(a, b string) string {
	// if both are the same the lca is the parent
	if a == b {
		return path.Dir(a)
	}
	// if one is empty the lca is the other
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	// if the parents are the same the lca is the parent
	if path.Dir(a) == path.Dir(b) {
		return path.Dir(a)
	}
	// if a is an ancestor of b the lca is a
	if IsAncestor(a, b) {
		return a
	}
	// if b is an ancestor of a the lca is b
	if IsAncestor(b, a) {
		return b
	}
	// otherwise the lca is the lca of the parents
	return LCA(path.Dir(a), path.Dir(b))
}

func IsAncestor(current, target string) bool {
	current = path.Clean(current)
	target = path.Clean(target)
	if current == target || current == "." || target == "." {
		return false
	}
	if current == "/" {
		return true
	}
	parent := path.Dir(target)
	for parent != "/" {
		if parent == current {
			return true
		}
		parent = path.Dir(parent)
	}
	return false
}
