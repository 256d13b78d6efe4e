// Package elements exposes the read-only view of a built machine graph.
// Exporters and trace hooks consume these interfaces so they never see
// the engine's mutable internals.
package elements

type Element interface {
	Kind() uint64
	Name() string
	QualifiedName() string
}

type Node interface {
	Element
	// Children are returned in declaration order.
	Children() []Node
	// InitialChild is the declared initial child name, empty for leaves.
	InitialChild() string
	Transitions() []Transition
	EntryNames() []string
	ExitNames() []string
	// HistoryBinding reports whether the node records history,
	// whether that history is deep, and the default child used on
	// first entry.
	HistoryBinding() (deep bool, defaultChild string, bound bool)
}

type Transition interface {
	Element
	Event() string
	Source() string
	Target() string
	GuardDescriptions() []string
	ActionNames() []string
}
