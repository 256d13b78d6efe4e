package fsm

import (
	"path"
	"strings"
	"sync"
)

// HistoryMachine decorates a Machine with history tracking. It observes
// every successful transition and records, for each history-bound
// compound state the transition vacated, the last active child (shallow)
// or the full active descendant path (deep). The machine definition
// itself stays immutable; the recording table is the only mutable state
// and is serialized with a mutex, though single-writer use is the
// intended discipline.
type HistoryMachine[C any] struct {
	*Machine[C]
	mu      sync.Mutex
	records map[string]string // compound qualified name -> recorded qualified name
	order   []string          // recording insertion order, for bounded eviction
}

func NewHistory[C any](m *Machine[C]) *HistoryMachine[C] {
	return &HistoryMachine[C]{
		Machine: m,
		records: map[string]string{},
	}
}

// Transition fires the underlying machine transition and, on success,
// records history for every history-bound compound state the previous
// leaf was vacated from.
func (h *HistoryMachine[C]) Transition(state MachineState[C], event Event) (MachineState[C], error) {
	next, err := h.Machine.Transition(state, event)
	if err != nil {
		return next, err
	}
	h.record(state.value, next.value)
	return next, nil
}

func (h *HistoryMachine[C]) record(prev, next StateValue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for q := path.Dir(prev.qualifiedName); q != "/" && q != "."; q = path.Dir(q) {
		n, ok := h.namespace[q]
		if !ok || n.history == nil {
			continue
		}
		if q == next.qualifiedName || IsAncestor(q, next.qualifiedName) {
			// still inside this compound state, nothing was vacated
			continue
		}
		if n.history.deep {
			h.store(q, prev.qualifiedName)
		} else {
			child := strings.SplitN(strings.TrimPrefix(prev.qualifiedName, q+"/"), "/", 2)[0]
			h.store(q, path.Join(q, child))
		}
	}
}

func (h *HistoryMachine[C]) store(id, recorded string) {
	if _, seen := h.records[id]; !seen {
		h.order = append(h.order, id)
		if h.maxHistory > 0 && len(h.order) > h.maxHistory {
			oldest := h.order[0]
			h.order = h.order[1:]
			delete(h.records, oldest)
		}
	}
	h.records[id] = recorded
}

// TransitionToHistory re-enters the named history-bound compound state
// at its last recorded configuration, or its default child when nothing
// has been recorded yet. It is a pure state-value substitution: no entry
// or exit actions run and the context is carried over unchanged. The
// second return value is false only when historyID does not name a
// history-bound state of this machine; callers that want action
// semantics should route the result through a synthetic transition.
func (h *HistoryMachine[C]) TransitionToHistory(state MachineState[C], historyID string) (MachineState[C], bool) {
	var zero MachineState[C]
	n := h.find(historyID)
	if n == nil || n.history == nil {
		return zero, false
	}
	h.mu.Lock()
	recorded, ok := h.records[n.qualifiedName]
	h.mu.Unlock()
	if !ok {
		recorded = path.Join(n.qualifiedName, n.history.defaultChild)
	}
	target, ok := h.namespace[recorded]
	if !ok {
		return zero, false
	}
	// a shallow recording may name a compound child; descend to its leaf
	leaf := h.initialLeaf(target)
	return MachineState[C]{value: stateValueOf(leaf.qualifiedName), context: state.context}, true
}

// Clear drops the recording for one history-bound state; its next
// restoration falls back to the default child.
func (h *HistoryMachine[C]) Clear(historyID string) {
	n := h.find(historyID)
	if n == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.records[n.qualifiedName]; !ok {
		return
	}
	delete(h.records, n.qualifiedName)
	for i, id := range h.order {
		if id == n.qualifiedName {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}
