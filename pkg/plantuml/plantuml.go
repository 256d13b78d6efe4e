// Package plantuml renders a machine definition as a PlantUML state
// diagram. It consumes the read-only elements view, so it works on any
// built machine without touching engine internals.
package plantuml

import (
	"fmt"
	"path"
	"strings"

	"github.com/cloud-shuttle/go-fsm/elements"
	"github.com/cloud-shuttle/go-fsm/kinds"
)

func id(qualifiedName string) string {
	trimmed := strings.TrimPrefix(qualifiedName, "/")
	return strings.ReplaceAll(strings.ReplaceAll(trimmed, "-", "_"), "/", ".")
}

// Generate renders the graph rooted at root, typically
// Machine.Graph().
func Generate(root elements.Node) string {
	builder := &strings.Builder{}
	builder.WriteString("@startuml\n")
	if root.InitialChild() != "" {
		fmt.Fprintf(builder, "[*] --> %s\n", id(path.Join(root.QualifiedName(), root.InitialChild())))
	}
	for _, child := range root.Children() {
		generateState(builder, 0, child)
	}
	for _, child := range root.Children() {
		generateTransitions(builder, child)
	}
	builder.WriteString("@enduml\n")
	return builder.String()
}

func generateState(builder *strings.Builder, depth int, node elements.Node) {
	indent := strings.Repeat(" ", depth*2)
	stateID := id(node.QualifiedName())
	children := node.Children()
	if len(children) == 0 {
		tag := ""
		if kinds.IsKind(node.Kind(), kinds.Final) {
			tag = " <<end>>"
		}
		fmt.Fprintf(builder, "%sstate %s%s\n", indent, stateID, tag)
	} else {
		fmt.Fprintf(builder, "%sstate %s {\n", indent, stateID)
		if node.InitialChild() != "" {
			fmt.Fprintf(builder, "%s  [*] --> %s\n", indent, id(path.Join(node.QualifiedName(), node.InitialChild())))
		}
		if deep, _, bound := node.HistoryBinding(); bound {
			marker := "[H]"
			if deep {
				marker = "[H*]"
			}
			fmt.Fprintf(builder, "%s  state \"%s\" as %s.history\n", indent, marker, stateID)
		}
		for _, child := range children {
			generateState(builder, depth+1, child)
		}
		fmt.Fprintf(builder, "%s}\n", indent)
	}
	for _, entry := range node.EntryNames() {
		fmt.Fprintf(builder, "%sstate %s: entry / %s\n", indent, stateID, entry)
	}
	for _, exit := range node.ExitNames() {
		fmt.Fprintf(builder, "%sstate %s: exit / %s\n", indent, stateID, exit)
	}
}

func generateTransitions(builder *strings.Builder, node elements.Node) {
	for _, transition := range node.Transitions() {
		label := transition.Event()
		if guards := transition.GuardDescriptions(); len(guards) > 0 {
			label += " [" + strings.Join(guards, " && ") + "]"
		}
		if actions := transition.ActionNames(); len(actions) > 0 {
			label += " / " + strings.Join(actions, ", ")
		}
		fmt.Fprintf(builder, "%s --> %s: %s\n", id(transition.Source()), id(transition.Target()), label)
	}
	for _, child := range node.Children() {
		generateTransitions(builder, child)
	}
}
