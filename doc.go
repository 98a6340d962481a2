/*
Package fluxgraph is the graph state engine behind a visual workflow builder.

A project is a graph of modules built from factories, wired by connections between their
output and input slots, and organized into a tree of nested layers. Every entity is an
immutable value: an edit produces a new project and consumers compare entities by identity.

# Concept

Edits are pure functions (package edit) from one project snapshot to the next. The Editor
commits their results to a history (package history), which diffs consecutive workflows
(domain.DiffWorkflows), reconciles the live dataflow wiring (package dataflow) and only then
notifies its observers. Undo and redo are transitions like any other: the wiring always
matches the connections of the current snapshot.

# Usage

	e, err := fluxgraph.New(domain.NewProject("demo"))
	if err != nil {
		log.Fatal(err)
	}
	defer e.Close()

	ctx := context.Background()
	m1, _ := e.AddModule(ctx, "core/relay", edit.Position{X: 0, Y: 0})
	m2, _ := e.AddModule(ctx, "core/relay", edit.Position{X: 200, Y: 0})
	_, err = e.Connect(ctx,
		domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "out1"},
		domain.SlotRef{ModuleID: m2.ModuleID, SlotID: "in1"})

	// Values emitted on m1.out1 now reach m2.in1.
	m1.Outputs[0].Emit(domain.Message{Data: "hello"})

	_, _ = e.Undo(ctx) // the connection and its wiring are gone

Projects are persisted with package document (JSON or YAML) and stored through the
ports.ProjectStore adapters; pkg/session serializes concurrent access for servers.
*/
package fluxgraph
