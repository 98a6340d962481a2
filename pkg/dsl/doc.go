/*
Package dsl provides a Go DSL for programmatically constructing fluxgraph projects.

It allows developers to define workflows using a fluent builder instead of editing JSON or
YAML documents. Modules are named by aliases; the builder allocates the real identifiers
(m1, m2, c1, ...) when the project is built. This is particularly useful for fixtures, demos
and generated projects.

Example usage:

	b := dsl.New("pipeline")

	b.Add("source", "core/constant").At(0, 0)
	b.Add("sink", "core/relay").At(200, 0).Plugin("log", "core/logger")
	b.Connect("source.out1", "sink.in1").Via("data * 2")
	b.Group("inputs", "Inputs", "source")

	p, err := b.Build()
*/
package dsl
