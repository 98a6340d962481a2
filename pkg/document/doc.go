/*
Package document converts projects to and from their persisted form.

A Document references factories by "pack/factory" and stores adaptors as expression source, so
loading needs a factory registry and, to get executable adaptors, an adaptor compiler:

	p, err := document.Unmarshal(data, document.JSON, registry.NewDefault(), adaptor.NewCompiler())

Encoding is stable: a project decoded from encoded bytes encodes to the same bytes.
*/
package document
