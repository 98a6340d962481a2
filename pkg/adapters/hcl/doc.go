// Package hcl loads factory catalogs written in HCL.
//
// A catalog declares packs of factories with their kind, configuration fields and slots. The
// Loader implements ports.FactoryLoader and ports.Watchable, so catalogs can be registered in a
// registry.Registry and reloaded when they change.
package hcl
