// Package registry holds the factories modules are built from.
//
// Factories are addressed by their "pack/factory" reference. NewDefault preloads the core
// pack; further packs are registered directly or loaded from a catalog (see pkg/adapters/hcl).
package registry
