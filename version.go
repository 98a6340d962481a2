package fluxgraph

// Version is the release of the library and of the fluxgraph binary.
// Release builds override it with -ldflags "-X github.com/aretw0/fluxgraph.Version=...".
var Version = "0.1.0-dev"
