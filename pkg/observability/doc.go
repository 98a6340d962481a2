/*
Package observability exports Prometheus metrics about editing sessions.

Metrics is a history.Observer: register it on a Store (history.WithObserver) and it counts
transitions, rejected transitions and change notifications per category, and tracks the size
of the current document and of the history.
*/
package observability
