/*
Package session implements editing sessions and persistence orchestration.

A Manager keeps one fluxgraph.Editor per project name, loads projects from a
ports.ProjectStore on first access and saves them after every changing edit. Every access to a
name is serialized by a reference-counted local mutex and, across replicas, by an optional
ports.DistributedLocker.
*/
package session
