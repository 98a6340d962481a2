/*
Package ports defines the driven ports (interfaces) of the editor.

These interfaces decouple sessions from external implementations, allowing projects to be
persisted in various backends and factories to come from various catalogs.

# Key Interfaces

  - ProjectStore: Responsible for saving and loading projects by name.
  - DistributedLocker: Provides distributed locking for concurrent edits of one project.
  - FactoryLoader: Responsible for loading factories from a catalog (e.g., HCL files).

The tests subpackage holds the contract suite every ProjectStore adapter runs.
*/
package ports
