package sqlite

// Registers the "sqlite" driver used by Open.
import _ "modernc.org/sqlite"
