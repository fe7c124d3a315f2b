// Package registry persists the known chat users in SQLite: whether they are
// active and which message is their pinned status message.
//
// The store follows the same conventions as every SQLite file the daemon
// owns: WAL journaling, a busy timeout, and bounded retries when another
// connection holds the write lock. The schema is versioned; a mismatch asks
// the operator to clear the database rather than migrating silently.
package registry
