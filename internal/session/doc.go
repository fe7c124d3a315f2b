// Package session owns the per-user state of the chat flow: the pending
// source link with its kind and mode toggles (Store), and the per-user job
// exclusivity lock (Gate).
//
// Both are keyed by user id and injected into the bot and pipeline rather
// than held as package globals. Gate admission is try-only: a user with a job
// in flight is rejected, never queued.
package session
