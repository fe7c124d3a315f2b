// Package pipeline runs one user's acquisition-and-delivery job.
//
// Submit admits a job through the per-user gate, snapshots the user's session,
// and walks the job through resolving, timestamp extraction, acquisition,
// optional segmentation and ordered upload. Every stage reports progress
// through the status reporter. Cleanup runs on every exit path: the job
// directory is removed, the session cleared, the status reset to idle, and
// the gate released.
package pipeline
