// Package services defines shared utilities consumed by the delivery pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp user IDs, job IDs, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper so pipeline failures can
//     be classified (resolution, acquisition, per-segment failures) without
//     string matching.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
