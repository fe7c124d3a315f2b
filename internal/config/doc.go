// Package config loads, normalizes, and validates clipper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPPER_TELEGRAM_TOKEN. The Config type centralizes every knob the daemon and
// CLI need: working directories, external tool binaries, pipeline pacing, and
// status-message throttling.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
