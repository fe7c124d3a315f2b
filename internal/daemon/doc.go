// Package daemon coordinates the long-running clipper process.
//
// It holds a flock-based lock so only one instance polls the bot account,
// resets every active user's status message at startup, and serves the HTTP
// listener with health, Prometheus metrics and running-job status. Chat
// handling lives in the bot package and job execution in the pipeline
// package; the daemon only owns startup, shutdown and reporting.
package daemon
