// Package main hosts the clipper CLI entrypoint and command graph.
//
// The Cobra command tree runs the chat daemon in the foreground, runs a single
// job against a local output directory with fetch, and inspects configuration,
// external tools and the user registry. Functionality lives in the internal
// packages; commands here only resolve configuration and render output.
package main
