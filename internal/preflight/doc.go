// Package preflight provides readiness checks for the filesystem paths and
// the Telegram Bot API that clipper depends on.
//
// The daemon calls RunAll before it starts polling; any failed check aborts
// startup. The CLI "clipper deps" command reuses CheckSystemDeps to render
// tool availability.
package preflight
