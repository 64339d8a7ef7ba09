// Package preflight provides readiness checks for the external tools,
// directories, and services a run depends on.
//
// The run command executes RunAll before dispatching a batch so a missing
// binary or full disk fails fast instead of after minutes of translation
// work. The deps command reuses the individual checks for display.
package preflight
