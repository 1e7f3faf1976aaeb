// Package cli implements loom's command tree: run executes a computation
// graph loaded from a JSON fixture, gather runs it and prints the
// materialized result, and debug runs it with the event recorder attached,
// prints the recorded scheduler events as a table, and reports the elapsed
// time. Built on Cobra, the way both
// Sumatoshi-tech/codefang and cue-lang/cue structure their command trees.
package cli
