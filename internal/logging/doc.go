// Package logging wires log/slog for the batch pipeline: a pretty console
// handler for interactive runs, a JSON handler for log files, attr helpers,
// and context-derived fields (video id, stage) so every stage log line can be
// correlated with the item that produced it.
package logging
