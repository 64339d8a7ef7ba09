// Package procrun launches external tools as supervised child processes with
// a hard wall-clock deadline. A process that outlives its deadline receives a
// graceful termination signal, then a forced kill after a bounded grace
// window; the same escalation handles operator cancellation. A timed-out run
// is reported distinctly from a normal non-zero exit so callers can log the
// right failure reason.
package procrun
