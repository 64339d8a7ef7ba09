package procrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"dubber/internal/logging"
)

// DefaultGrace is the wait window applied after each termination signal.
const DefaultGrace = 2 * time.Second

// Command is a typed command descriptor: program plus argument vector. The
// contract with external tools is "argument vector in, exit code and files
// out", never a shell string.
type Command struct {
	Binary string
	Args   []string
	Dir    string
}

// Result captures the outcome of one supervised invocation.
type Result struct {
	// ExitCode is the process exit status; -1 when the process was killed.
	ExitCode int
	// TimedOut reports that the deadline elapsed and the process was
	// terminated, distinct from a normal non-zero exit.
	TimedOut bool
	Elapsed  time.Duration
	Stdout   string
	Stderr   string
}

// Success reports a clean zero exit within the deadline.
func (r Result) Success() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Runner executes commands with deadline supervision.
type Runner struct {
	grace  time.Duration
	logger *slog.Logger
}

// New constructs a Runner. A non-positive grace falls back to DefaultGrace.
func New(grace time.Duration, logger *slog.Logger) *Runner {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{grace: grace, logger: logger}
}

// Run launches the command and waits up to deadline (no deadline when zero).
// Spawn failures return an error; everything the process itself does,
// including non-zero exit and timeout kill, is reported through the Result. On context
// cancellation the child is terminated with the same graceful-then-forceful
// sequence and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, command Command, deadline time.Duration) (Result, error) {
	if command.Binary == "" {
		return Result{}, errors.New("command binary required")
	}

	cmd := exec.Command(command.Binary, command.Args...)
	cmd.Dir = command.Dir
	// Children run in their own process group so signals reach the whole
	// process tree, not only the immediate child (npx spawns grandchildren).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", command.Binary, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var deadlineCh <-chan time.Time
	if deadline > 0 {
		timer := time.NewTimer(deadline)
		defer timer.Stop()
		deadlineCh = timer.C
	}

	result := Result{ExitCode: -1}
	var runErr error

	select {
	case waitErr := <-done:
		result.ExitCode = exitCode(cmd, waitErr)
	case <-deadlineCh:
		r.logger.Warn("stage deadline exceeded, terminating process",
			logging.String("binary", command.Binary),
			logging.Duration("deadline", deadline),
		)
		r.terminate(cmd, done)
		result.TimedOut = true
	case <-ctx.Done():
		r.terminate(cmd, done)
		runErr = ctx.Err()
	}

	result.Elapsed = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	return result, runErr
}

// terminate applies the two-phase kill protocol: SIGTERM, bounded wait,
// SIGKILL, bounded wait. A process that survives both is abandoned; the
// failure to reap it is swallowed.
func (r *Runner) terminate(cmd *exec.Cmd, done <-chan error) {
	pid := cmd.Process.Pid

	signalGroup(pid, unix.SIGTERM)
	if waitWithin(done, r.grace) {
		return
	}

	signalGroup(pid, unix.SIGKILL)
	if !waitWithin(done, r.grace) {
		r.logger.Warn("process did not exit after kill", logging.Int("pid", pid))
	}
}

// signalGroup signals the whole process group, falling back to the single
// process when the group is gone.
func signalGroup(pid int, sig unix.Signal) {
	if err := unix.Kill(-pid, sig); err != nil {
		_ = unix.Kill(pid, sig)
	}
}

func waitWithin(done <-chan error, grace time.Duration) bool {
	select {
	case <-done:
		return true
	case <-time.After(grace):
		return false
	}
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if state := cmd.ProcessState; state != nil {
		return state.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
