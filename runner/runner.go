// Package runner executes one target's compile command under the
// engine's I/O ownership (spec.md §4.E). It is realized with os/exec
// rather than raw fork/pipe/dup2/execvp: Cmd already owns fork+exec
// and the pipe plumbing, so there is nothing left for a hand-rolled
// syscall layer to add beyond matching the Setpgid convention the
// teacher pack uses for every exec'd child.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"
)

// Result is the outcome of running one target's command: the combined
// stdout+stderr captured in source order, how long the child ran, its
// pid (when one was actually spawned), and an error set on a non-zero
// exit, a signal, or an exec failure. A nil error means the child
// exited zero.
type Result struct {
	Output   []byte
	Elapsed  time.Duration
	Pid      int
	ExitCode int
	Err      error
}

// Run executes argv[0] with argv[1:] as arguments, capturing combined
// stdout and stderr into a single buffer so interleaved output is
// preserved byte-for-byte in arrival order, matching spec.md §5's
// "the child's single pipe serializes its own stdout and stderr"
// guarantee without a manual dup2 sequence. dir, if non-empty, sets
// the child's working directory.
func Run(ctx context.Context, argv []string, dir string) Result {
	if len(argv) == 0 {
		return Result{Err: errors.New("runner: empty argument vector")}
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if dir != "" {
		cmd.Dir = dir
	}

	// Setpgid puts the child in its own process group, and Cancel kills
	// that whole group when ctx is cancelled, not just the direct child —
	// the same convention the teacher's ContainerLogs uses for every
	// exec'd child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	// Start returns immediately — the non-blocking "fork returns,
	// parent doesn't block" step. An error here means exec itself
	// failed (no process ever existed), which Go reports synchronously
	// instead of through a child-side diagnostic-then-exit protocol.
	if err := cmd.Start(); err != nil {
		return Result{Output: buf.Bytes(), Elapsed: time.Since(start), ExitCode: -1, Err: err}
	}

	pid := cmd.Process.Pid
	err := cmd.Wait()
	res := Result{
		Output:  buf.Bytes(),
		Elapsed: time.Since(start),
		Pid:     pid,
	}
	if err == nil {
		res.ExitCode = 0
		return res
	}
	res.Err = err
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res
}
