// Package debugshell implements the optional interactive fallback on
// target failure (SPEC_FULL.md §4.O), grounded on distr1-distri's
// build-step-failure pattern (cmd/zi/zi.go: "build step failed (%v),
// starting debug shell", which drops to an interactive `bash -i` with
// stdin/stdout/stderr wired to the terminal). ccm generalizes that to
// a real pty so job-control and terminal resizing work inside the
// shell, using the user's preferred shell instead of a hardcoded bash.
package debugshell

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/creack/pty"
	"github.com/riywo/loginshell"
	"golang.org/x/term"

	"os/exec"
)

// Open spawns the user's login shell (falling back to /bin/sh)
// attached to a pty, with the failed target's captured output printed
// first so the user immediately sees why the shell was opened. It
// puts the calling terminal into raw mode for the duration and
// restores it on return, mirroring the teacher pack's "stdin/stdout
// wired straight to the terminal" approach but through a real pty
// instead of direct fd inheritance.
func Open(ctx context.Context, target string, dir string, failureOutput []byte, stdin *os.File, stdout io.Writer) error {
	fmt.Fprintf(stdout, "\n--- target %q failed; dropping into a debug shell (exit to resume) ---\n", target)
	stdout.Write(failureOutput)

	shellPath, err := loginshell.Shell()
	if err != nil {
		shellPath = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shellPath)
	if dir != "" {
		cmd.Dir = dir
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("debugshell: start pty: %w", err)
	}
	defer ptmx.Close()

	if stdin != nil && term.IsTerminal(int(stdin.Fd())) {
		oldState, err := term.MakeRaw(int(stdin.Fd()))
		if err == nil {
			defer term.Restore(int(stdin.Fd()), oldState)
		}
	}

	done := make(chan struct{})
	go func() {
		io.Copy(ptmx, stdin)
		close(done)
	}()
	go func() {
		io.Copy(stdout, ptmx)
	}()

	err = cmd.Wait()
	select {
	case <-done:
	default:
	}
	return err
}
