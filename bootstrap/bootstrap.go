// Package bootstrap implements the self-rebuild/re-exec controller
// (spec.md §4.G): at the top of `build`, decide whether the running
// binary itself is stale relative to its own sources, and if so,
// rebuild it and replace the running process image with the result.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ccmhq/ccm"
	"github.com/ccmhq/ccm/runner"
)

// execFunc matches golang.org/x/sys/unix.Exec's signature: replace the
// calling process image. Abstracted so tests can inject a fake
// without replacing the test binary's own image (SPEC_FULL.md §8).
type execFunc func(argv0 string, argv []string, envv []string) error

// Options configures one bootstrap check.
type Options struct {
	// SourceDir is the Go package directory built to produce the
	// binary, e.g. "." for the module root.
	SourceDir string
	// Sources additionally lists files whose mtime is compared
	// against the running binary, e.g. the result of globbing *.go
	// across the module. Bootstrap treats these exactly like any
	// other target's sources for freshness purposes (spec.md §4.A).
	Sources []string
	Logger  *slog.Logger

	// binaryPath overrides os.Executable(), exec overrides unix.Exec,
	// and runFunc overrides runner.Run; all three are test-only seams
	// left zero in production, where Run resolves the real values
	// itself (SPEC_FULL.md §8: "re-exec uses unix.Exec, verified by
	// injecting a fake exec function in tests").
	binaryPath string
	exec       execFunc
	runFunc    func(ctx context.Context, argv []string, dir string) runner.Result
}

// Run constructs a synthetic Target whose output is the running
// binary's own path and whose sources are Options.Sources, and
// decides freshness through the same oracle every other target uses
// (spec.md: "the controller constructs a synthetic target ... If the
// freshness oracle says the binary is current, it returns and the
// normal build proceeds"). If a rebuild is needed it renames the
// current binary to a ".old" sibling, rebuilds with `go build`, and on
// success removes the ".old" sibling and replaces the running process
// image with golang.org/x/sys/unix.Exec — true execve semantics, not
// os/exec + os.Exit, since the spec requires the process image itself
// to be replaced. On failure the ".old" binary is restored and Run
// returns an error; the caller must treat that as fatal (spec.md
// invariant 7). The ".old" sibling is transient scratch state, never
// left behind by a successful bootstrap.
//
// Run never returns normally on a successful rebuild: unix.Exec
// replaces the process. A nil error therefore means no rebuild was
// necessary.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	self := opts.binaryPath
	if self == "" {
		var err error
		self, err = os.Executable()
		if err != nil {
			return fmt.Errorf("bootstrap: resolve running binary path: %w", err)
		}
	}
	exec := opts.exec
	if exec == nil {
		exec = unix.Exec
	}
	run := opts.runFunc
	if run == nil {
		run = runner.Run
	}

	target := &ccm.Target{Output: self, Sources: opts.Sources}
	if !ccm.NeedsRebuild(target) {
		logger.Debug("bootstrap: binary is current, no rebuild needed", "binary", self)
		return nil
	}

	oldPath := self + ".old"
	logger.Info("bootstrap: binary is stale, rebuilding", "binary", self)
	if err := os.Rename(self, oldPath); err != nil {
		return fmt.Errorf("bootstrap: rename %s to %s: %w", self, oldPath, err)
	}

	sourceDir := opts.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}
	argv := []string{"go", "build", "-o", self, sourceDir}
	res := run(ctx, argv, "")
	if res.Err != nil {
		logger.Error("bootstrap: rebuild failed, restoring previous binary", "error", res.Err, "output", string(res.Output))
		if rerr := os.Rename(oldPath, self); rerr != nil {
			return fmt.Errorf("bootstrap: rebuild failed (%w) and rollback failed: %v\noutput:\n%s", res.Err, rerr, res.Output)
		}
		return fmt.Errorf("bootstrap: rebuild failed: %w\noutput:\n%s", res.Err, res.Output)
	}

	// The original C bootstrap unlinks ./ccm.old once the rebuild is
	// confirmed good; mirrored here so successive bootstraps don't
	// accumulate stale .old binaries, matching the filesystem
	// contract's framing of .old as transient, not persisted state.
	if err := os.Remove(oldPath); err != nil {
		logger.Warn("bootstrap: failed to remove previous binary", "path", oldPath, "error", err)
	}

	logger.Info("bootstrap: rebuild succeeded, re-executing", "binary", self)
	if err := exec(self, os.Args, os.Environ()); err != nil {
		// The new binary is still on disk but could not be exec'd
		// into. The previous binary has already been removed above,
		// so there is nothing left to roll back to; surface the error
		// and let the caller decide how to fail.
		return fmt.Errorf("bootstrap: exec of rebuilt binary failed: %w", err)
	}
	// unreachable on success: exec replaced this process.
	return nil
}
