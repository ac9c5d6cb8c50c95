package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ccmhq/ccm"
	"github.com/ccmhq/ccm/bootstrap"
	"github.com/ccmhq/ccm/debugshell"
	"github.com/ccmhq/ccm/history"
	"github.com/ccmhq/ccm/runid"
	"github.com/ccmhq/ccm/runner"
	"github.com/ccmhq/ccm/scheduler"
	"github.com/ccmhq/ccm/telemetry"
)

// BuildCmd implements `ccm build [target...]`: bootstrap if needed,
// then build the declared targets (or the named subset), exactly as
// spec.md §6's CLI surface specifies.
type BuildCmd struct {
	Targets []string `arg:"" optional:"" predictor:"target" help:"targets to build (default: all declared targets)"`
}

func (b *BuildCmd) Run(cctx *Context) error {
	if err := bootstrap.Run(cctx.Ctx, bootstrap.Options{
		SourceDir: ".",
		Sources:   goSources("."),
		Logger:    cctx.Logger,
	}); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	id := runid.New()
	start := time.Now()
	cctx.Logger.Info("build starting", "run", id.String())

	spec, roots, err := cctx.Document.Resolve(cctx.CLI.Jobs)
	if err != nil {
		return err
	}
	if len(b.Targets) > 0 {
		roots, err = cctx.Document.RootsByName(b.Targets)
		if err != nil {
			return err
		}
	}

	sched, err := ccm.NewSchedule(spec, roots)
	if err != nil {
		return err
	}

	var hist *history.Sink
	if cctx.CLI.HistoryDB != "" {
		hist, err = history.Open(cctx.CLI.HistoryDB)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		defer hist.Close()
		if err := hist.RecordRun(id, time.Now()); err != nil {
			cctx.Logger.Warn("history: failed to record run", "error", err)
		}
	}

	tp, err := telemetry.New(cctx.Ctx, cctx.CLI.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer tp.Shutdown(cctx.Ctx)

	ctx, span := tp.Tracer().Start(cctx.Ctx, "ccm.build")
	defer span.End()

	opts := scheduler.Options{
		J:      spec.J,
		Logger: cctx.Logger,
		Stdout: os.Stdout,
		Tracer: tp.Tracer(),
	}
	if cctx.CLI.DebugShell {
		opts.OnFailure = func(ctx context.Context, target *ccm.Target, res runner.Result) {
			if shErr := debugshell.Open(ctx, target.Output, filepath.Dir(target.Output), res.Output, os.Stdin, os.Stdout); shErr != nil {
				cctx.Logger.Warn("debug shell exited with error", "error", shErr)
			}
		}
	}
	if hist != nil {
		opts.OnJob = func(target *ccm.Target, outcome scheduler.Outcome, startedAt time.Time, elapsed time.Duration, exitCode int) {
			if err := hist.RecordJob(id, target.Output, historyOutcome(outcome), startedAt, elapsed, exitCode); err != nil {
				cctx.Logger.Warn("history: failed to record job", "target", target.Output, "error", err)
			}
		}
	}

	buildErr := scheduler.Build(ctx, spec, sched, opts)
	cctx.Logger.Info("build finished", "run", id.String(),
		"elapsed", humanize.RelTime(start, time.Now(), "", ""),
		"ok", buildErr == nil)
	if buildErr != nil {
		return buildErr
	}
	return nil
}

func historyOutcome(o scheduler.Outcome) history.Outcome {
	switch o {
	case scheduler.OutcomeSkipped:
		return history.OutcomeSkipped
	case scheduler.OutcomeFailed:
		return history.OutcomeFailed
	default:
		return history.OutcomeSucceeded
	}
}

// goSources walks dir for every *.go file, skipping hidden directories
// and vendor trees, so the bootstrap freshness check sees a change
// anywhere in the engine's packages, not just the module root.
func goSources(dir string) []string {
	var files []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (name == "vendor" || name[0] == '.') {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) == ".go" {
			files = append(files, path)
		}
		return nil
	})
	return files
}
