// Package scheduler implements the process manager — the bounded
// parallel event loop of spec.md §4.F. Bounded parallelism is realized
// with a slotpool.Pool standing in for the C version's fixed-size pool
// of job-record slots; each admitted target runs its compile command
// on a goroutine tracked by an errgroup.Group, reporting completion
// over a channel that the single scheduling goroutine selects on —
// the idiomatic replacement for poll(2) + waitpid(WNOHANG), described
// in full in SPEC_FULL.md §4.F.
package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ccmhq/ccm"
	"github.com/ccmhq/ccm/queue"
	"github.com/ccmhq/ccm/runner"
	"github.com/ccmhq/ccm/slotpool"
)

// FailureHook is invoked synchronously from the scheduling goroutine
// when a target fails, before the next admission round. It is the
// seam the CLI layer uses to implement the optional debug shell
// (SPEC_FULL.md §4.O); the default is nil (no-op).
type FailureHook func(ctx context.Context, target *ccm.Target, res runner.Result)

// Outcome reports how one target resolved, for JobHook.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

// JobHook is invoked once per target that reaches a terminal state
// (skipped, succeeded, or failed), from the scheduling goroutine. It
// is the seam the CLI layer uses to record one build-history row per
// target (SPEC_FULL.md §4.M); the default is nil (no-op).
type JobHook func(target *ccm.Target, outcome Outcome, startedAt time.Time, elapsed time.Duration, exitCode int)

// Options configures one call to Build.
type Options struct {
	// J is the parallelism cap. Defaults to 1 if <= 0.
	J int
	// Logger receives one structured line per admitted, skipped, and
	// reaped target. Defaults to slog.Default() if nil.
	Logger *slog.Logger
	// Stdout receives each job's captured output, preceded by a
	// separator line, at reap time — spec.md §4.E's "report" step.
	// Defaults to os.Stdout.
	Stdout io.Writer
	// Dir, if set, is the working directory for every spawned child.
	Dir string
	// OnFailure, if set, runs once per failed target before the build
	// continues to unrelated branches.
	OnFailure FailureHook
	// OnJob, if set, runs once per target that reaches a terminal
	// state — skipped, succeeded, or failed — so a caller can persist
	// one build-history row per target (SPEC_FULL.md §4.M).
	OnJob JobHook
	// Tracer, if set, receives one child span per target's runner
	// invocation, tagged with the target name, its depth level, and
	// its outcome (SPEC_FULL.md §4.N). Defaults to a no-op tracer.
	Tracer trace.Tracer
}

type jobResult struct {
	id        ccm.TargetID
	res       runner.Result
	slot      slotpool.Slot
	startedAt time.Time
	span      trace.Span
}

// Build runs sched to completion: the initial fill, then the bounded
// parallel event loop, until every scheduled target is SKIPPED,
// SUCCEEDED, or FAILED. It returns nil if every target succeeded or
// was skipped; otherwise it returns the aggregate of every failed
// target's error (hashicorp/go-multierror), matching spec.md §7's
// unconditional-propagation policy: a failed target's reverse-edge
// neighbours are still scheduled.
func Build(ctx context.Context, spec *ccm.BuildSpec, sched *ccm.Schedule, opts Options) error {
	if opts.J <= 0 {
		opts.J = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("github.com/ccmhq/ccm/scheduler")
	}

	s := &scheduler{
		spec:    spec,
		sched:   sched,
		queue:   queue.New[ccm.TargetID](len(sched.Order)),
		done:    make(map[ccm.TargetID]bool, len(sched.Order)),
		pool:    slotpool.New(opts.J),
		results: make(chan jobResult),
		ctx:     ctx,
		logger:  logger,
		stdout:  stdout,
		dir:     opts.Dir,
		onFail:  opts.OnFailure,
		onJob:   opts.OnJob,
		tracer:  tracer,
	}
	s.outstanding = len(sched.Order)

	eg, egCtx := errgroup.WithContext(ctx)
	s.eg = eg
	s.egCtx = egCtx

	// Initial fill: a single forward pass over the topological order.
	// Because dependencies always precede dependents in Order, a
	// cascade of freshly-SKIPPED ancestors has already decremented a
	// descendant's counter to zero by the time the loop reaches it —
	// "the tree of leaves effect ... resolves in a single linear pass
	// with no re-entrancy" (spec.md §4.F).
	for _, id := range sched.Order {
		if sched.Remaining(id) == 0 {
			s.onReady(id)
		}
	}

	var buildErr *multierror.Error
	for s.outstanding > 0 {
		s.admit()
		if s.queue.Len() == 0 && s.pool.Outstanding() == 0 && s.outstanding > 0 {
			panic(fmt.Sprintf("ccm: scheduler stalled with %d targets outstanding, nothing running, and an empty ready queue — broken dependency counter", s.outstanding))
		}
		select {
		case jr := <-s.results:
			if err := s.reap(jr); err != nil {
				buildErr = multierror.Append(buildErr, err)
			}
		case <-ctx.Done():
			_ = eg.Wait()
			return ctx.Err()
		}
	}
	if err := eg.Wait(); err != nil {
		buildErr = multierror.Append(buildErr, err)
	}
	return buildErr.ErrorOrNil()
}

type scheduler struct {
	spec        *ccm.BuildSpec
	sched       *ccm.Schedule
	queue       *queue.Ring[ccm.TargetID]
	done        map[ccm.TargetID]bool
	outstanding int
	pool        *slotpool.Pool
	results     chan jobResult
	eg          *errgroup.Group
	ctx         context.Context
	egCtx       context.Context
	logger      *slog.Logger
	stdout      io.Writer
	dir         string
	onFail      FailureHook
	onJob       JobHook
	tracer      trace.Tracer
}

// onReady is called the moment a target's remaining-dep counter
// reaches zero, whether during the initial fill or, dynamically,
// during reap propagation. It enforces spec.md invariant 2 ("pushed
// to the ready queue exactly once") via the done map, then decides
// freshness: SKIPPED targets propagate immediately and recursively
// (the recursion always terminates because reverse edges only point
// forward in topological order), exactly like a successful build.
func (s *scheduler) onReady(id ccm.TargetID) {
	if s.done[id] {
		return
	}
	s.done[id] = true
	t := s.spec.Target(id)
	if !ccm.NeedsRebuild(t) {
		s.logger.Info("target skipped, up to date", "target", t.Output)
		if s.onJob != nil {
			s.onJob(t, OutcomeSkipped, time.Now(), 0, 0)
		}
		s.outstanding--
		s.propagate(id)
		return
	}
	s.queue.Push(id)
}

func outcomeLabel(o Outcome) string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "succeeded"
	}
}

func (s *scheduler) propagate(id ccm.TargetID) {
	for _, r := range s.sched.ReverseEdges(id) {
		if s.sched.Decrement(r) {
			s.onReady(r)
		}
	}
}

// admit pops the ready queue while a slot is available, spawning a
// runner goroutine for each admitted target. It never blocks: once no
// slot is free it returns immediately so the scheduling goroutine can
// go back to servicing s.results, the only place a slot is released.
// Blocking here — even via Acquire — would deadlock as soon as more
// than J targets are ready at once, since nothing else could ever
// drain a completion to free one up (SPEC_FULL.md §4.F: "the scheduler
// pops the ready queue while running < J, in the single scheduling
// goroutine").
func (s *scheduler) admit() {
	for s.queue.Len() > 0 {
		slot, ok := s.pool.TryAcquire()
		if !ok {
			return
		}
		id, ok := s.queue.Pop()
		if !ok {
			s.pool.Release(slot)
			return
		}
		s.spawn(id, slot)
	}
}

func (s *scheduler) spawn(id ccm.TargetID, slot slotpool.Slot) {
	t := s.spec.Target(id)
	argv := ccm.BuildArgs(s.spec, t)
	s.logger.Info("target started", "target", t.Output, "argv", argv, "slot", slot.Index)
	startedAt := time.Now()

	spanCtx, span := s.tracer.Start(s.egCtx, "ccm.target",
		trace.WithAttributes(
			attribute.String("ccm.target", t.Output),
			attribute.Int("ccm.depth", s.sched.Level(id)),
		),
	)
	s.eg.Go(func() error {
		res := runner.Run(spanCtx, argv, s.dir)
		select {
		case s.results <- jobResult{id: id, res: res, slot: slot, startedAt: startedAt, span: span}:
		case <-s.egCtx.Done():
		}
		return nil
	})
}

// reap reports a completed job's output, logs its elapsed time,
// releases its slot, propagates completion to its reverse-edge
// neighbours (unconditionally — see SPEC_FULL.md §7's resolution of
// spec.md §9 open question (a)), and returns a non-nil error if the
// target failed.
func (s *scheduler) reap(jr jobResult) error {
	t := s.spec.Target(jr.id)

	var sep bytes.Buffer
	fmt.Fprintf(&sep, "----- %s (%s) -----\n", t.Output, jr.res.Elapsed.Round(time.Millisecond))
	s.stdout.Write(sep.Bytes())
	s.stdout.Write(jr.res.Output)
	if len(jr.res.Output) > 0 && jr.res.Output[len(jr.res.Output)-1] != '\n' {
		s.stdout.Write([]byte{'\n'})
	}

	// Slots are acquired in admit/spawn and must be released exactly
	// once per admitted target; reap is the only place that happens.
	s.pool.Release(jr.slot)

	var resultErr error
	outcome := OutcomeSucceeded
	if jr.res.Err != nil {
		outcome = OutcomeFailed
		s.logger.Error("target failed", "target", t.Output, "pid", jr.res.Pid, "exit_code", jr.res.ExitCode, "error", jr.res.Err, "elapsed", jr.res.Elapsed)
		resultErr = fmt.Errorf("target %q: %w", t.Output, jr.res.Err)
		if s.onFail != nil {
			s.onFail(s.ctx, t, jr.res)
		}
	} else {
		s.logger.Info("target succeeded", "target", t.Output, "pid", jr.res.Pid, "elapsed", jr.res.Elapsed)
	}
	if jr.span != nil {
		jr.span.SetAttributes(
			attribute.String("ccm.outcome", outcomeLabel(outcome)),
			attribute.Int("ccm.exit_code", jr.res.ExitCode),
		)
		jr.span.End()
	}
	if s.onJob != nil {
		s.onJob(t, outcome, jr.startedAt, jr.res.Elapsed, jr.res.ExitCode)
	}

	s.outstanding--
	s.propagate(jr.id)
	return resultErr
}
