package ccm

import "fmt"

// scratchEntry is the per-build mutable state for one target: visited
// and collected flags for DFS-based topological sort and cycle
// detection, the assigned depth level, the remaining-incoming-dep
// counter used for ready-queue admission, and the materialized
// reverse-edge list. It lives in the Schedule, keyed by TargetID, kept
// deliberately separate from the declarative Target (§9 design note:
// "model them as a separate per-build scratch table keyed by target
// id, not as fields of the declarative Target, so a spec can be
// reused across builds").
type scratchEntry struct {
	visited   bool
	collected bool
	level     int
	remaining int
	reverse   []TargetID
}

// CycleError reports a directed cycle discovered during topological
// sort, naming one of its members as spec.md §4.D and §8 require.
type CycleError struct {
	Target TargetID
	Output string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("ccm: dependency cycle detected at target %q", e.Output)
}

// Schedule is a topological linearization of the reachable set rooted
// at the ids passed to NewSchedule, each target tagged with a depth
// level, plus the materialized reverse-edge index and the remaining-
// dep scratch table the process manager mutates during a build.
type Schedule struct {
	spec    *BuildSpec
	Order   []TargetID
	scratch map[TargetID]*scratchEntry
}

// Level returns the depth level assigned to id: leaves are level 1,
// and a target's level is one more than the max level of its deps.
func (s *Schedule) Level(id TargetID) int {
	return s.scratch[id].level
}

// Remaining returns the current remaining-incoming-dep counter for id.
func (s *Schedule) Remaining(id TargetID) int {
	return s.scratch[id].remaining
}

// ReverseEdges returns the targets that declare id as a dependency.
func (s *Schedule) ReverseEdges(id TargetID) []TargetID {
	return s.scratch[id].reverse
}

// Decrement decrements id's remaining-dep counter by one (invoked once
// per completed/skipped dependency) and reports whether the counter
// just transitioned to zero — the caller's cue to enqueue id exactly
// once, per spec.md invariant 2.
func (s *Schedule) Decrement(id TargetID) bool {
	e := s.scratch[id]
	e.remaining--
	if e.remaining < 0 {
		panic(fmt.Sprintf("ccm: remaining-dep counter for target %q went negative", s.spec.Target(id).Output))
	}
	return e.remaining == 0
}

// NewSchedule performs a depth-first topological sort over the
// targets reachable from roots, detecting cycles and materializing
// the reverse-edge index in a two-pass count-then-fill, exactly as
// spec.md §4.D prescribes. Duplicate target ids in roots, or reachable
// more than once through the graph, are each scheduled exactly once —
// the collected flag on first visit absorbs subsequent visits,
// resolving spec.md §9 open question (c) by deduplication.
func NewSchedule(spec *BuildSpec, roots []TargetID) (*Schedule, error) {
	sch := &Schedule{
		spec:    spec,
		scratch: make(map[TargetID]*scratchEntry, len(spec.Targets)),
	}
	for _, id := range spec.AllIDs() {
		sch.scratch[id] = &scratchEntry{}
	}

	var order []TargetID
	var visit func(id TargetID) error
	visit = func(id TargetID) error {
		e := sch.scratch[id]
		if e.collected {
			return nil
		}
		if e.visited {
			return &CycleError{Target: id, Output: spec.Target(id).Output}
		}
		e.visited = true
		level := 0
		for _, dep := range spec.Target(id).Deps {
			if err := visit(dep); err != nil {
				return err
			}
			if l := sch.scratch[dep].level; l > level {
				level = l
			}
		}
		e.level = level + 1
		e.collected = true
		order = append(order, id)
		return nil
	}

	for _, id := range roots {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	sch.Order = order

	// Reverse-edge materialization: two-pass count-then-fill over the
	// sorted view (spec.md §4.D).
	counts := make(map[TargetID]int, len(order))
	for _, id := range order {
		for _, dep := range spec.Target(id).Deps {
			counts[dep]++
		}
	}
	for _, id := range order {
		sch.scratch[id].reverse = make([]TargetID, 0, counts[id])
	}
	for _, id := range order {
		for _, dep := range spec.Target(id).Deps {
			sch.scratch[dep].reverse = append(sch.scratch[dep].reverse, id)
		}
	}

	// remaining-incoming-dep counters start at len(deps); a target
	// with zero deps is immediately ready for the initial fill.
	for _, id := range order {
		sch.scratch[id].remaining = len(spec.Target(id).Deps)
	}

	return sch, nil
}
