package ccm

import "testing"

// buildChain constructs a ← b ← c (c depends on b, b depends on a).
func buildChain() *BuildSpec {
	return &BuildSpec{
		Compiler:   "cc",
		OutputFlag: "-o",
		Targets: []*Target{
			{Output: "a"},                  // id 0
			{Output: "b", Deps: []TargetID{0}}, // id 1
			{Output: "c", Deps: []TargetID{1}}, // id 2
		},
		J: 3,
	}
}

func TestNewScheduleTopologicalOrder(t *testing.T) {
	spec := buildChain()
	sch, err := NewSchedule(spec, spec.AllIDs())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	pos := make(map[TargetID]int, len(sch.Order))
	for i, id := range sch.Order {
		pos[id] = i
	}
	if pos[0] >= pos[1] || pos[1] >= pos[2] {
		t.Fatalf("expected order a,b,c, got positions %v for order %v", pos, sch.Order)
	}
	if sch.Level(0) != 1 || sch.Level(1) != 2 || sch.Level(2) != 3 {
		t.Fatalf("unexpected levels: a=%d b=%d c=%d", sch.Level(0), sch.Level(1), sch.Level(2))
	}
}

func TestNewScheduleReverseEdges(t *testing.T) {
	spec := buildChain()
	sch, err := NewSchedule(spec, spec.AllIDs())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	rev := sch.ReverseEdges(0)
	if len(rev) != 1 || rev[0] != 1 {
		t.Fatalf("expected a's reverse edges to be [b], got %v", rev)
	}
	rev = sch.ReverseEdges(1)
	if len(rev) != 1 || rev[0] != 2 {
		t.Fatalf("expected b's reverse edges to be [c], got %v", rev)
	}
}

func TestNewScheduleDiamond(t *testing.T) {
	// a ← {b, c} ← d
	spec := &BuildSpec{
		Targets: []*Target{
			{Output: "a"},
			{Output: "b", Deps: []TargetID{0}},
			{Output: "c", Deps: []TargetID{0}},
			{Output: "d", Deps: []TargetID{1, 2}},
		},
		J: 2,
	}
	sch, err := NewSchedule(spec, spec.AllIDs())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if sch.Level(3) != 3 {
		t.Fatalf("expected d's level to be 3, got %d", sch.Level(3))
	}
	revA := sch.ReverseEdges(0)
	if len(revA) != 2 {
		t.Fatalf("expected a to have 2 reverse edges, got %v", revA)
	}
}

func TestNewScheduleCycleDetected(t *testing.T) {
	spec := &BuildSpec{
		Targets: []*Target{
			{Output: "a", Deps: []TargetID{1}},
			{Output: "b", Deps: []TargetID{0}},
		},
	}
	_, err := NewSchedule(spec, spec.AllIDs())
	if err == nil {
		t.Fatalf("expected a cycle error, got nil")
	}
	var cycleErr *CycleError
	if !asCycleError(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
}

func asCycleError(err error, target **CycleError) bool {
	ce, ok := err.(*CycleError)
	if !ok {
		return false
	}
	*target = ce
	return true
}

func TestNewScheduleDeduplicatesDuplicateRoots(t *testing.T) {
	spec := buildChain()
	// Root list names target 2 ("c") twice plus an already-reachable
	// target ("a"); each must still appear exactly once in Order.
	sch, err := NewSchedule(spec, []TargetID{2, 2, 0})
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	seen := map[TargetID]int{}
	for _, id := range sch.Order {
		seen[id]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("target %d scheduled %d times, want exactly once", id, count)
		}
	}
	if len(sch.Order) != 3 {
		t.Fatalf("expected all 3 targets reachable exactly once, got %v", sch.Order)
	}
}

func TestDecrementPanicsOnNegative(t *testing.T) {
	spec := buildChain()
	sch, err := NewSchedule(spec, spec.AllIDs())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	sch.Decrement(1) // b's only dep (a) resolved once — fine.
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic decrementing below zero")
		}
	}()
	sch.Decrement(1) // b has no more deps outstanding — this should panic.
}
