// Package ccm implements the build engine: a dependency graph over
// compiled-artifact targets, a freshness oracle, a bounded-parallel
// child-process scheduler, and the self-rebuild bootstrap that lets
// the orchestrator rebuild and re-exec itself. See SPEC_FULL.md for
// the full design.
package ccm

// TargetID is a stable integer identity for a Target: an index into
// the BuildSpec's owned target slice. Reverse edges and scratch state
// are keyed by TargetID rather than by pointer, so graph construction
// never aliases a Target and a spec can be reused across builds
// (the scratch table lives separately, see Schedule).
type TargetID int

// Target is one declared build artifact. Identity is the Output path;
// everything else is declarative input owned by the caller. The engine
// never mutates a Target's fields directly — per-build mutable state
// (visited/collected/level/remaining-deps/reverse-edges) lives in the
// Schedule's scratch table, keyed by TargetID, so the same Target can
// be scheduled into more than one build without carrying stale state.
type Target struct {
	// Output is the artifact path produced by this target, and its identity.
	Output string
	// Sources are passed on the compile line.
	Sources []string
	// Watches affect freshness but are never passed on the command line.
	Watches []string
	// PreOpts are inserted before the output flag.
	PreOpts []string
	// PostOpts are inserted after the source paths.
	PostOpts []string
	// Deps lists this target's declared dependencies by id.
	Deps []TargetID
}
