package ccm

// BuildArgs produces the argument vector that compiles t, in the
// order spec.md §4.B mandates: compiler; common options; target
// pre-options; output flag; output path; source paths; target
// post-options. The builder never inspects or shell-escapes any
// string — arguments are passed verbatim to exec.Command, which owns
// NUL-termination at the execve boundary (spec.md §3 invariant 6 is
// satisfied structurally by os/exec; see DESIGN.md).
func BuildArgs(spec *BuildSpec, t *Target) []string {
	args := make([]string, 0, 1+len(spec.CommonOpts)+len(t.PreOpts)+2+len(t.Sources)+len(t.PostOpts))
	args = append(args, spec.Compiler)
	args = append(args, spec.CommonOpts...)
	args = append(args, t.PreOpts...)
	args = append(args, spec.OutputFlag, t.Output)
	args = append(args, t.Sources...)
	args = append(args, t.PostOpts...)
	return args
}
