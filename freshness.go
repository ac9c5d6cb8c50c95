package ccm

import "os"

// NeedsRebuild answers "does target t need rebuild?" purely from
// filesystem timestamps (spec.md §4.A). If the output cannot be
// stat-ed it needs rebuild; otherwise it needs rebuild if any source
// or watched input that can be stat-ed has a modification time
// strictly newer than the output's. Inputs that cannot be stat-ed are
// ignored — the compiler will report a missing input itself. No
// hashing: mtime is cheap and monotonic within one clock, and
// content-based freshness is an explicit Non-goal.
func NeedsRebuild(t *Target) bool {
	out, err := os.Stat(t.Output)
	if err != nil {
		return true
	}
	outMod := out.ModTime()
	for _, in := range allInputs(t) {
		fi, err := os.Stat(in)
		if err != nil {
			continue
		}
		if fi.ModTime().After(outMod) {
			return true
		}
	}
	return false
}

func allInputs(t *Target) []string {
	ins := make([]string, 0, len(t.Sources)+len(t.Watches))
	ins = append(ins, t.Sources...)
	ins = append(ins, t.Watches...)
	return ins
}
