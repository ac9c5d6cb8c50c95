// Package version reports build provenance for the ccm binary itself,
// used by the `ccm version` command.
package version

import (
	"fmt"
	"runtime/debug"

	"github.com/google/go-cmp/cmp"
)

var (
	// These are set via -ldflags at build time. The bootstrap
	// self-rebuild passes no -ldflags, so a self-rebuilt binary leaves
	// them empty.
	GitRepo   string
	GitBranch string
	GitCommit string
	BuildTime string
)

// Info returns a struct containing all version information
type Info struct {
	GitRepo   string           `json:"gitRepo,omitempty"`
	GitBranch string           `json:"gitBranch,omitempty"`
	GitCommit string           `json:"gitCommit,omitempty"`
	BuildTime string           `json:"buildTime,omitempty"`
	BuildInfo *debug.BuildInfo `json:"buildInfo,omitempty"`
}

// Get returns the version information
func Get() Info {
	buildInfo, ok := debug.ReadBuildInfo()
	ret := Info{
		GitRepo:   GitRepo,
		GitBranch: GitBranch,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
	if ok {
		ret.BuildInfo = buildInfo
	}
	return ret
}

// Equal checks if two version infos represent the same version.
// Two versions are considered equal if they have the same git commit,
// branch and repo and, when BuildInfo is present, the same main module
// path, dependencies and Go version. The build time is not compared.
func (v Info) Equal(other Info) bool {
	if v.BuildInfo != nil {
		if other.BuildInfo == nil {
			return false
		}
		if v.BuildInfo.Main.Path != other.BuildInfo.Main.Path ||
			!cmp.Equal(v.BuildInfo.Deps, other.BuildInfo.Deps) ||
			v.BuildInfo.GoVersion != other.BuildInfo.GoVersion {
			return false
		}
	}
	if v.GitBranch != other.GitBranch ||
		v.GitCommit != other.GitCommit ||
		v.GitRepo != other.GitRepo {
		return false
	}
	return true
}

// String renders a one-line human-readable summary, used by `ccm version`.
func (v Info) String() string {
	commit := v.GitCommit
	if commit == "" {
		commit = "unknown"
	}
	s := fmt.Sprintf("ccm %s", commit)
	if v.GitBranch != "" {
		s += fmt.Sprintf(" (%s)", v.GitBranch)
	}
	if v.BuildTime != "" {
		s += fmt.Sprintf(" built %s", v.BuildTime)
	}
	return s
}
