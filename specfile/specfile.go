// Package specfile parses a YAML build-spec document into the engine's
// BuildSpec/Target graph (SPEC_FULL.md §4.J). Targets are named in the
// document so dependencies can reference each other by name; that name
// is resolved to a ccm.TargetID at load time and discarded — the
// engine itself only ever sees output paths and TargetIDs.
package specfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ccmhq/ccm"
)

// TargetDoc is one declared target as authored in YAML.
type TargetDoc struct {
	Name     string   `yaml:"name"`
	Output   string   `yaml:"output"`
	Sources  []string `yaml:"sources"`
	Watches  []string `yaml:"watches,omitempty"`
	PreOpts  []string `yaml:"pre_opts,omitempty"`
	PostOpts []string `yaml:"post_opts,omitempty"`
	Deps     []string `yaml:"deps,omitempty"`
}

// Document is the top-level YAML build-spec shape.
type Document struct {
	Compiler   string      `yaml:"compiler"`
	OutputFlag string      `yaml:"output_flag"`
	CommonOpts []string    `yaml:"common_opts,omitempty"`
	Jobs       int         `yaml:"jobs,omitempty"`
	Targets    []TargetDoc `yaml:"targets"`
}

// Load reads and parses a YAML build-spec file at path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("specfile: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("specfile: parse %s: %w", path, err)
	}
	return &doc, nil
}

// Resolve converts the document into a ccm.BuildSpec, resolving each
// target's named dependencies into TargetIDs. A dependency naming a
// target absent from the document is a load-time error, not a silent
// no-op (SPEC_FULL.md §8's supplementary property for the spec
// loader). It returns the spec and every target's id in declaration
// order, suitable as the default build roots.
func (d *Document) Resolve(jobs int) (*ccm.BuildSpec, []ccm.TargetID, error) {
	byName := make(map[string]ccm.TargetID, len(d.Targets))
	for i, td := range d.Targets {
		if _, dup := byName[td.Name]; dup {
			return nil, nil, fmt.Errorf("specfile: duplicate target name %q", td.Name)
		}
		byName[td.Name] = ccm.TargetID(i)
	}

	targets := make([]*ccm.Target, len(d.Targets))
	for i, td := range d.Targets {
		deps := make([]ccm.TargetID, 0, len(td.Deps))
		for _, depName := range td.Deps {
			id, ok := byName[depName]
			if !ok {
				return nil, nil, fmt.Errorf("specfile: target %q depends on undeclared target %q", td.Name, depName)
			}
			deps = append(deps, id)
		}
		targets[i] = &ccm.Target{
			Output:   td.Output,
			Sources:  td.Sources,
			Watches:  td.Watches,
			PreOpts:  td.PreOpts,
			PostOpts: td.PostOpts,
			Deps:     deps,
		}
	}

	j := d.Jobs
	if jobs > 0 {
		j = jobs
	}
	if j <= 0 {
		j = 1
	}

	spec := &ccm.BuildSpec{
		Compiler:   d.Compiler,
		OutputFlag: d.OutputFlag,
		CommonOpts: d.CommonOpts,
		Targets:    targets,
		J:          j,
	}

	roots := spec.AllIDs()
	return spec, roots, nil
}

// Names returns every declared target's name, for shell completion
// (SPEC_FULL.md §4.P) and for resolving positional CLI arguments like
// `ccm build <target>` to a root subset.
func (d *Document) Names() []string {
	names := make([]string, len(d.Targets))
	for i, td := range d.Targets {
		names[i] = td.Name
	}
	return names
}

// RootsByName resolves a set of target names to TargetIDs, in the
// order given. An unknown name is an error.
func (d *Document) RootsByName(names []string) ([]ccm.TargetID, error) {
	byName := make(map[string]ccm.TargetID, len(d.Targets))
	for i, td := range d.Targets {
		byName[td.Name] = ccm.TargetID(i)
	}
	ids := make([]ccm.TargetID, 0, len(names))
	for _, n := range names {
		id, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("specfile: unknown target %q", n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
