package main

import (
	"os"

	"github.com/ccmhq/ccm/runid"
)

// CleanCmd implements `ccm clean`: remove every declared target's
// output path, logging (not aborting on) failures (spec.md §4.H). It
// does not traverse dependencies and never touches the bootstrap
// binary.
type CleanCmd struct{}

func (c *CleanCmd) Run(cctx *Context) error {
	id := runid.New()
	cctx.Logger.Info("clean starting", "run", id.String())
	for _, td := range cctx.Document.Targets {
		if err := os.Remove(td.Output); err != nil && !os.IsNotExist(err) {
			cctx.Logger.Warn("clean: failed to remove target output", "target", td.Output, "error", err)
			continue
		}
		cctx.Logger.Info("clean: removed target output", "target", td.Output)
	}
	cctx.Logger.Info("clean finished", "run", id.String())
	return nil
}
