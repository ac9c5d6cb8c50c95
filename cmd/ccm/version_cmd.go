package main

import (
	"fmt"

	"github.com/ccmhq/ccm/version"
)

// VersionCmd implements `ccm version`: print build provenance.
type VersionCmd struct{}

func (v *VersionCmd) Run(cctx *Context) error {
	fmt.Println(version.Get().String())
	return nil
}
