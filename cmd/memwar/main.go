package main

import (
	"os"

	"github.com/undoio/memwar/cmd/memwar/cmds"
	"github.com/undoio/memwar/pkg/version"
)

// Build is the git sha of this binaries build.
var Build string

func main() {
	if Build != "" {
		version.MemwarVersion.Build = Build
	}

	if err := cmds.New(false).Execute(); err != nil {
		os.Exit(1)
	}
}
