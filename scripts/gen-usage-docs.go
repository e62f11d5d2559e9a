// +build ignore

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/undoio/memwar/cmd/memwar/cmds"
)

func main() {
	const usageDir = "./Documentation/usage"
	if err := os.MkdirAll(usageDir, 0755); err != nil {
		log.Fatal(err)
	}
	if err := doc.GenMarkdownTree(cmds.New(true), usageDir); err != nil {
		log.Fatal(err)
	}
}
