//go:build !windows
// +build !windows

package terminal

import (
	"io"

	"github.com/mattn/go-colorable"
)

// getColorableWriter returns stdout; terminals outside Windows
// understand ANSI escapes natively.
func getColorableWriter() io.Writer {
	return colorable.NewColorableStdout()
}
