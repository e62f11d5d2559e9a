package terminal

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"golang.org/x/sys/windows"
)

// getColorableWriter returns stdout when the console already renders
// escape sequences or can be switched to do so. Older consoles get a
// colorable writer that translates the sequences into console attributes.
func getColorableWriter() io.Writer {
	if vtConsole(windows.Handle(os.Stdout.Fd())) {
		return os.Stdout
	}
	return colorable.NewColorableStdout()
}

// vtConsole reports whether h is a console in virtual terminal mode,
// turning the mode on if the console supports it.
func vtConsole(h windows.Handle) bool {
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return true
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
