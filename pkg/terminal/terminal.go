package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/undoio/memwar/pkg/config"
	"github.com/undoio/memwar/pkg/logflags"
	"github.com/undoio/memwar/pkg/mem"
	"github.com/undoio/memwar/pkg/memory"
	"github.com/undoio/memwar/pkg/target"
)

const (
	historyFile                 string = ".memwar_history"
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalResetEscapeCode     string = "\033[0m"
)

const (
	ansiRed    = 31
	ansiGreen  = 32
	ansiYellow = 33
	ansiBlue   = 34
)

// Term represents the terminal running memwar.
type Term struct {
	proc   *target.Process
	conf   *config.Config
	prompt string
	line   *liner.State
	cmds   *Commands
	dumb   bool
	stdout io.Writer

	// image, when set, replaces process memory for dump, disasm and patch.
	image *memory.Buffer
	// scripts is created by the first source command.
	scripts *scriptEnv
}

// New returns a new Term operating on proc.
func New(proc *target.Process, conf *config.Config) *Term {
	cmds := MemCommands()
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}

	if conf == nil {
		conf = &config.Config{}
	}

	var w io.Writer

	dumb := strings.ToLower(os.Getenv("TERM")) == "dumb" || !stdoutIsTerminal()
	if dumb {
		w = os.Stdout
	} else {
		w = getColorableWriter()
	}

	return &Term{
		proc:   proc,
		conf:   conf,
		prompt: "(memwar) ",
		cmds:   cmds,
		dumb:   dumb,
		stdout: w,
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	if t.line != nil {
		t.line.Close()
		t.line = nil
	}
}

// Call executes a single command line.
func (t *Term) Call(cmdstr string) error {
	if logflags.Terminal() {
		logflags.TerminalLogger().Debugf("command %q", cmdstr)
	}
	return t.cmds.Call(cmdstr, t)
}

// Run begins running memwar in the terminal.
func (t *Term) Run() (int, error) {
	t.line = liner.NewLiner()
	defer t.Close()

	t.line.SetCtrlCAborts(true)
	t.line.SetCompleter(func(line string) (c []string) {
		for _, cmd := range t.cmds.cmds {
			for _, alias := range cmd.aliases {
				if strings.HasPrefix(alias, strings.ToLower(line)) {
					c = append(c, alias)
				}
			}
		}
		return
	})

	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.", err)
	}

	f, err := os.Open(fullHistoryFile)
	if err != nil {
		f, err = os.Create(fullHistoryFile)
		if err != nil {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.", err)
		}
	}

	if f != nil {
		t.line.ReadHistory(f)
		f.Close()
	}
	if t.image != nil {
		fmt.Fprintf(t.stdout, "Using an image of %d bytes at %#x.\n", len(t.image.Data), t.image.Addr)
	} else {
		fmt.Fprintf(t.stdout, "Attached to %v.\n", t.proc)
	}
	fmt.Fprintln(t.stdout, "Type 'help' for list of commands.")

	for {
		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == liner.ErrPromptAborted {
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(t.stdout, "exit")
				return t.handleExit()
			}
			return 1, fmt.Errorf("Prompt for input failed.\n")
		}

		if err := t.Call(cmdstr); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Command failed: %s\n", err)
		}
	}
}

// Println prints a line to the terminal.
func (t *Term) Println(prefix, str string) {
	fmt.Fprintf(t.stdout, "%s%s\n", t.colorize(ansiBlue, prefix), str)
}

func (t *Term) colorize(color int, s string) string {
	if t.dumb || s == "" {
		return s
	}
	return fmt.Sprintf(terminalHighlightEscapeCode, color) + s + terminalResetEscapeCode
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}

	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}

	return l, nil
}

func (t *Term) handleExit() (int, error) {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Println("Error saving history file:", err)
	} else {
		if f, err := os.OpenFile(fullHistoryFile, os.O_RDWR|os.O_TRUNC, 0666); err == nil {
			_, err = t.line.WriteHistory(f)
			if err != nil {
				fmt.Println("readline history error:", err)
			}
			f.Close()
		}
	}

	if t.proc != nil {
		if err := t.proc.Close(); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

var errNoProcess = errors.New("no process attached")

// process returns the attached process.
func (t *Term) process() (*target.Process, error) {
	if t.proc == nil {
		return nil, errNoProcess
	}
	return t.proc, nil
}

// alloc returns an allocation in the attached process. Its base is
// irrelevant for the absolute-address methods the commands use. Without a
// process every access fails with an invalid handle.
func (t *Term) alloc() mem.Allocation {
	if t.proc == nil {
		return mem.Existing(mem.NullHandle, 0)
	}
	return t.proc.Allocation(0)
}

// UseImage makes dump, disasm and patch operate on data, mapped at base,
// instead of the attached process. Patches modify data in place. A nil
// data returns those commands to process memory.
func (t *Term) UseImage(base uint64, data []byte) {
	if data == nil {
		t.image = nil
		return
	}
	t.image = &memory.Buffer{Addr: base, Data: data}
}

// readWriter returns the memory dump, disasm and patch work on.
func (t *Term) readWriter() memory.ReadWriter {
	if t.image != nil {
		return t.image
	}
	return memory.New(t.alloc())
}

// ExitRequestError is returned when the user
// exits memwar.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}
