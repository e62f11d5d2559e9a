package cmds

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/undoio/memwar/pkg/config"
	"github.com/undoio/memwar/pkg/logflags"
	"github.com/undoio/memwar/pkg/target"
	"github.com/undoio/memwar/pkg/terminal"
	"github.com/undoio/memwar/pkg/version"
)

const pidEnv = "MEMWAR_PID"

var (
	// pid is the process to operate on.
	pid int
	// processName selects the target by executable name instead of pid.
	processName string
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// profileMode is cpu or mem to profile memwar itself.
	profileMode string
	// imagePath is a file dump and disasm read instead of a process.
	imagePath string
	// imageBase is the address imagePath is mapped at.
	imageBase string

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
	prof interface{ Stop() }
)

const memwarCommandLongDesc = `memwar reads, writes and allocates memory in a running Windows process.

Every command operates on the process selected with --pid, --process or the
MEMWAR_PID environment variable. The shell command starts an interactive
session; without a target it operates on its own memory.`

// New returns an initialized command tree.
func New(docCall bool) *cobra.Command {
	// Config setup and load.
	if docCall {
		conf = &config.Config{}
	} else {
		conf = config.LoadConfig()
	}

	// Main memwar root command.
	rootCommand = &cobra.Command{
		Use:               "memwar",
		Short:             "memwar is a process memory inspection and patching tool.",
		Long:              memwarCommandLongDesc,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
	}

	rootCommand.PersistentFlags().SetNormalizeFunc(normalizeFlag)
	rootCommand.PersistentFlags().IntVarP(&pid, "pid", "p", envPid(), "Process id of the target (defaults to $"+pidEnv+").")
	rootCommand.PersistentFlags().StringVarP(&processName, "process", "n", "", "Executable name of the target, e.g. game.exe.")
	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'memwar help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'memwar help log').")
	rootCommand.PersistentFlags().StringVar(&profileMode, "profile", "", "Profile memwar itself, cpu or mem. The profile is written to the working directory.")

	shellCommand := &cobra.Command{
		Use:   "shell",
		Short: "Starts an interactive session.",
		Long: `Starts an interactive session on the target process.

Type 'help' at the prompt for the list of commands. Without a target the
session operates on memwar's own memory, which is useful for experiments.`,
		Args: cobra.NoArgs,
		RunE: shellCmd,
	}
	rootCommand.AddCommand(shellCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "read <type> <address>",
		Short: "Reads a typed value.",
		Long: `Reads a typed value.

Supported types are u8, u16, u32, u64, u128, i16, i32, i64, f32, f64, bool,
ptr, v2 and v3. Addresses are hexadecimal (0x prefix), decimal or
module+offset.`,
		Args: cobra.ExactArgs(2),
		RunE: termCmd("read"),
	})

	rootCommand.AddCommand(&cobra.Command{
		Use:   "write <type> <address> <value>...",
		Short: "Writes a typed value.",
		Args:  cobra.MinimumNArgs(3),
		RunE:  termCmd("write"),
	})

	dumpCommand := &cobra.Command{
		Use:   "dump <address> [length]",
		Short: "Prints a hexdump of a memory range.",
		Long: `Prints a hexdump of a memory range.

With --image the range is read from a file mapped at --image-base instead
of a process, and no target is needed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: imageTermCmd("dump"),
	}
	addImageFlags(dumpCommand)
	rootCommand.AddCommand(dumpCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "chain <start> [offset...] [as <type>]",
		Short: "Follows a multi-level pointer.",
		Long: `Follows a multi-level pointer.

The word at start is read, then each offset is added to the current value
and the word at the sum is read. The address of the last read is printed,
followed by its value when a type is given. A single argument naming a
chain from the configuration file uses that chain. Negative offsets go
after --, as in: memwar chain 0x1000 -- -0x8 0`,
		Args: cobra.MinimumNArgs(1),
		RunE: termCmd("chain"),
	})

	disasmCommand := &cobra.Command{
		Use:   "disasm <address> [length]",
		Short: "Disassembles a memory range.",
		Long: `Disassembles a memory range.

With --image the code is read from a file mapped at --image-base instead
of a process, and no target is needed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: imageTermCmd("disasm"),
	}
	addImageFlags(disasmCommand)
	rootCommand.AddCommand(disasmCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "load <file> <address>",
		Short: "Writes the contents of a file to memory.",
		Long: `Writes the contents of a file to memory in chunks of chunk-size bytes,
as set in the configuration file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTermCommand("load", []string{filepath.ToSlash(args[0]), args[1]})
		},
	})

	rootCommand.AddCommand(&cobra.Command{
		Use:   "vec <2|3> <address>",
		Short: "Reads a float vector and prints its length.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "2" && args[0] != "3" {
				return fmt.Errorf("vector dimension must be 2 or 3, not %q", args[0])
			}
			return runTermCommand("vec"+args[0], args[1:])
		},
	})

	rootCommand.AddCommand(&cobra.Command{
		Use:   "source <file.star>",
		Short: "Runs a starlark script against the target.",
		Long: `Runs a starlark script against the target.

The script's main function, if any, is called after it is loaded. See
'help source' in the shell for the builtins available to scripts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTermCommand("source", []string{filepath.ToSlash(args[0])})
		},
	})

	rootCommand.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("memwar\n%s\n", version.MemwarVersion)
			if log {
				fmt.Println(version.BuildInfo())
			}
		},
	})

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:

	mem		Log allocations, releases and buffered write progress
	terminal	Log every command executed by the terminal
	target		Log process and module lookups

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.
`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

// normalizeFlag accepts underscores in place of dashes, --log_output for
// --log-output.
func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.Replace(name, "_", "-", -1))
}

// envPid returns the default for --pid. A value that is not a number is
// reported and otherwise ignored; the variable itself is left alone.
func envPid() int {
	s := os.Getenv(pidEnv)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.WithFields(logrus.Fields{"layer": "memwar"}).Warnf("ignoring %s=%q: not a process id", pidEnv, s)
		return 0
	}
	return n
}

func setup(cmd *cobra.Command, args []string) error {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		return err
	}
	switch profileMode {
	case "":
	case "cpu":
		prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		prof = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		return fmt.Errorf("unknown profile mode %q, expected cpu or mem", profileMode)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if prof != nil {
		prof.Stop()
		prof = nil
	}
	logflags.Close()
}

var errNoTarget = errors.New("no target process, use --pid, --process or " + pidEnv)

// openTarget opens the process selected on the command line. When none
// is selected and allowSelf is set the current process is used.
func openTarget(allowSelf bool) (*target.Process, error) {
	switch {
	case processName != "":
		return target.OpenByName(processName)
	case pid != 0:
		return target.Open(pid)
	case allowSelf:
		return target.Self(), nil
	default:
		return nil, errNoTarget
	}
}

func shellCmd(cmd *cobra.Command, args []string) error {
	proc, err := openTarget(true)
	if err != nil {
		return err
	}
	term := terminal.New(proc, conf)
	status, err := term.Run()
	if err != nil {
		return err
	}
	if status != 0 {
		return fmt.Errorf("exit status %d", status)
	}
	return nil
}

func termCmd(name string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return runTermCommand(name, args)
	}
}

func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&imagePath, "image", "", "Read from this file instead of a process.")
	cmd.Flags().StringVar(&imageBase, "image-base", "0", "Address the --image file is mapped at.")
}

// imageTermCmd runs name against the --image file when one is given and
// against the target otherwise.
func imageTermCmd(name string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if imagePath == "" {
			return runTermCommand(name, args)
		}
		data, err := ioutil.ReadFile(imagePath)
		if err != nil {
			return err
		}
		base, err := strconv.ParseUint(imageBase, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid --image-base %q", imageBase)
		}
		term := terminal.New(nil, conf)
		term.UseImage(base, data)
		return term.Call(name + " " + joinArgs(args))
	}
}

// runTermCommand runs one terminal command against the target and exits.
func runTermCommand(name string, args []string) error {
	proc, err := openTarget(false)
	if err != nil {
		return err
	}
	defer proc.Close()
	return terminal.New(proc, conf).Call(name + " " + joinArgs(args))
}

// joinArgs rebuilds a command line that the terminal splits back into
// args.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t'\"`|\\") {
		return arg
	}
	if !strings.Contains(arg, "'") {
		return "'" + arg + "'"
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`").Replace(arg) + `"`
}
