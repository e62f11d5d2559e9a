// Package terminal implements the memwar interactive shell and the
// command table shared with the one-shot CLI subcommands.
package terminal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"

	"github.com/undoio/memwar/pkg/config"
	"github.com/undoio/memwar/pkg/mem"
)

// maxDumpSize bounds dump and disasm reads.
const maxDumpSize = 1 << 20

type cmdfunc func(t *Term, args string) error

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	helpMsg        string
	cmdFn          cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands of the memwar terminal.
type Commands struct {
	cmds []command
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// MemCommands returns a Commands struct with default commands defined.
func MemCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"read", "r"}, group: dataCmds, cmdFn: readCmd, helpMsg: `Reads a typed value.

	read <type> <address>

Supported types are u8, u16, u32, u64, u128, i16, i32, i64, f32, f64, bool,
ptr, v2 and v3. Addresses are hexadecimal (0x prefix), decimal or
module+offset, e.g. game.exe+0x10f4f4.`},
		{aliases: []string{"write", "w"}, group: dataCmds, cmdFn: writeCmd, helpMsg: `Writes a typed value.

	write <type> <address> <value>

Vectors take one value per component:

	write v3 0x1000 1.5 2 -3`},
		{aliases: []string{"dump", "x"}, group: dataCmds, cmdFn: dumpCmd, helpMsg: `Prints a hexdump of a memory range.

	dump <address> [length]

Length defaults to one row. The row width is set by dump-width in the configuration file.`},
		{aliases: []string{"patch"}, group: dataCmds, cmdFn: patchCmd, helpMsg: `Overwrites bytes and prints the bytes they replaced.

	patch <address> <hex bytes>

Example:

	patch 0x401000 90 90 90`},
		{aliases: []string{"chain"}, group: dataCmds, cmdFn: chainCmd, helpMsg: `Follows a multi-level pointer.

	chain <start> [offset...] [as <type>]
	chain <name>

The word at start is read, then each offset is added to the current
value and the word at the sum is read, until offsets are exhausted.
The address of the last read is printed, followed by its value when a
type is given. Offsets may be negative. A name refers to a chain from the
configuration file.`},
		{aliases: []string{"disasm", "dis"}, group: dataCmds, cmdFn: disasmCmd, helpMsg: `Disassembles a memory range.

	disasm <address> [length]

Length defaults to 32 bytes. The syntax is set by disasm-syntax in the configuration file.`},
		{aliases: []string{"vec2"}, group: dataCmds, cmdFn: vec2Cmd, helpMsg: `Reads a two component float vector and prints its length.

	vec2 <address>`},
		{aliases: []string{"vec3"}, group: dataCmds, cmdFn: vec3Cmd, helpMsg: `Reads a three component float vector and prints its length.

	vec3 <address>`},
		{aliases: []string{"alloc"}, group: allocCmds, cmdFn: allocCmd, helpMsg: `Allocates memory in the attached process.

	alloc <size> [address]

The region is committed and readable, writable and executable. Without
an address the system chooses the location. The base is printed.`},
		{aliases: []string{"free"}, group: allocCmds, cmdFn: freeCmd, helpMsg: `Releases a region created by alloc.

	free <address>`},
		{aliases: []string{"load"}, group: allocCmds, cmdFn: loadCmd, helpMsg: `Writes the contents of a file to memory.

	load <file> <address>

The file is written in chunks of chunk-size bytes (configuration file, default 4096).`},
		{aliases: []string{"base"}, cmdFn: baseCmd, helpMsg: `Prints the load address of a module of the attached process.

	base <module>`},
		{aliases: []string{"image"}, group: dataCmds, cmdFn: imageCmd, helpMsg: `Loads a file as a memory image.

	image <file> <address>
	image off
	image

The contents of file are mapped at address. While an image is loaded
dump, disasm and patch operate on it instead of the attached process;
patches change the in-memory copy only. "image off" returns to process
memory. Without arguments the current image is printed.`},
		{aliases: []string{"config"}, cmdFn: configureCmd, helpMsg: `Changes configuration parameters.

	config -list

Show all configuration parameters.

	config -save

Saves the configuration file to disk, overwriting the current configuration file.

	config <parameter> <value>

Changes the value of chunk-size, dump-width or disasm-syntax.

	config alias <command> <alias>
	config alias <alias>

Defines <alias> as an alias to <command> or removes an alias.

	config chain <name> <start> [offset...] [as <type>]
	config chain <name>

Defines a named pointer chain or removes it. Start is an address or
module+offset.`},
		{aliases: []string{"source"}, cmdFn: sourceCmd, helpMsg: `Executes a starlark script.

	source <path>

The script can read and write memory of the attached process through
the builtins read, write, read_bytes, write_bytes, chain, alloc, free,
base and memwar_command. Every global function whose name starts with
command_ becomes a terminal command: command_heal defines "heal", and its
doc string is the help message. Type "help <command>" after sourcing.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: "Exit memwar."},
	}

	sort.Sort(byFirstAlias(c.cmds))
	return c
}

// Register custom commands. Expects cf to be a func of type cmdfunc,
// returning only an error.
func (c *Commands) Register(cmdstr string, cf cmdfunc, helpMsg string) {
	for i := range c.cmds {
		if c.cmds[i].match(cmdstr) {
			c.cmds[i].cmdFn = cf
			c.cmds[i].helpMsg = helpMsg
			return
		}
	}

	c.cmds = append(c.cmds, command{aliases: []string{cmdstr}, cmdFn: cf, helpMsg: helpMsg})
}

// has reports whether cmdstr is the name of a command, not counting
// aliases.
func (c *Commands) has(cmdstr string) bool {
	for _, v := range c.cmds {
		if v.aliases[0] == cmdstr {
			return true
		}
	}
	return false
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
func (c *Commands) Find(cmdstr string) cmdfunc {
	if cmdstr == "" {
		return nullCommand
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}

	return noCmdAvailable
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	vals := strings.SplitN(strings.TrimSpace(cmdstr), " ", 2)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return c.Find(cmdname)(t, args)
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

var noCmdError = errors.New("command not available")

func noCmdAvailable(t *Term, args string) error {
	return noCmdError
}

func nullCommand(t *Term, args string) error {
	return nil
}

func (c *Commands) help(t *Term, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return noCmdError
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func exitCommand(t *Term, args string) error {
	return ExitRequestError{}
}

// splitArgs splits a command's arguments with shell quoting rules.
func splitArgs(args string) ([]string, error) {
	if strings.TrimSpace(args) == "" {
		return nil, nil
	}
	v, err := argv.Argv(args,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, fmt.Errorf("illegal command line '%s'", args)
	}
	return v[0], nil
}

func wantArgs(args string, min, max int, usage string) ([]string, error) {
	v, err := splitArgs(args)
	if err != nil {
		return nil, err
	}
	if len(v) < min || (max >= 0 && len(v) > max) {
		return nil, fmt.Errorf("wrong number of arguments: %s", usage)
	}
	return v, nil
}

func readCmd(t *Term, args string) error {
	v, err := wantArgs(args, 2, 2, "read <type> <address>")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[1])
	if err != nil {
		return err
	}
	s, err := readValue(t.alloc(), v[0], addr)
	if err != nil {
		return err
	}
	t.Println(fmt.Sprintf("%#x: ", addr), s)
	return nil
}

func writeCmd(t *Term, args string) error {
	v, err := wantArgs(args, 3, -1, "write <type> <address> <value>")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[1])
	if err != nil {
		return err
	}
	return writeValue(t.alloc(), v[0], addr, v[2:])
}

func (t *Term) lengthArg(v []string, i, def int) (int, error) {
	if len(v) <= i {
		return def, nil
	}
	n, err := strconv.ParseInt(v[i], 0, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("length must be a positive integer")
	}
	if n > maxDumpSize {
		return 0, fmt.Errorf("length must be less than or equal to %d bytes", maxDumpSize)
	}
	return int(n), nil
}

func dumpCmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 2, "dump <address> [length]")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[0])
	if err != nil {
		return err
	}
	n, err := t.lengthArg(v, 1, t.conf.GetDumpWidth())
	if err != nil {
		return err
	}
	data, err := t.readWriter().Read(uint64(addr), n)
	if err != nil {
		return err
	}
	hexdump(t, data, uint64(addr), t.conf.GetDumpWidth())
	return nil
}

func patchCmd(t *Term, args string) error {
	v, err := wantArgs(args, 2, -1, "patch <address> <hex bytes>")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[0])
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(strings.Join(v[1:], ""))
	if err != nil {
		return fmt.Errorf("could not parse bytes: %v", err)
	}
	if len(data) == 0 {
		return errors.New("nothing to patch")
	}
	old, err := t.readWriter().Swap(uint64(addr), data)
	if err != nil {
		return err
	}
	t.Println(fmt.Sprintf("%#x: ", addr), fmt.Sprintf("% x -> % x", old, data))
	return nil
}

func chainCmd(t *Term, args string) error {
	const usage = "chain <start> [offset...] [as <type>] or chain <name>"
	v, err := wantArgs(args, 1, -1, usage)
	if err != nil {
		return err
	}

	var (
		start   uintptr
		offsets []uintptr
		typ     string
	)

	if named, ok := t.conf.Chains[v[0]]; ok && len(v) == 1 {
		start, offsets, err = t.resolveChain(named)
		if err != nil {
			return err
		}
		typ = named.Type
	} else {
		if n := len(v); n >= 2 && v[n-2] == "as" {
			typ = v[n-1]
			v = v[:n-2]
		}
		if len(v) == 0 {
			return fmt.Errorf("wrong number of arguments: %s", usage)
		}
		start, err = t.parseAddr(v[0])
		if err != nil {
			return err
		}
		for _, s := range v[1:] {
			off, err := parseOffset(s)
			if err != nil {
				return err
			}
			offsets = append(offsets, off)
		}
	}

	addr, err := t.alloc().DerefChain(start, offsets...)
	if err != nil {
		return err
	}
	if typ == "" {
		t.Println("", fmt.Sprintf("%#x", addr))
		return nil
	}
	s, err := readValue(t.alloc(), typ, addr)
	if err != nil {
		return err
	}
	t.Println(fmt.Sprintf("%#x: ", addr), s)
	return nil
}

// resolveChain turns a configured chain into a start address and offsets.
func (t *Term) resolveChain(c config.Chain) (uintptr, []uintptr, error) {
	start := uintptr(c.Base)
	if c.Module != "" {
		proc, err := t.process()
		if err != nil {
			return 0, nil, err
		}
		base, err := proc.ModuleBase(c.Module)
		if err != nil {
			return 0, nil, err
		}
		start += base
	}
	offsets := make([]uintptr, len(c.Offsets))
	for i, off := range c.Offsets {
		offsets[i] = uintptr(off)
	}
	return start, offsets, nil
}

func disasmCmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 2, "disasm <address> [length]")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[0])
	if err != nil {
		return err
	}
	n, err := t.lengthArg(v, 1, 32)
	if err != nil {
		return err
	}
	code, err := t.readWriter().Read(uint64(addr), n)
	if err != nil {
		return err
	}
	disassemble(t, code, uint64(addr), t.conf.GetDisasmSyntax())
	return nil
}

func vec2Cmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 1, "vec2 <address>")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[0])
	if err != nil {
		return err
	}
	vec, err := mem.ReadVector2(t.alloc(), addr)
	if err != nil {
		return err
	}
	t.Println(fmt.Sprintf("%#x: ", addr), fmt.Sprintf("%v len=%g", vec, vec.Len()))
	return nil
}

func vec3Cmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 1, "vec3 <address>")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[0])
	if err != nil {
		return err
	}
	vec, err := mem.ReadVector3(t.alloc(), addr)
	if err != nil {
		return err
	}
	t.Println(fmt.Sprintf("%#x: ", addr), fmt.Sprintf("%v len=%g", vec, vec.Len()))
	return nil
}

func allocCmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 2, "alloc <size> [address]")
	if err != nil {
		return err
	}
	size, err := strconv.ParseUint(v[0], 0, 64)
	if err != nil || size == 0 {
		return fmt.Errorf("size must be a positive integer")
	}
	proc, err := t.process()
	if err != nil {
		return err
	}
	var a mem.Allocation
	if len(v) == 2 {
		var base uintptr
		base, err = t.parseAddr(v[1])
		if err != nil {
			return err
		}
		a, err = mem.AllocRemote(proc.Handle, base, uintptr(size))
	} else {
		a, err = mem.AllocRemoteAnywhere(proc.Handle, uintptr(size))
	}
	if err != nil {
		return err
	}
	t.Println("allocated ", fmt.Sprintf("%d bytes at %#x", size, a.Base()))
	return nil
}

func freeCmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 1, "free <address>")
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[0])
	if err != nil {
		return err
	}
	proc, err := t.process()
	if err != nil {
		return err
	}
	return proc.Allocation(addr).FreeRemote()
}

func loadCmd(t *Term, args string) error {
	v, err := wantArgs(args, 2, 2, "load <file> <address>")
	if err != nil {
		return err
	}
	data, err := ioutil.ReadFile(v[0])
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[1])
	if err != nil {
		return err
	}
	proc, err := t.process()
	if err != nil {
		return err
	}
	if err := proc.Allocation(addr).WriteAllBuffered(data, t.conf.GetChunkSize()); err != nil {
		return err
	}
	t.Println("loaded ", fmt.Sprintf("%d bytes at %#x", len(data), addr))
	return nil
}

func baseCmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 1, "base <module>")
	if err != nil {
		return err
	}
	proc, err := t.process()
	if err != nil {
		return err
	}
	base, err := proc.ModuleBase(v[0])
	if err != nil {
		return err
	}
	t.Println(v[0]+": ", fmt.Sprintf("%#x", base))
	return nil
}

func imageCmd(t *Term, args string) error {
	v, err := wantArgs(args, 0, 2, "image <file> <address> or image off")
	if err != nil {
		return err
	}
	switch {
	case len(v) == 0:
		if t.image == nil {
			t.Println("", "no image loaded")
		} else {
			t.Println("image ", fmt.Sprintf("%d bytes at %#x", len(t.image.Data), t.image.Addr))
		}
		return nil
	case len(v) == 1 && v[0] == "off":
		t.UseImage(0, nil)
		return nil
	case len(v) == 1:
		return fmt.Errorf("wrong number of arguments: image <file> <address>")
	}
	data, err := ioutil.ReadFile(v[0])
	if err != nil {
		return err
	}
	addr, err := t.parseAddr(v[1])
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%s is empty", v[0])
	}
	t.UseImage(uint64(addr), data)
	t.Println("image ", fmt.Sprintf("%d bytes at %#x", len(data), addr))
	return nil
}

func sourceCmd(t *Term, args string) error {
	v, err := wantArgs(args, 1, 1, "source <path>")
	if err != nil {
		return err
	}
	if t.scripts == nil {
		t.scripts = newScriptEnv(t)
	}
	return t.scripts.execute(v[0], nil)
}
