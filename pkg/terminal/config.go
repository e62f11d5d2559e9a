package terminal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/undoio/memwar/pkg/config"
)

func configureCmd(t *Term, args string) error {
	switch args {
	case "-list":
		return configureList(t)
	case "-save":
		return config.SaveConfig(t.conf)
	case "":
		return fmt.Errorf("wrong number of arguments to \"config\"")
	default:
		return configureSet(t, args)
	}
}

func configureList(t *Term) error {
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)

	fmt.Fprintf(w, "chunk-size\t%d\n", t.conf.GetChunkSize())
	fmt.Fprintf(w, "dump-width\t%d\n", t.conf.GetDumpWidth())
	fmt.Fprintf(w, "disasm-syntax\t%s\n", t.conf.GetDisasmSyntax())

	cmds := make([]string, 0, len(t.conf.Aliases))
	for cmd := range t.conf.Aliases {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	for _, cmd := range cmds {
		fmt.Fprintf(w, "alias\t%s %s\n", cmd, strings.Join(t.conf.Aliases[cmd], " "))
	}

	names := make([]string, 0, len(t.conf.Chains))
	for name := range t.conf.Chains {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "chain\t%s %s\n", name, formatChain(t.conf.Chains[name]))
	}
	return w.Flush()
}

// formatChain prints c in the form accepted by "config chain".
func formatChain(c config.Chain) string {
	var b strings.Builder
	if c.Module != "" {
		fmt.Fprintf(&b, "%s+%#x", c.Module, c.Base)
	} else {
		fmt.Fprintf(&b, "%#x", c.Base)
	}
	for _, off := range c.Offsets {
		if off < 0 {
			fmt.Fprintf(&b, " -%#x", -off)
		} else {
			fmt.Fprintf(&b, " %#x", off)
		}
	}
	if c.Type != "" {
		fmt.Fprintf(&b, " as %s", c.Type)
	}
	return b.String()
}

func configureSet(t *Term, args string) error {
	v, err := splitArgs(args)
	if err != nil {
		return err
	}
	name, rest := v[0], v[1:]

	switch name {
	case "alias":
		return configureSetAlias(t, rest)
	case "chain":
		return configureSetChain(t, rest)
	case "chunk-size", "dump-width":
		if len(rest) != 1 {
			return fmt.Errorf("wrong number of arguments to \"config %s\"", name)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("argument to %q must be a number greater than zero", name)
		}
		if name == "chunk-size" {
			t.conf.ChunkSize = n
		} else {
			t.conf.DumpWidth = n
		}
	case "disasm-syntax":
		if len(rest) != 1 {
			return fmt.Errorf("wrong number of arguments to \"config %s\"", name)
		}
		switch rest[0] {
		case "intel", "gnu", "go":
			t.conf.DisasmSyntax = rest[0]
		default:
			return fmt.Errorf("unknown disassembly syntax %q, expected intel, gnu or go", rest[0])
		}
	default:
		return fmt.Errorf("%q is not a configuration parameter", name)
	}
	return nil
}

func configureSetAlias(t *Term, argv []string) error {
	switch len(argv) {
	case 1: // delete alias
		for k := range t.conf.Aliases {
			v := t.conf.Aliases[k]
			for i := range v {
				if v[i] == argv[0] {
					t.conf.Aliases[k] = append(v[:i], v[i+1:]...)
					break
				}
			}
		}
	case 2: // add alias
		cmd, alias := argv[0], argv[1]
		if !t.cmds.has(cmd) {
			return fmt.Errorf("unknown command %q", cmd)
		}
		if t.conf.Aliases == nil {
			t.conf.Aliases = make(map[string][]string)
		}
		t.conf.Aliases[cmd] = append(t.conf.Aliases[cmd], alias)
	default:
		return fmt.Errorf("wrong number of arguments to \"config alias\"")
	}
	t.cmds.Merge(t.conf.Aliases)
	return nil
}

// configureSetChain stores a named chain, or deletes it when only the
// name is given:
//
//	config chain <name> <start> [offset...] [as <type>]
func configureSetChain(t *Term, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("wrong number of arguments to \"config chain\"")
	}
	name := argv[0]
	if len(argv) == 1 {
		if _, ok := t.conf.Chains[name]; !ok {
			return fmt.Errorf("no chain named %q", name)
		}
		delete(t.conf.Chains, name)
		return nil
	}

	var c config.Chain
	v := argv[1:]
	if n := len(v); n >= 2 && v[n-2] == "as" {
		c.Type = v[n-1]
		v = v[:n-2]
		if !isValueType(c.Type) {
			return unknownType(c.Type)
		}
	}
	if len(v) == 0 {
		return fmt.Errorf("chain %s has no start address", name)
	}

	start := v[0]
	if i := strings.LastIndex(start, "+"); i > 0 {
		c.Module, start = start[:i], start[i+1:]
	}
	base, err := strconv.ParseUint(start, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid chain start %q", v[0])
	}
	c.Base = base

	for _, s := range v[1:] {
		off, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid offset %q", s)
		}
		c.Offsets = append(c.Offsets, off)
	}

	if t.conf.Chains == nil {
		t.conf.Chains = make(map[string]config.Chain)
	}
	t.conf.Chains[name] = c
	return nil
}
