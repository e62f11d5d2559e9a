package cmds

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestQuoteArg(t *testing.T) {
	tc := []struct {
		in, out string
	}{
		{"0x1000", "0x1000"},
		{"", "''"},
		{"my file.bin", "'my file.bin'"},
		{"it's", `"it's"`},
		{`a"b c'd`, `"a\"b c'd"`},
	}
	for _, c := range tc {
		if got := quoteArg(c.in); got != c.out {
			t.Errorf("quoteArg(%q) = %q, expected %q", c.in, got, c.out)
		}
	}
	if got := joinArgs([]string{"u32", "game.exe+0x10", "7"}); got != "u32 game.exe+0x10 7" {
		t.Errorf("joinArgs: %q", got)
	}
}

func TestCommandTree(t *testing.T) {
	root := New(true)
	want := []string{"chain", "disasm", "dump", "load", "log", "read", "shell", "source", "vec", "version", "write"}
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing subcommand %q in %v", name, got)
		}
	}
	for _, flag := range []string{"pid", "process", "log", "log-output", "log-dest", "profile"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing flag --%s", flag)
		}
	}
}

func TestEnvPid(t *testing.T) {
	t.Setenv(pidEnv, "1234")
	if n := envPid(); n != 1234 {
		t.Fatalf("envPid() = %d", n)
	}
	t.Setenv(pidEnv, "game.exe")
	if n := envPid(); n != 0 {
		t.Fatalf("envPid() = %d for a non numeric value", n)
	}
	if s := os.Getenv(pidEnv); s != "game.exe" {
		t.Fatalf("%s was modified to %q", pidEnv, s)
	}
	root := New(true)
	if f := root.PersistentFlags().Lookup("pid"); f.DefValue != "0" {
		t.Fatalf("--pid defaults to %s", f.DefValue)
	}
}

func TestOpenTargetRequiresSelection(t *testing.T) {
	pid, processName = 0, ""
	if _, err := openTarget(false); err != errNoTarget {
		t.Fatalf("expected errNoTarget, got %v", err)
	}
	p, err := openTarget(true)
	if err != nil {
		t.Fatalf("openTarget(true): %v", err)
	}
	if !strings.HasPrefix(p.String(), "self") {
		t.Fatalf("expected the current process, got %v", p)
	}
}

func TestBadFlags(t *testing.T) {
	root := New(true)
	root.SetArgs([]string{"--profile", "disk", "version"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "unknown profile mode") {
		t.Fatalf("expected profile mode error, got %v", err)
	}
	profileMode = ""

	root = New(true)
	root.SetArgs([]string{"vec", "4", "0x1000"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "dimension") {
		t.Fatalf("expected dimension error, got %v", err)
	}
}

func TestNormalizeFlag(t *testing.T) {
	root := New(true)
	if err := root.PersistentFlags().Parse([]string{"--log_output=mem,target"}); err != nil {
		t.Fatal(err)
	}
	if logOutput != "mem,target" {
		t.Fatalf("--log_output was not normalized: %q", logOutput)
	}
	logOutput = ""
}

func TestImageFlags(t *testing.T) {
	dir, err := ioutil.TempDir("", "memwar-cmds")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	p := filepath.Join(dir, "code.bin")
	if err := ioutil.WriteFile(p, []byte{0x90, 0x90, 0xc3}, 0600); err != nil {
		t.Fatal(err)
	}
	pid, processName = 0, ""

	for _, args := range [][]string{
		{"disasm", "--image", p, "--image-base", "0x401000", "0x401000", "3"},
		{"dump", "--image", p, "0", "3"},
	} {
		root := New(true)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}

	for _, args := range [][]string{
		{"dump", "--image", p, "0x10"},
		{"dump", "--image", p, "--image-base", "nowhere", "0"},
		{"dump", "0"},
	} {
		root := New(true)
		root.SetArgs(args)
		if err := root.Execute(); err == nil {
			t.Errorf("%v should fail", args)
		}
	}
	imagePath, imageBase = "", "0"
}
