package target

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSelf(t *testing.T) {
	p, err := Open(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	if !p.self || p.Pid != os.Getpid() {
		t.Fatalf("Open(getpid) should return the current process: %v", p)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("closing the current process: %v", err)
	}
}

func TestFindPidAndModuleBase(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Base(exe)
	pid, err := FindPid(name)
	if err != nil {
		t.Fatalf("FindPid(%q): %v", name, err)
	}
	if pid <= 0 {
		t.Fatalf("bad pid %d", pid)
	}
	base, err := ModuleBase(os.Getpid(), "kernel32.dll")
	if err != nil {
		t.Fatalf("ModuleBase(kernel32.dll): %v", err)
	}
	if base == 0 {
		t.Fatal("kernel32.dll loaded at zero")
	}
	p := Self()
	v, err := p.Allocation(base).ReadU16(base)
	if err != nil {
		t.Fatalf("reading the module header: %v", err)
	}
	if v != 0x5a4d {
		t.Fatalf("module does not start with MZ: %#x", v)
	}
}

func TestNotFound(t *testing.T) {
	if _, err := FindPid("memwar-no-such-process.exe"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := ModuleBase(os.Getpid(), "memwar-no-such-module.dll"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
