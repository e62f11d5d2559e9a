package target

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/undoio/memwar/pkg/logflags"
	"github.com/undoio/memwar/pkg/mem"
)

const processAccess = windows.PROCESS_VM_READ | windows.PROCESS_VM_WRITE | windows.PROCESS_VM_OPERATION | windows.PROCESS_QUERY_INFORMATION

// Self returns the current process. Its handle is the pseudo-handle and
// needs no closing.
func Self() *Process {
	return &Process{Pid: os.Getpid(), Handle: mem.Handle(windows.CurrentProcess()), self: true}
}

// Open opens pid with the access rights needed to read, write and
// allocate memory.
func Open(pid int) (*Process, error) {
	if pid == os.Getpid() {
		return Self(), nil
	}
	h, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("could not open process %d: %w", pid, err)
	}
	if logflags.Target() {
		logflags.TargetLogger().Debugf("opened pid %d, handle %#x", pid, h)
	}
	return &Process{Pid: pid, Handle: mem.Handle(h)}, nil
}

// OpenByName opens the first process whose executable name matches name,
// ignoring case.
func OpenByName(name string) (*Process, error) {
	pid, err := FindPid(name)
	if err != nil {
		return nil, err
	}
	return Open(pid)
}

func closeHandle(h mem.Handle) error {
	return windows.CloseHandle(windows.Handle(h))
}

// FindPid returns the PID of the first process whose executable name
// matches name, ignoring case.
func FindPid(name string) (int, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(snapshot)
	var process windows.ProcessEntry32
	process.Size = uint32(unsafe.Sizeof(process))
	if err := windows.Process32First(snapshot, &process); err != nil {
		return 0, fmt.Errorf("Process32First failed: %w", err)
	}
	for {
		if strings.EqualFold(windows.UTF16ToString(process.ExeFile[:]), name) {
			return int(process.ProcessID), nil
		}
		if err := windows.Process32Next(snapshot, &process); err != nil {
			break
		}
	}
	return 0, fmt.Errorf("process %q: %w", name, ErrNotFound)
}

// ModuleBase returns the load address of module in process pid.
func ModuleBase(pid int, module string) (uintptr, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(snapshot)
	var me32 windows.ModuleEntry32
	me32.Size = uint32(unsafe.Sizeof(me32))
	if err := windows.Module32First(snapshot, &me32); err != nil {
		return 0, fmt.Errorf("Module32First failed: %w", err)
	}
	for {
		if strings.EqualFold(windows.UTF16ToString(me32.Module[:]), module) {
			if logflags.Target() {
				logflags.TargetLogger().Debugf("module %s of pid %d at %#x", module, pid, me32.ModBaseAddr)
			}
			return me32.ModBaseAddr, nil
		}
		if err := windows.Module32Next(snapshot, &me32); err != nil {
			break
		}
	}
	return 0, fmt.Errorf("module %q: %w", module, ErrNotFound)
}
