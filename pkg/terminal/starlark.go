package terminal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"

	"github.com/undoio/memwar/pkg/logflags"
	"github.com/undoio/memwar/pkg/mem"
)

const (
	commandPrefix     = "command_"
	mainFnName        = "main"
	memwarCommandName = "memwar_command"
)

func init() {
	resolve.AllowNestedDef = true
	resolve.AllowLambda = true
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowBitwise = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
}

// scriptEnv is the environment starlark scripts run in. It outlives a
// single script: globals starting with a capital letter stay visible to
// scripts sourced later.
type scriptEnv struct {
	t   *Term
	env starlark.StringDict
}

type builtinFn func(thread *starlark.Thread, args starlark.Tuple) (starlark.Value, error)

func newScriptEnv(t *Term) *scriptEnv {
	e := &scriptEnv{t: t, env: starlark.StringDict{}}

	e.builtin("read", e.read)
	e.builtin("write", e.write)
	e.builtin("read_bytes", e.readBytes)
	e.builtin("write_bytes", e.writeBytes)
	e.builtin("chain", e.chain)
	e.builtin("alloc", e.alloc)
	e.builtin("free", e.free)
	e.builtin("base", e.base)
	e.builtin(memwarCommandName, e.command)

	return e
}

func (e *scriptEnv) builtin(name string, fn builtinFn) {
	e.env[name] = starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, decorateError(thread, fmt.Errorf("%s does not accept keyword arguments", b.Name()))
		}
		v, err := fn(thread, args)
		if err != nil {
			return nil, decorateError(thread, err)
		}
		return v, nil
	})
}

func (e *scriptEnv) newThread() *starlark.Thread {
	return &starlark.Thread{
		Name: "memwar",
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(e.t.stdout, msg)
		},
	}
}

// execute runs the script at path, or source when it is not nil. Functions
// named command_<name> become terminal commands and a function named main
// is called once the script has been loaded.
func (e *scriptEnv) execute(path string, source interface{}) error {
	if logflags.Terminal() {
		logflags.TerminalLogger().Debugf("source %s", path)
	}
	thread := e.newThread()
	globals, err := starlark.ExecFile(thread, path, source, e.env)
	if err != nil {
		return err
	}

	for name, val := range globals {
		switch {
		case strings.HasPrefix(name, commandPrefix):
			e.createCommand(name[len(commandPrefix):], val)
		case name[0] >= 'A' && name[0] <= 'Z':
			e.env[name] = val
		}
	}

	mainval, ok := globals[mainFnName]
	if !ok {
		return nil
	}
	mainfn, ok := mainval.(*starlark.Function)
	if !ok {
		return fmt.Errorf("%s is not a function", mainFnName)
	}
	if mainfn.NumParams() != 0 {
		return fmt.Errorf("%s must not take arguments", mainFnName)
	}
	_, err = starlark.Call(thread, mainfn, nil, nil)
	return err
}

// createCommand registers fn as the terminal command name. A function
// with a single parameter called args receives the command line verbatim,
// any other function gets it evaluated as a starlark argument list.
func (e *scriptEnv) createCommand(name string, val starlark.Value) {
	fnval, ok := val.(*starlark.Function)
	if !ok || name == "" {
		return
	}

	helpMsg := fnval.Doc()
	if helpMsg == "" {
		helpMsg = "user defined"
	}

	rawArgs := false
	if fnval.NumParams() == 1 {
		if p0, _ := fnval.Param(0); p0 == "args" {
			rawArgs = true
		}
	}

	e.t.cmds.Register(name, func(t *Term, args string) error {
		thread := e.newThread()
		var argtuple starlark.Tuple
		switch {
		case rawArgs:
			argtuple = starlark.Tuple{starlark.String(args)}
		case strings.TrimSpace(args) != "":
			argval, err := starlark.Eval(thread, "<input>", "("+args+",)", e.env)
			if err != nil {
				return err
			}
			argtuple = argval.(starlark.Tuple)
		}
		_, err := starlark.Call(thread, fnval, argtuple, nil)
		return err
	}, helpMsg)
}

// read(type, address) returns the value of type at address.
func (e *scriptEnv) read(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("wrong number of arguments: read(type, address)")
	}
	typ, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("type must be a string")
	}
	addr, err := e.addr(args[1])
	if err != nil {
		return nil, err
	}
	v, err := readTyped(e.t.alloc(), typ, addr)
	if err != nil {
		return nil, err
	}
	return toStarlarkValue(v), nil
}

// write(type, address, value...) stores value at address. Vectors take
// one value per component.
func (e *scriptEnv) write(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("wrong number of arguments: write(type, address, value...)")
	}
	typ, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("type must be a string")
	}
	addr, err := e.addr(args[1])
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(args)-2)
	for _, v := range args[2:] {
		s, err := valueString(v)
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return starlark.None, writeValue(e.t.alloc(), typ, addr, values)
}

// read_bytes(address, length) returns length bytes at address.
func (e *scriptEnv) readBytes(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("wrong number of arguments: read_bytes(address, length)")
	}
	addr, err := e.addr(args[0])
	if err != nil {
		return nil, err
	}
	var n int
	if err := starlark.AsInt(args[1], &n); err != nil || n < 0 || n > maxDumpSize {
		return nil, fmt.Errorf("length must be an int between 0 and %d", maxDumpSize)
	}
	data, err := e.t.readWriter().Read(uint64(addr), n)
	if err != nil {
		return nil, err
	}
	return starlark.Bytes(data), nil
}

// write_bytes(address, data) stores data, bytes or a string, at address.
func (e *scriptEnv) writeBytes(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("wrong number of arguments: write_bytes(address, data)")
	}
	addr, err := e.addr(args[0])
	if err != nil {
		return nil, err
	}
	var data []byte
	switch v := args[1].(type) {
	case starlark.Bytes:
		data = []byte(v)
	case starlark.String:
		data = []byte(v)
	default:
		return nil, fmt.Errorf("data must be bytes or a string, not %s", v.Type())
	}
	if _, err := e.t.readWriter().Write(uint64(addr), data); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// chain(start, offset...) follows a pointer chain and returns the address
// of the last read.
func (e *scriptEnv) chain(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("wrong number of arguments: chain(start, offset...)")
	}
	start, err := e.addr(args[0])
	if err != nil {
		return nil, err
	}
	offsets := make([]uintptr, 0, len(args)-1)
	for _, v := range args[1:] {
		var off int64
		if err := starlark.AsInt(v, &off); err != nil {
			return nil, fmt.Errorf("offset %v: %v", v, err)
		}
		offsets = append(offsets, uintptr(off))
	}
	addr, err := e.t.alloc().DerefChain(start, offsets...)
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint64(uint64(addr)), nil
}

// alloc(size) allocates memory in the attached process and returns its
// base.
func (e *scriptEnv) alloc(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("wrong number of arguments: alloc(size)")
	}
	var size uint64
	if err := starlark.AsInt(args[0], &size); err != nil || size == 0 {
		return nil, fmt.Errorf("size must be a positive int")
	}
	proc, err := e.t.process()
	if err != nil {
		return nil, err
	}
	a, err := mem.AllocRemoteAnywhere(proc.Handle, uintptr(size))
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint64(uint64(a.Base())), nil
}

// free(address) releases memory returned by alloc.
func (e *scriptEnv) free(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("wrong number of arguments: free(address)")
	}
	addr, err := e.addr(args[0])
	if err != nil {
		return nil, err
	}
	proc, err := e.t.process()
	if err != nil {
		return nil, err
	}
	return starlark.None, proc.Allocation(addr).FreeRemote()
}

// base(module) returns the load address of module.
func (e *scriptEnv) base(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("wrong number of arguments: base(module)")
	}
	module, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("module must be a string")
	}
	proc, err := e.t.process()
	if err != nil {
		return nil, err
	}
	b, err := proc.ModuleBase(module)
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint64(uint64(b)), nil
}

// memwar_command(cmd...) runs a terminal command, the arguments joined by
// spaces.
func (e *scriptEnv) command(_ *starlark.Thread, args starlark.Tuple) (starlark.Value, error) {
	argstrs := make([]string, len(args))
	for i := range args {
		a, ok := starlark.AsString(args[i])
		if !ok {
			return nil, fmt.Errorf("argument of %s is not a string", memwarCommandName)
		}
		argstrs[i] = a
	}
	return starlark.None, e.t.Call(strings.Join(argstrs, " "))
}

// addr converts an int, or a string in any form the terminal accepts, to
// an address.
func (e *scriptEnv) addr(v starlark.Value) (uintptr, error) {
	switch v := v.(type) {
	case starlark.Int:
		n, ok := v.Uint64()
		if !ok || n > uint64(^uintptr(0)) {
			return 0, fmt.Errorf("address %v out of range", v)
		}
		return uintptr(n), nil
	case starlark.String:
		return e.t.parseAddr(string(v))
	default:
		return 0, fmt.Errorf("address must be an int or a string, not %s", v.Type())
	}
}

// valueString formats a script value the way write accepts it on the
// command line.
func valueString(v starlark.Value) (string, error) {
	switch v := v.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.Int:
		return v.String(), nil
	case starlark.Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), nil
	case starlark.Bool:
		return strconv.FormatBool(bool(v)), nil
	default:
		return "", fmt.Errorf("cannot write a value of type %s", v.Type())
	}
}

func toStarlarkValue(v interface{}) starlark.Value {
	switch v := v.(type) {
	case uint8:
		return starlark.MakeUint64(uint64(v))
	case uint16:
		return starlark.MakeUint64(uint64(v))
	case uint32:
		return starlark.MakeUint64(uint64(v))
	case uint64:
		return starlark.MakeUint64(v)
	case uintptr:
		return starlark.MakeUint64(uint64(v))
	case int16:
		return starlark.MakeInt64(int64(v))
	case int32:
		return starlark.MakeInt64(int64(v))
	case int64:
		return starlark.MakeInt64(v)
	case float32:
		return starlark.Float(v)
	case float64:
		return starlark.Float(v)
	case bool:
		return starlark.Bool(v)
	case mem.Uint128:
		n := new(big.Int).SetUint64(v.Hi)
		n.Lsh(n, 64)
		n.Or(n, new(big.Int).SetUint64(v.Lo))
		return starlark.MakeBigInt(n)
	case mem.Vector2:
		return starlark.Tuple{starlark.Float(v.X), starlark.Float(v.Y)}
	case mem.Vector3:
		return starlark.Tuple{starlark.Float(v.X), starlark.Float(v.Y), starlark.Float(v.Z)}
	default:
		return starlark.String(fmt.Sprint(v))
	}
}

func decorateError(thread *starlark.Thread, err error) error {
	if err == nil {
		return nil
	}
	pos := thread.CallFrame(1).Pos
	if pos.Col > 0 {
		return fmt.Errorf("%s:%d:%d: %v", pos.Filename(), pos.Line, pos.Col, err)
	}
	return fmt.Errorf("%s:%d: %v", pos.Filename(), pos.Line, err)
}
