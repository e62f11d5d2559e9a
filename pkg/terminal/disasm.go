package terminal

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/undoio/memwar/pkg/mem"
)

func disasmMode() int {
	if mem.WordSize == 4 {
		return 32
	}
	return 64
}

// disassemble prints one line per instruction decoded from code, which
// was read from pc. Undecodable bytes are printed as "?" and skipped one
// at a time.
func disassemble(t *Term, code []byte, pc uint64, syntax string) {
	for len(code) > 0 {
		inst, err := x86asm.Decode(code, disasmMode())
		if err != nil {
			fmt.Fprintf(t.stdout, "%s%-30s %s\n", t.colorize(ansiBlue, fmt.Sprintf("%#016x  ", pc)), fmt.Sprintf("% x", code[:1]), "?")
			code = code[1:]
			pc++
			continue
		}
		var text string
		switch syntax {
		case "gnu":
			text = x86asm.GNUSyntax(inst, pc, nil)
		case "go":
			text = x86asm.GoSyntax(inst, pc, nil)
		default:
			text = x86asm.IntelSyntax(inst, pc, nil)
		}
		fmt.Fprintf(t.stdout, "%s%-30s %s\n", t.colorize(ansiBlue, fmt.Sprintf("%#016x  ", pc)), fmt.Sprintf("% x", code[:inst.Len]), text)
		code = code[inst.Len:]
		pc += uint64(inst.Len)
	}
}
