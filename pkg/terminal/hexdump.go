package terminal

import (
	"fmt"
	"strings"
)

// hexdump prints data, read from addr, width bytes per row followed by
// the printable ASCII rendering of the row.
func hexdump(t *Term, data []byte, addr uint64, width int) {
	for len(data) > 0 {
		n := width
		if n > len(data) {
			n = len(data)
		}
		row := data[:n]
		var hexcol, ascii strings.Builder
		for i := 0; i < width; i++ {
			if i > 0 {
				hexcol.WriteByte(' ')
			}
			if i >= n {
				hexcol.WriteString("  ")
				continue
			}
			fmt.Fprintf(&hexcol, "%02x", row[i])
			if row[i] >= 0x20 && row[i] < 0x7f {
				ascii.WriteByte(row[i])
			} else {
				ascii.WriteByte('.')
			}
		}
		fmt.Fprintf(t.stdout, "%s%s  |%s|\n", t.colorize(ansiBlue, fmt.Sprintf("%#016x: ", addr)), hexcol.String(), ascii.String())
		data = data[n:]
		addr += uint64(n)
	}
}
