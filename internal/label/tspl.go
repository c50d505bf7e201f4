// internal/label/tspl.go
package label

import (
	"fmt"
	"strings"
)

// PCB micro-label geometry (TSPL, 203 dpi).
// Layout is fixed; edit these constants to move fields.
const (
	pcbWidthMM  = 40
	pcbHeightMM = 20
	pcbGapMM    = 2

	pcbFont   = "2"
	pcbScaleX = 2
	pcbScaleY = 2

	pcbSerialX = 100
	pcbSerialY = 55
	pcbSTCX    = 100
	pcbSTCY    = 105
)

// RenderPCB builds the TSPL program for the PCB tag.
// Content is not truncated; the printer clips overlong text.
func RenderPCB(serial string, stc int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SIZE %d mm, %d mm\n", pcbWidthMM, pcbHeightMM)
	fmt.Fprintf(&b, "GAP %d mm, 0 mm\n", pcbGapMM)
	b.WriteString("DIRECTION 1\n")
	b.WriteString("REFERENCE 0, 0\n")
	b.WriteString("OFFSET 0 mm\n")
	b.WriteString("SET PEEL OFF\n")
	b.WriteString("SET CUTTER OFF\n")
	b.WriteString("SET PARTIAL_CUTTER OFF\n")
	b.WriteString("SET TEAR ON\n")
	b.WriteString("CLEAR\n")
	fmt.Fprintf(&b, "TEXT %d, %d, %q, 0, %d, %d, \"%s\"\n", pcbSerialX, pcbSerialY, pcbFont, pcbScaleX, pcbScaleY, serial)
	fmt.Fprintf(&b, "TEXT %d, %d, %q, 0, %d, %d, \"STC: %d\"\n", pcbSTCX, pcbSTCY, pcbFont, pcbScaleX, pcbScaleY, stc)
	b.WriteString("PRINT 1, 1\n")

	return b.String()
}
