package trace

import "fmt"

// Bit is a four-state logic value, the usual checkpoint payload of a Trace.
// The store only relies on equality, so any comparable type can serve as the
// value parameter instead.
type Bit uint8

const (
	Bit0 Bit = iota // driven low
	Bit1            // driven high
	BitX            // unknown
	BitZ            // high impedance
)

func (b Bit) String() string {
	switch b {
	case Bit0:
		return "0"
	case Bit1:
		return "1"
	case BitX:
		return "x"
	case BitZ:
		return "z"
	}
	return fmt.Sprintf("Bit(%d)", uint8(b))
}
