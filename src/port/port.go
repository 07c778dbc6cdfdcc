// Package port describes x86 I/O port access.
package port

/// Port_i reads and writes the I/O port space. Implementations must be safe
/// for concurrent use; ordering between calls from one goroutine is kept.
type Port_i interface {
	In8(port uint16) uint8
	Out8(port uint16, v uint8)
	In16(port uint16) uint16
	Out16(port uint16, v uint16)
	In32(port uint16) uint32
	Out32(port uint16, v uint32)
}
