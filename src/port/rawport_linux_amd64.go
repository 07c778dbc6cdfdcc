package port

import "sync"

import "github.com/coreos/pkg/capnslog"
import "github.com/pkg/errors"
import "golang.org/x/sys/unix"

var plog = capnslog.NewPackageLogger("atadrv", "port")

func inb(port uint16) uint8
func inw(port uint16) uint16
func inl(port uint16) uint32
func outb(port uint16, v uint8)
func outw(port uint16, v uint16)
func outl(port uint16, v uint32)

var iopl struct {
	sync.Once
	err error
}

/// Rawport_t executes IN/OUT instructions directly. The process must hold
/// CAP_SYS_RAWIO. The I/O privilege level is per thread and inherited by new
/// threads, so MkRawport belongs early in main.
type Rawport_t struct{}

/// MkRawport raises the I/O privilege level and returns a port accessor.
func MkRawport() (*Rawport_t, error) {
	iopl.Do(func() {
		iopl.err = unix.Iopl(3)
	})
	if iopl.err != nil {
		return nil, errors.Wrap(iopl.err, "iopl")
	}
	plog.Infof("raw port I/O enabled")
	return &Rawport_t{}, nil
}

func (*Rawport_t) In8(port uint16) uint8       { return inb(port) }
func (*Rawport_t) Out8(port uint16, v uint8)   { outb(port, v) }
func (*Rawport_t) In16(port uint16) uint16     { return inw(port) }
func (*Rawport_t) Out16(port uint16, v uint16) { outw(port, v) }
func (*Rawport_t) In32(port uint16) uint32     { return inl(port) }
func (*Rawport_t) Out32(port uint16, v uint32) { outl(port, v) }

var _ Port_i = (*Rawport_t)(nil)
