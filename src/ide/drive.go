package ide

import "atadrv/src/bdev"

/// Drive_t is the handle of one identified drive.
type Drive_t struct {
	ide *Ide_t
	id  Ident_t
}

/// Ident returns a copy of the drive's identity.
func (d *Drive_t) Ident() Ident_t {
	ret := d.id
	if ret.Atapi != nil {
		a := *ret.Atapi
		ret.Atapi = &a
	}
	return ret
}

func (d *Drive_t) Ide() *Ide_t {
	return d.ide
}

func (d *Drive_t) Sector_size() uint32 {
	return d.id.Sectsz
}

func (d *Drive_t) Sector_count() uint64 {
	return d.id.Nsectors()
}

func (d *Drive_t) Read(buf []uint8, start uint64, n int) (int, error) {
	return d.ide.Transfer(&d.id, OP_READ, buf, start, n)
}

func (d *Drive_t) Write(buf []uint8, start uint64, n int) (int, error) {
	return d.ide.Transfer(&d.id, OP_WRITE, buf, start, n)
}

var _ bdev.Disk_i = (*Drive_t)(nil)
