package defs

/// Device major numbers for published block devices.
const (
	D_ATA   int = 1     /// ATA hard disk
	D_ATAPI     = 2     /// ATAPI packet device
	D_FIRST     = D_ATA /// lowest device number
	D_LAST      = D_ATAPI
)

/// Interrupt vector layout. Legacy ISA IRQs are remapped to start at
/// IRQ_BASE, the IDE compatibility channels use IRQ 14 and 15.
const (
	IRQ_BASE int = 32
	IRQ_ATA1     = 14
	IRQ_ATA2     = 15
	INT_ATA1     = IRQ_BASE + IRQ_ATA1 /// primary channel vector
	INT_ATA2     = IRQ_BASE + IRQ_ATA2 /// secondary channel vector
)

/// Mkdev encodes a major and minor device number into a 64-bit identifier.
func Mkdev(_maj, _min int) uint {
	maj := uint(_maj)
	min := uint(_min)
	if min > 0xff {
		panic("bad minor")
	}
	m := maj<<8 | min
	return uint(m << 32)
}

/// Unmkdev returns the major and minor components of a device number.
func Unmkdev(d uint) (int, int) {
	return int(d >> 40), int(uint8(d >> 32))
}

/// Devname returns the conventional name prefix for a major number.
func Devname(maj int) string {
	switch maj {
	case D_ATA:
		return "ata"
	case D_ATAPI:
		return "atapi"
	}
	panic("bad major")
}
