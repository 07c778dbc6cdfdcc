package idesim

import "encoding/binary"

// puts s into n words, two characters per word, first in the high byte
func putstr(w []uint16, s string, n int) {
	b := make([]uint8, 2*n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	for i := 0; i < n; i++ {
		w[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
}

// IDENTIFY (PACKET) DEVICE data
func (d *simdrive_t) identify() []uint8 {
	var w [256]uint16
	c := &d.cfg
	if d.atapi {
		// packet device, CD-ROM, removable
		w[0] = 0x8580
		if c.Pkt16 {
			w[0] |= 1
		}
		w[49] = 1 << 9
	} else {
		w[0] = 0x0040
		w[1] = uint16(c.Cyls)
		w[3] = uint16(c.Heads)
		w[6] = uint16(c.Spt)
		if c.Lba {
			w[49] |= 1 << 9
			w[60] = uint16(c.Max28)
			w[61] = uint16(c.Max28 >> 16)
		}
		w[83] = 0x4000
		if c.Lba48 {
			w[83] |= 1 << 10
			w[86] = 1 << 10
			for i := 0; i < 4; i++ {
				w[100+i] = uint16(c.Max48 >> uint(16*i))
			}
		}
	}
	putstr(w[10:20], c.Serial, 10)
	putstr(w[23:27], c.Firmware, 4)
	putstr(w[27:47], c.Model, 20)
	if c.Dma {
		w[49] |= 1 << 8
		w[63] = 0x0007
		w[88] = 0x003f
	}
	w[80] = 0x007e
	w[81] = 0x0022
	w[82] = 0x4000
	ret := make([]uint8, 512)
	for i, v := range w {
		binary.LittleEndian.PutUint16(ret[2*i:], v)
	}
	return ret
}
