package ide

import "atadrv/src/port"

/// Regs_t addresses the register banks of one channel: the command block,
/// the device control register and the bus master block. Bm is zero when
/// the controller cannot bus master.
type Regs_t struct {
	io  port.Port_i
	Cmd uint16
	Ctl uint16
	Bm  uint16
}

func (r *Regs_t) rd(reg int) uint8 {
	return r.io.In8(r.Cmd + uint16(reg))
}

func (r *Regs_t) wr(reg int, v uint8) {
	r.io.Out8(r.Cmd+uint16(reg), v)
}

func (r *Regs_t) rddata() uint16 {
	return r.io.In16(r.Cmd + ATA_REG_DATA)
}

func (r *Regs_t) wrdata(v uint16) {
	r.io.Out16(r.Cmd+ATA_REG_DATA, v)
}

// reading the alternate status does not acknowledge a pending interrupt
func (r *Regs_t) altstatus() uint8 {
	return r.io.In8(r.Ctl)
}

func (r *Regs_t) control(v uint8) {
	r.io.Out8(r.Ctl, v)
}

// each alternate status read takes at least 100ns on the ISA timed bus
func (r *Regs_t) delay400() {
	for i := 0; i < 4; i++ {
		r.altstatus()
	}
}

func (r *Regs_t) bmrd(reg int) uint8 {
	if r.Bm == 0 {
		panic("no bus master")
	}
	return r.io.In8(r.Bm + uint16(reg))
}

func (r *Regs_t) bmwr(reg int, v uint8) {
	if r.Bm == 0 {
		panic("no bus master")
	}
	r.io.Out8(r.Bm+uint16(reg), v)
}

func (r *Regs_t) bmprdt(pa uint32) {
	r.io.Out32(r.Bm+BM_REG_PRDT, pa)
}

// words are little endian on the wire
func (r *Regs_t) rdwords(dst []uint8) {
	for i := 0; i+1 < len(dst); i += 2 {
		w := r.rddata()
		dst[i] = uint8(w)
		dst[i+1] = uint8(w >> 8)
	}
	if len(dst)&1 != 0 {
		dst[len(dst)-1] = uint8(r.rddata())
	}
}

func (r *Regs_t) wrwords(src []uint8) {
	if len(src)&1 != 0 {
		panic("odd write")
	}
	for i := 0; i < len(src); i += 2 {
		r.wrdata(uint16(src[i]) | uint16(src[i+1])<<8)
	}
}
