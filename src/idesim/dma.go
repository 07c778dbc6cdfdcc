package idesim

import "atadrv/src/mem"
import "atadrv/src/util"

const (
	bm_start  uint8 = 0x01
	bm_read   uint8 = 0x08
	bs_active uint8 = 0x01
	bs_err    uint8 = 0x02
	bs_irq    uint8 = 0x04
)

// reads the PRD table at pa. caller holds the lock.
func (m *Machine_t) prdtable(pa uint32) []Prd_t {
	var ret []Prd_t
	for i := 0; ; i++ {
		e := m.Mem.Dmaplen(mem.Pa_t(pa)+mem.Pa_t(8*i), 8)
		p := Prd_t{uint32(util.Readn(e, 4, 0)), uint32(util.Readn(e, 4, 4))}
		ret = append(ret, p)
		if p.Cnt&(1<<31) != 0 || i == 8191 {
			return ret
		}
	}
}

func prdlen(p Prd_t) int {
	n := int(p.Cnt & 0xffff)
	if n == 0 {
		n = 0x10000
	}
	return n
}

// the bus master of ch was started. reports whether the channel raises
// its interrupt line.
func (m *Machine_t) bmstart(ch *simchan_t) bool {
	ch.bmstat |= bs_active
	d := ch.cur()
	if d == nil || d.xf == nil || !d.xf.dma {
		return false
	}
	if d.cfg.Fault.Dropirq {
		return false
	}
	if d.dmaactive > 0 {
		d.dmaactive--
		ch.bmstat |= bs_irq
		return true
	}

	xf := d.xf
	prds := m.prdtable(ch.prdt)
	m.lastprd = prds
	total := 0
	for _, p := range prds {
		total += prdlen(p)
	}
	toram := ch.bmcmd&bm_read != 0
	if toram == xf.write || total != xf.left*d.ss {
		plog.Debugf("%v: prd table of %v bytes for %v sectors, to ram %v",
			d.slot, total, xf.left, toram)
		ch.bmstat = ch.bmstat&^bs_active | bs_irq | bs_err
		d.fail(er_abrt)
		return true
	}

	// scatter or gather one sector at a time across the regions
	pi, po := 0, 0
	move := func(sec []uint8) {
		for len(sec) > 0 {
			seg := m.Mem.Dmaplen(mem.Pa_t(prds[pi].Addr)+mem.Pa_t(po), prdlen(prds[pi])-po)
			var n int
			if toram {
				n = copy(seg, sec)
			} else {
				n = copy(sec, seg)
			}
			sec = sec[n:]
			po += n
			if po == prdlen(prds[pi]) {
				pi++
				po = 0
			}
		}
	}
	for ; xf.left > 0; xf.left-- {
		if d.bad[xf.lba] {
			ch.bmstat = ch.bmstat&^bs_active | bs_irq
			d.fail(er_unc)
			return true
		}
		if toram {
			move(append([]uint8(nil), d.sector(xf.lba)...))
		} else {
			s := make([]uint8, d.ss)
			move(s)
			d.store.Set(xf.lba, s)
		}
		xf.lba++
	}
	ch.bmstat = ch.bmstat&^bs_active | bs_irq
	d.idle()
	return true
}
