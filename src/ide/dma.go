package ide

import "atadrv/src/mem"
import "atadrv/src/util"

/// PRD_EOT marks the last entry of a PRD table.
const PRD_EOT uint32 = 1 << 31

/// Prd_t is one physical region descriptor: a physical address and a byte
/// count, 0 meaning 64KB. The count word carries PRD_EOT on the last entry.
type Prd_t struct {
	Addr uint32
	Cnt  uint32
}

// one entry per page, the last covering the remainder of size
func mkprd(pas []mem.Pa_t, size int) []Prd_t {
	if len(pas) != util.Divroundup(size, mem.PGSIZE) {
		panic("page count does not match size")
	}
	ret := make([]Prd_t, len(pas))
	for i, pa := range pas {
		ret[i].Addr = uint32(pa)
		ret[i].Cnt = uint32(mem.PGSIZE)
	}
	last := &ret[len(ret)-1]
	last.Cnt = uint32(size-(len(pas)-1)*mem.PGSIZE) | PRD_EOT
	return ret
}

func putprd(prds []Prd_t, tbl []uint8) {
	for i, p := range prds {
		util.Writen(tbl, 4, 8*i, int(p.Addr))
		util.Writen(tbl, 4, 8*i+4, int(p.Cnt))
	}
}

// bus masters can only reach the first 4GB
func below4g(io *mem.Iopages_t) bool {
	for _, pa := range io.Pas {
		if uint64(pa)+uint64(mem.PGSIZE) > 1<<32 {
			return false
		}
	}
	return true
}

// the most sectors whose data and PRD pages fit in the whole page budget.
// larger chunks could never be issued.
func (ide *Ide_t) dmamax(id *Ident_t) int {
	npg := ide.dmabudget
	for npg > 0 && npg+util.Divroundup(8*npg, mem.PGSIZE) > ide.dmabudget {
		npg--
	}
	if n := npg * mem.PGSIZE / int(id.Sectsz); n > 0 {
		return n
	}
	return 1
}

// reports a completion interrupt. hosts without interrupt delivery poll
// the bus master status instead.
func (ide *Ide_t) intrpending(ch *Channel_t) bool {
	if ide.env.Irqs == nil {
		return ch.regs.bmrd(BM_REG_STATUS)&BM_STAT_IRQ != 0
	}
	return ch.pending.Load()
}

// moves n sectors with bus master DMA through freshly allocated pages.
// returns n or 0.
func (ide *Ide_t) dmaxfer(id *Ident_t, op Op_t, buf []uint8, lba uint64, n int) int {
	ch := &ide.chans[id.Slot.Chan]
	r := &ch.regs
	size := n * int(id.Sectsz)
	npg := util.Divroundup(size, mem.PGSIZE)
	tblpg := util.Divroundup(8*npg, mem.PGSIZE)

	lim := &ide.lim.Dmapgs
	if !lim.Taken(uint(npg + tblpg)) {
		plog.Warningf("%v: dma page limit reached", id.Slot)
		return 0
	}
	defer lim.Given(uint(npg + tblpg))
	data, ok := ide.env.Mem.Alloc_io(npg)
	if !ok {
		return 0
	}
	defer ide.env.Mem.Free_io(data)
	tbl, ok := ide.env.Mem.Alloc_io(tblpg)
	if !ok {
		return 0
	}
	defer ide.env.Mem.Free_io(tbl)
	if !tbl.Contig() || !below4g(data) || !below4g(tbl) {
		plog.Warningf("%v: dma pages unusable", id.Slot)
		return 0
	}

	if op == OP_WRITE {
		copy(data.Buf, buf[:size])
	}
	putprd(mkprd(data.Pas, size), tbl.Buf)

	dir := uint8(0)
	if op == OP_READ {
		dir = BM_CMD_READ
	}
	r.bmprdt(uint32(tbl.Pa))
	r.bmwr(BM_REG_CMD, dir)
	r.bmwr(BM_REG_STATUS, r.bmrd(BM_REG_STATUS)|BM_STAT_IRQ|BM_STAT_ERR)

	ide.program(id, lba, n)
	r.wr(ATA_REG_COMMAND, dmaop(id.Mode, op))
	if !ide.waitdrq(r, ide.lim.Spin) {
		return 0
	}
	clk := ide.env.Clock
	t0 := clk.Now()
	defer func() {
		ide.Stat.Tdma.Add(clk.Now().Sub(t0))
	}()
	ch.pending.Store(false)
	r.bmwr(BM_REG_CMD, dir|BM_CMD_START)
	ide.Stat.Ndma.Inc()

	deadline := t0.Add(ide.lim.Dmatimeout)
	for {
		if ide.intrpending(ch) {
			r.bmwr(BM_REG_CMD, dir)
			st := r.bmrd(BM_REG_STATUS)
			if st&BM_STAT_IRQ != 0 && st&BM_STAT_ACTIVE == 0 {
				r.bmwr(BM_REG_STATUS, st|BM_STAT_IRQ|BM_STAT_ERR)
				// acknowledges the drive's interrupt
				ds := r.rd(ATA_REG_STATUS)
				if st&BM_STAT_ERR != 0 || ds&(ATA_SR_ERR|ATA_SR_DF) != 0 {
					plog.Warningf("%v: dma %v at %v failed, bm %#x status %#x",
						id.Slot, op, lba, st, ds)
					return 0
				}
				break
			}
			dbg("%v: dma restart, bm %#x", id.Slot, st)
			ide.Stat.Ndmarestart.Inc()
			r.bmwr(BM_REG_STATUS, st|BM_STAT_IRQ)
			ch.pending.Store(false)
			r.bmwr(BM_REG_CMD, dir|BM_CMD_START)
			continue
		}
		if !clk.Now().Before(deadline) {
			r.bmwr(BM_REG_CMD, dir)
			ide.Stat.Ndmato.Inc()
			plog.Warningf("%v: dma %v at %v timed out", id.Slot, op, lba)
			return 0
		}
		clk.Sleep(ide.lim.Dmapoll)
	}

	if op == OP_READ {
		copy(buf[:size], data.Buf)
	}
	return n
}
