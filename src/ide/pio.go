package ide

// moves n sectors with programmed I/O. every sector waits for DRQ, the
// first with the long budget. returns the sectors completed.
func (ide *Ide_t) pio(id *Ident_t, op Op_t, buf []uint8, lba uint64, n int) int {
	r := &ide.chans[id.Slot.Chan].regs
	ss := int(id.Sectsz)

	ide.program(id, lba, n)
	r.wr(ATA_REG_COMMAND, pioop(id.Mode, op))
	spin := ide.lim.Spin
	for i := 0; i < n; i++ {
		if !ide.waitdrq(r, spin) {
			return i
		}
		spin = ide.lim.Spinshort
		sec := buf[i*ss : (i+1)*ss]
		if op == OP_READ {
			r.rdwords(sec)
		} else {
			r.wrwords(sec)
		}
	}
	if op == OP_WRITE {
		// the last sector is only on the drive once BSY drops without ERR
		st, ok := ide.waitbsy(r, ide.lim.Spin)
		if !ok || st&(ATA_SR_ERR|ATA_SR_DF) != 0 {
			return n - 1
		}
		ide.flush(id)
	}
	return n
}

func (ide *Ide_t) flush(id *Ident_t) {
	r := &ide.chans[id.Slot.Chan].regs
	cmd := ATA_CMD_CACHE_FLUSH
	if id.Mode == AM_LBA48 {
		cmd = ATA_CMD_CACHE_FLUSH_EXT
	}
	r.wr(ATA_REG_COMMAND, cmd)
	st, ok := ide.waitbsy(r, ide.lim.Spin)
	if !ok || st&ATA_SR_ERR != 0 {
		plog.Warningf("%v: cache flush failed, status %#x", id.Slot, st)
	}
}
