package ide

// spins until BSY clears
func (ide *Ide_t) waitbsy(r *Regs_t, spin int) (uint8, bool) {
	for i := 0; i < spin; i++ {
		st := r.rd(ATA_REG_STATUS)
		if st&ATA_SR_BSY == 0 {
			return st, true
		}
	}
	return 0, false
}

// spins until the drive requests data. an error or device fault ends the
// wait early.
func (ide *Ide_t) waitdrq(r *Regs_t, spin int) bool {
	for i := 0; i < spin; i++ {
		st := r.rd(ATA_REG_STATUS)
		if st&ATA_SR_BSY != 0 {
			continue
		}
		if st&(ATA_SR_ERR|ATA_SR_DF) != 0 {
			dbg("status %#x error %#x", st, r.rd(ATA_REG_ERROR))
			return false
		}
		if st&ATA_SR_DRQ != 0 {
			return true
		}
	}
	return false
}

func (ide *Ide_t) selectdrive(s Slot_t) {
	ch := &ide.chans[s.Chan]
	ch.regs.wr(ATA_REG_HDDEVSEL, ATA_SEL_CHS|s.sel())
	ch.regs.delay400()
	ch.lastsel = s.Drive
}

// soft resets the channel with drive s selected and classifies the drive
// by the signature it leaves in the task file
func (ide *Ide_t) reset(s Slot_t) Drivetype_t {
	ch := &ide.chans[s.Chan]
	r := &ch.regs

	ide.selectdrive(s)
	if st := r.altstatus(); st == 0 || st == 0xff {
		dbg("%v: floating bus %#x", s, st)
		return DT_NONE
	}

	r.control(ATA_CTL_SRST | ATA_CTL_NIEN)
	ide.env.Clock.Sleep(ide.lim.Resethold)
	r.control(ATA_CTL_NIEN)
	ch.nien = true
	ide.env.Clock.Sleep(ide.lim.Resethold)
	// reset leaves drive 0 selected
	ide.selectdrive(s)

	if _, ok := ide.waitbsy(r, ide.lim.Spin); !ok {
		plog.Debugf("%v: busy after reset", s)
		return DT_NONE
	}
	if e := r.rd(ATA_REG_ERROR); e != 0 && e != 1 {
		dbg("%v: diagnostic code %#x", s, e)
		return DT_NONE
	}
	if r.rd(ATA_REG_SECCOUNT) != 1 || r.rd(ATA_REG_LBA0) != 1 {
		return DT_NONE
	}
	lo, hi := r.rd(ATA_REG_LBA1), r.rd(ATA_REG_LBA2)
	switch {
	case lo == 0x14 && hi == 0xeb, lo == 0x69 && hi == 0x96:
		return DT_ATAPI
	case lo == 0 && hi == 0:
		return DT_ATA
	}
	dbg("%v: unknown signature %#x %#x", s, lo, hi)
	return DT_NONE
}

// issues IDENTIFY (PACKET) DEVICE and completes the identity with the
// sector size of ATA drives or the capacity of ATAPI media
func (ide *Ide_t) identify(s Slot_t, t Drivetype_t) (*Ident_t, bool) {
	r := &ide.chans[s.Chan].regs
	ide.selectdrive(s)
	r.control(ATA_CTL_NIEN)
	ide.chans[s.Chan].nien = true

	cmd := ATA_CMD_IDENTIFY
	if t == DT_ATAPI {
		cmd = ATA_CMD_IDENTIFY_PACKET
	}
	r.wr(ATA_REG_COMMAND, cmd)
	if !ide.waitdrq(r, ide.lim.Spin) {
		plog.Debugf("%v: no identify data", s)
		return nil, false
	}
	var w [256]uint16
	for i := range w {
		w[i] = r.rddata()
	}
	id := parseident(s, t, &w)
	if t == DT_ATA && id.Mode == AM_CHS &&
		(id.Cyls == 0 || id.Heads == 0 || id.Spt == 0) {
		plog.Debugf("%v: no usable geometry", s)
		return nil, false
	}

	switch t {
	case DT_ATA:
		ss := ide.probess(id)
		if ss == 0 {
			plog.Debugf("%v: sector size probe failed", s)
			return nil, false
		}
		id.Sectsz = ss
	case DT_ATAPI:
		maxlba, blksz, ok := ide.capacity(id)
		if !ok {
			plog.Infof("%v: %q has no medium", s, id.Model)
			return nil, false
		}
		id.Atapi.Maxlba = maxlba
		id.Atapi.Blksize = blksz
	}
	return id, true
}

// reads sector 0 with READ SECTORS and counts the bytes the drive offers
// in 512 byte bursts. LBA48 drives are addressed through the 28 bit
// registers, which cover sector 0.
func (ide *Ide_t) probess(id *Ident_t) uint32 {
	r := &ide.chans[id.Slot.Chan].regs
	pid := *id
	if pid.Mode == AM_LBA48 {
		pid.Mode = AM_LBA28
	}
	ide.program(&pid, 0, 1)
	r.wr(ATA_REG_COMMAND, ATA_CMD_READ_PIO)

	var junk [512]uint8
	n := 0
	spin := ide.lim.Spin
	for n < maxsectsz && ide.waitdrq(r, spin) {
		r.rdwords(junk[:])
		n += len(junk)
		spin = ide.lim.Spinshort
	}
	return uint32(n)
}
