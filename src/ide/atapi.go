package ide

import "encoding/binary"

// sends a command packet; maxbytes is the largest DRQ burst the drive may
// use for its response
func (ide *Ide_t) packet(id *Ident_t, pkt []uint8, maxbytes uint16) bool {
	r := &ide.chans[id.Slot.Chan].regs
	if len(pkt) != id.Atapi.Pktlen {
		panic("bad packet length")
	}
	ide.selectdrive(id.Slot)
	r.wr(ATA_REG_FEATURES, 0)
	r.wr(ATA_REG_SECCOUNT, 0)
	r.wr(ATA_REG_LBA0, 0)
	r.wr(ATA_REG_LBA1, uint8(maxbytes))
	r.wr(ATA_REG_LBA2, uint8(maxbytes>>8))
	r.wr(ATA_REG_COMMAND, ATA_CMD_PACKET)
	if !ide.waitdrq(r, ide.lim.Spin) {
		return false
	}
	r.wrwords(pkt)
	return true
}

// byte count of the DRQ burst the drive is about to move
func (ide *Ide_t) burstlen(id *Ident_t) int {
	r := &ide.chans[id.Slot.Chan].regs
	return int(r.rd(ATA_REG_LBA2))<<8 | int(r.rd(ATA_REG_LBA1))
}

// READ CAPACITY. fails when the drive has no medium.
func (ide *Ide_t) capacity(id *Ident_t) (uint32, uint32, bool) {
	r := &ide.chans[id.Slot.Chan].regs
	pkt := make([]uint8, id.Atapi.Pktlen)
	pkt[0] = ATAPI_CMD_READ_CAPACITY
	if !ide.packet(id, pkt, 8) {
		return 0, 0, false
	}
	if !ide.waitdrq(r, ide.lim.Spin) {
		return 0, 0, false
	}
	cnt := ide.burstlen(id)
	if cnt == 0 {
		return 0, 0, false
	}
	resp := make([]uint8, cnt)
	r.rdwords(resp)
	if cnt < 8 {
		return 0, 0, false
	}
	maxlba := binary.BigEndian.Uint32(resp[0:4])
	blksz := binary.BigEndian.Uint32(resp[4:8])
	if blksz == 0 {
		return 0, 0, false
	}
	return maxlba, blksz, true
}

// READ(12) of n sectors at lba. returns the whole sectors received.
func (ide *Ide_t) atapiread(id *Ident_t, op Op_t, buf []uint8, lba uint64, n int) int {
	if op != OP_READ {
		panic("atapi write")
	}
	r := &ide.chans[id.Slot.Chan].regs
	ss := int(id.Sectsz)
	want := n * ss
	maxb := want
	if maxb > ATAPI_MAXBURST {
		maxb = ATAPI_MAXBURST
	}

	pkt := make([]uint8, id.Atapi.Pktlen)
	pkt[0] = ATAPI_CMD_READ
	binary.BigEndian.PutUint32(pkt[2:6], uint32(lba))
	binary.BigEndian.PutUint32(pkt[6:10], uint32(n))
	if !ide.packet(id, pkt, uint16(maxb)) {
		return 0
	}

	got := 0
	spin := ide.lim.Spin
	for got < want {
		if !ide.waitdrq(r, spin) {
			break
		}
		spin = ide.lim.Spinshort
		cnt := ide.burstlen(id)
		if cnt == 0 || got+cnt > want {
			plog.Warningf("%v: bad burst of %v bytes at %v/%v", id.Slot,
				cnt, got, want)
			break
		}
		r.rdwords(buf[got : got+cnt])
		got += cnt
	}
	return got / ss
}
