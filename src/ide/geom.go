package ide

/// Lba2chs maps a linear sector number onto the cylinder, head and 1-based
/// sector of a drive with the given heads and sectors per track. The
/// cylinder is not range checked.
func Lba2chs(lba uint64, heads, spt uint32) (uint64, uint32, uint32) {
	if heads == 0 || spt == 0 {
		panic("bad geometry")
	}
	hs := uint64(heads) * uint64(spt)
	cyl := lba / hs
	head := uint32((lba % hs) / uint64(spt))
	sect := uint32(lba%uint64(spt)) + 1
	return cyl, head, sect
}
