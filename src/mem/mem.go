package mem

import "github.com/coreos/pkg/capnslog"

var plog = capnslog.NewPackageLogger("atadrv", "mem")

/// PGSHIFT is the base-2 exponent for the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

/// PGOFFSET masks offsets within a page.
const PGOFFSET Pa_t = 0xfff

/// Pa_t represents a physical address.
type Pa_t uintptr

/// Bytepg_t is a byte addressed page.
type Bytepg_t [PGSIZE]uint8

/// Iopages_t is a run of pages usable for device DMA. Buf is the CPU's
/// view of the pages, Pas holds the physical address of every page.
type Iopages_t struct {
	Pa  Pa_t
	Pas []Pa_t
	Buf []uint8
}

/// Npages returns the number of pages in the run.
func (io *Iopages_t) Npages() int {
	return len(io.Pas)
}

/// Contig reports whether the pages are physically contiguous.
func (io *Iopages_t) Contig() bool {
	for i, pa := range io.Pas {
		if pa != io.Pa+Pa_t(i*PGSIZE) {
			return false
		}
	}
	return true
}

/// Iomem_i allocates pages that devices can reach by physical address.
/// Virtual and physical addresses are never assumed to be equal.
type Iomem_i interface {
	Alloc_io(npages int) (*Iopages_t, bool)
	Free_io(*Iopages_t)
}

func _pg2pgn(p_pg Pa_t) uint32 {
	return uint32(p_pg >> PGSHIFT)
}
