package mem

import "fmt"
import "sync"

/// SIMBASE is the physical address of the first simulated page. Address
/// zero is never handed out.
const SIMBASE Pa_t = 0x100000

/// Physpg_t describes a single simulated physical page.
type Physpg_t struct {
	Refcnt int32
	// length of the allocation starting at this page, 0 for pages that
	// are not the head of an allocation
	run int32
}

/// Simmem_t is a fixed arena of simulated physical memory. Devices in a
/// simulator reach it through Dmaplen, the driver through Iomem_i.
type Simmem_t struct {
	sync.Mutex
	Pgs    []Physpg_t
	arena  []uint8
	startn uint32
	// first page index worth scanning for a free run
	hint    int
	freelen int
}

/// MkSimmem returns an arena of npages simulated pages.
func MkSimmem(npages int) *Simmem_t {
	if npages <= 0 {
		panic("bad arena size")
	}
	sm := &Simmem_t{}
	sm.Pgs = make([]Physpg_t, npages)
	sm.arena = make([]uint8, npages*PGSIZE)
	sm.startn = _pg2pgn(SIMBASE)
	sm.freelen = npages
	return sm
}

func (sm *Simmem_t) idx(p_pg Pa_t) int {
	if p_pg < SIMBASE {
		panic("address below simulated memory")
	}
	i := int(_pg2pgn(p_pg) - sm.startn)
	if i >= len(sm.Pgs) {
		panic("address above simulated memory")
	}
	return i
}

/// Refcnt returns the current reference count of a page.
func (sm *Simmem_t) Refcnt(p_pg Pa_t) int {
	sm.Lock()
	defer sm.Unlock()
	return int(sm.Pgs[sm.idx(p_pg)].Refcnt)
}

/// Alloc_io allocates npages physically contiguous zeroed pages.
func (sm *Simmem_t) Alloc_io(npages int) (*Iopages_t, bool) {
	if npages <= 0 {
		panic("bad page count")
	}
	sm.Lock()
	defer sm.Unlock()

	if npages > sm.freelen {
		return nil, false
	}
	start := sm.findrun(sm.hint, npages)
	if start < 0 {
		start = sm.findrun(0, npages)
	}
	if start < 0 {
		return nil, false
	}

	ret := &Iopages_t{}
	ret.Pa = SIMBASE + Pa_t(start*PGSIZE)
	ret.Pas = make([]Pa_t, npages)
	for i := range ret.Pas {
		pg := &sm.Pgs[start+i]
		if pg.Refcnt != 0 {
			panic("allocating busy page")
		}
		pg.Refcnt = 1
		ret.Pas[i] = ret.Pa + Pa_t(i*PGSIZE)
	}
	sm.Pgs[start].run = int32(npages)
	sm.freelen -= npages
	sm.hint = start + npages
	end := (start + npages) * PGSIZE
	ret.Buf = sm.arena[start*PGSIZE : end : end]
	for i := range ret.Buf {
		ret.Buf[i] = 0
	}
	return ret, true
}

// returns the index of the first run of npages free pages at or after from,
// or -1
func (sm *Simmem_t) findrun(from, npages int) int {
	for i := from; i+npages <= len(sm.Pgs); {
		busy := -1
		for j := i; j < i+npages; j++ {
			if sm.Pgs[j].Refcnt != 0 {
				busy = j
				break
			}
		}
		if busy < 0 {
			return i
		}
		i = busy + 1
	}
	return -1
}

/// Free_io releases pages obtained from Alloc_io.
func (sm *Simmem_t) Free_io(io *Iopages_t) {
	sm.Lock()
	defer sm.Unlock()

	start := sm.idx(io.Pa)
	if int(sm.Pgs[start].run) != io.Npages() {
		panic(fmt.Sprintf("free of %v pages, allocated %v", io.Npages(),
			sm.Pgs[start].run))
	}
	for i := start; i < start+io.Npages(); i++ {
		sm.Pgs[i].Refcnt--
		// XXXPANIC
		if sm.Pgs[i].Refcnt < 0 {
			panic("wut")
		}
	}
	sm.Pgs[start].run = 0
	sm.freelen += io.Npages()
	if start < sm.hint {
		sm.hint = start
	}
}

/// Inuse returns the number of allocated pages.
func (sm *Simmem_t) Inuse() int {
	sm.Lock()
	defer sm.Unlock()
	return len(sm.Pgs) - sm.freelen
}

/// Dmaplen returns the simulated memory at physical address p for l bytes.
/// It is the device side view used by simulated bus masters.
func (sm *Simmem_t) Dmaplen(p Pa_t, l int) []uint8 {
	off := int(p - SIMBASE)
	if p < SIMBASE || off+l > len(sm.arena) {
		panic("dma outside simulated memory")
	}
	return sm.arena[off : off+l]
}
