package mem

import "encoding/binary"
import "os"
import "sync"
import "unsafe"

import "github.com/pkg/errors"
import "golang.org/x/sys/unix"

const (
	pm_present = 1 << 63
	pm_pfnmask = (1 << 55) - 1
)

/// Hostmem_t hands out locked anonymous pages of the calling process and
/// resolves their physical addresses through /proc/self/pagemap. Reading
/// frame numbers requires CAP_SYS_ADMIN.
type Hostmem_t struct {
	sync.Mutex
	pagemap *os.File
	live    map[Pa_t][]uint8
}

/// MkHostmem opens the pagemap of the current process.
func MkHostmem() (*Hostmem_t, error) {
	f, err := os.Open("/proc/self/pagemap")
	if err != nil {
		return nil, errors.Wrap(err, "open pagemap")
	}
	return &Hostmem_t{pagemap: f, live: make(map[Pa_t][]uint8)}, nil
}

/// Close releases the pagemap handle.
func (h *Hostmem_t) Close() error {
	return h.pagemap.Close()
}

func (h *Hostmem_t) v2p(va uintptr) (Pa_t, error) {
	var ent [8]uint8
	off := int64(va/uintptr(PGSIZE)) * 8
	if _, err := unix.Pread(int(h.pagemap.Fd()), ent[:], off); err != nil {
		return 0, errors.Wrapf(err, "pagemap %#x", va)
	}
	e := binary.LittleEndian.Uint64(ent[:])
	if e&pm_present == 0 {
		return 0, errors.Errorf("page %#x not present", va)
	}
	pfn := e & pm_pfnmask
	if pfn == 0 {
		return 0, errors.New("pagemap hides frame numbers")
	}
	return Pa_t(pfn << PGSHIFT), nil
}

/// Alloc_io maps, populates and locks npages pages.
func (h *Hostmem_t) Alloc_io(npages int) (*Iopages_t, bool) {
	if npages <= 0 {
		panic("bad page count")
	}
	b, err := unix.Mmap(-1, 0, npages*PGSIZE, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_POPULATE|unix.MAP_LOCKED)
	if err != nil {
		plog.Warningf("mmap %v pages: %v", npages, err)
		return nil, false
	}
	ret := &Iopages_t{Buf: b, Pas: make([]Pa_t, npages)}
	base := uintptr(unsafe.Pointer(&b[0]))
	for i := range ret.Pas {
		pa, err := h.v2p(base + uintptr(i*PGSIZE))
		if err != nil {
			plog.Warningf("%v", err)
			unix.Munmap(b)
			return nil, false
		}
		ret.Pas[i] = pa
	}
	ret.Pa = ret.Pas[0]
	h.Lock()
	h.live[ret.Pa] = b
	h.Unlock()
	return ret, true
}

/// Free_io unmaps pages obtained from Alloc_io.
func (h *Hostmem_t) Free_io(io *Iopages_t) {
	h.Lock()
	b, ok := h.live[io.Pa]
	delete(h.live, io.Pa)
	h.Unlock()
	if !ok {
		panic("free of unknown io pages")
	}
	if err := unix.Munmap(b); err != nil {
		plog.Errorf("munmap: %v", err)
	}
}
