package bdev

import "sort"
import "strconv"
import "sync"

import "atadrv/src/defs"
import "atadrv/src/hashtable"

/// Disk_i is a linear array of fixed size sectors.
type Disk_i interface {
	Sector_size() uint32
	Sector_count() uint64
	// Read fills buf with n sectors starting at start and returns the
	// number of sectors transferred, which is less than n on a device
	// failure.
	Read(buf []uint8, start uint64, n int) (int, error)
	Write(buf []uint8, start uint64, n int) (int, error)
}

/// Entry_t is a published disk.
type Entry_t struct {
	Name string
	Tag  string
	Dev  uint
	Disk Disk_i
}

/// Registry_t names disks as they are published. Names are the tag
/// followed by a per tag ordinal, e.g. ata0, ata1, atapi0. Lookups do not
/// take the lock.
type Registry_t struct {
	sync.Mutex
	ents  *hashtable.Hashtable_t[string, *Entry_t]
	count map[int]int
}

/// MkRegistry returns an empty registry.
func MkRegistry() *Registry_t {
	return &Registry_t{
		ents:  hashtable.MkHash[string, *Entry_t](16, hashtable.Strhash),
		count: make(map[int]int),
	}
}

func tag2maj(tag string) int {
	for maj := defs.D_FIRST; maj <= defs.D_LAST; maj++ {
		if defs.Devname(maj) == tag {
			return maj
		}
	}
	panic("unknown tag " + tag)
}

/// Register publishes d under tag, which must be "ata" or "atapi".
func (r *Registry_t) Register(tag string, d Disk_i) *Entry_t {
	maj := tag2maj(tag)
	r.Lock()
	defer r.Unlock()

	min := r.count[maj]
	r.count[maj]++
	e := &Entry_t{
		Name: tag + strconv.Itoa(min),
		Tag:  tag,
		Dev:  defs.Mkdev(maj, min),
		Disk: d,
	}
	r.ents.Set(e.Name, e)
	return e
}

/// Lookup finds a disk by name.
func (r *Registry_t) Lookup(name string) (*Entry_t, bool) {
	return r.ents.Get(name)
}

/// List returns all disks ordered by device number.
func (r *Registry_t) List() []*Entry_t {
	ret := make([]*Entry_t, 0, r.ents.Size())
	r.ents.Iter(func(_ string, e *Entry_t) bool {
		ret = append(ret, e)
		return false
	})
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Dev < ret[j].Dev
	})
	return ret
}
