package hashtable

import "fmt"
import "hash/fnv"
import "sync"
import "sync/atomic"

// A hash table with a lock-free Get(). Writers lock one bucket; chains are
// kept sorted by key hash so that a miss usually stops early.

type elem_t[K comparable, V any] struct {
	key     K
	value   V
	keyHash uint32
	next    atomic.Pointer[elem_t[K, V]]
}

type bucket_t[K comparable, V any] struct {
	sync.Mutex
	first atomic.Pointer[elem_t[K, V]]
}

func (b *bucket_t[K, V]) iter(f func(K, V) bool) bool {
	for e := b.first.Load(); e != nil; e = e.next.Load() {
		if f(e.key, e.value) {
			return true
		}
	}
	return false
}

/// Hashtable_t maps keys to values. Get never blocks; Set and Del lock
/// the key's bucket.
type Hashtable_t[K comparable, V any] struct {
	table []*bucket_t[K, V]
	hf    func(K) uint32
	size  atomic.Int64
}

/// MkHash allocates a table of nbuckets buckets hashing keys with hf.
func MkHash[K comparable, V any](nbuckets int, hf func(K) uint32) *Hashtable_t[K, V] {
	if nbuckets <= 0 {
		panic("bad bucket count")
	}
	ht := &Hashtable_t[K, V]{hf: hf}
	ht.table = make([]*bucket_t[K, V], nbuckets)
	for i := range ht.table {
		ht.table[i] = &bucket_t[K, V]{}
	}
	return ht
}

/// Strhash hashes string keys.
func Strhash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

/// U64hash hashes integer keys such as sector numbers.
func U64hash(n uint64) uint32 {
	return uint32(n) ^ uint32(n>>32)
}

func (ht *Hashtable_t[K, V]) khash(key K) uint32 {
	return uint32(2654435761) * ht.hf(key)
}

func (ht *Hashtable_t[K, V]) bucket(kh uint32) *bucket_t[K, V] {
	return ht.table[kh%uint32(len(ht.table))]
}

func (ht *Hashtable_t[K, V]) String() string {
	s := ""
	for i, b := range ht.table {
		if b.first.Load() == nil {
			continue
		}
		s += fmt.Sprintf("b %d:", i)
		b.iter(func(k K, _ V) bool {
			s += fmt.Sprintf(" %v", k)
			return false
		})
		s += "\n"
	}
	return s
}

/// Size returns the number of elements.
func (ht *Hashtable_t[K, V]) Size() int {
	return int(ht.size.Load())
}

/// Get returns the value stored under key.
func (ht *Hashtable_t[K, V]) Get(key K) (V, bool) {
	kh := ht.khash(key)
	for e := ht.bucket(kh).first.Load(); e != nil; e = e.next.Load() {
		if e.keyHash == kh && e.key == key {
			return e.value, true
		}
		if kh < e.keyHash {
			break
		}
	}
	var zero V
	return zero, false
}

/// Set stores value under key, replacing any previous value, and
/// reports whether the key is new.
func (ht *Hashtable_t[K, V]) Set(key K, value V) bool {
	kh := ht.khash(key)
	b := ht.bucket(kh)
	b.Lock()
	defer b.Unlock()

	link := &b.first
	for e := link.Load(); e != nil; e = link.Load() {
		if e.keyHash == kh && e.key == key {
			// readers holding e keep seeing the old value
			n := &elem_t[K, V]{key: key, value: value, keyHash: kh}
			n.next.Store(e.next.Load())
			link.Store(n)
			return false
		}
		if kh < e.keyHash {
			break
		}
		link = &e.next
	}
	n := &elem_t[K, V]{key: key, value: value, keyHash: kh}
	n.next.Store(link.Load())
	link.Store(n)
	ht.size.Add(1)
	return true
}

/// Iter applies f to every element until f returns true, and reports
/// whether it did.
func (ht *Hashtable_t[K, V]) Iter(f func(K, V) bool) bool {
	for _, b := range ht.table {
		if b.iter(f) {
			return true
		}
	}
	return false
}
