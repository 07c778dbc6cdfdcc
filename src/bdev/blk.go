package bdev

import "fmt"
import "sync"

import "github.com/pkg/errors"

import "atadrv/src/mem"

const BSIZE = 4096 /// size of a disk block in bytes

const bdev_debug = false

/// Bdevcmd_t enumerates block request types.
type Bdevcmd_t uint

const (
	BDEV_WRITE Bdevcmd_t = 1 /// write a block
	BDEV_READ            = 2 /// read a block
)

func (c Bdevcmd_t) String() string {
	switch c {
	case BDEV_WRITE:
		return "write"
	case BDEV_READ:
		return "read"
	}
	return fmt.Sprintf("cmd%d", uint(c))
}

/// Bdev_block_t is one BSIZE block of a disk. Blocks are numbered from the
/// start of the disk; a block spans BSIZE/Sector_size() sectors.
type Bdev_block_t struct {
	sync.Mutex
	Block int
	Data  *mem.Bytepg_t
	Name  string
	Disk  Disk_i
}

/// MkBlock constructs a block with a zeroed data page.
func MkBlock(block int, s string, d Disk_i) *Bdev_block_t {
	b := &Bdev_block_t{}
	b.Block = block
	b.Data = &mem.Bytepg_t{}
	b.Name = s
	b.Disk = d
	return b
}

/// Nblocks returns the number of whole blocks on d.
func Nblocks(d Disk_i) int {
	ss := uint64(d.Sector_size())
	return int(d.Sector_count() * ss / BSIZE)
}

func (b *Bdev_block_t) sectors() (uint64, int) {
	ss := int(b.Disk.Sector_size())
	if ss == 0 || BSIZE%ss != 0 {
		panic("sector size does not divide block size")
	}
	per := BSIZE / ss
	return uint64(b.Block) * uint64(per), per
}

func (b *Bdev_block_t) io(cmd Bdevcmd_t) error {
	b.Lock()
	defer b.Unlock()

	start, n := b.sectors()
	var got int
	var err error
	switch cmd {
	case BDEV_READ:
		got, err = b.Disk.Read(b.Data[:], start, n)
	case BDEV_WRITE:
		got, err = b.Disk.Write(b.Data[:], start, n)
	default:
		panic("bad cmd")
	}
	if bdev_debug {
		fmt.Printf("bdev_%v %v %v: %v/%v\n", cmd, b.Block, b.Name, got, n)
	}
	if err != nil {
		return errors.Wrapf(err, "%v block %v", cmd, b.Block)
	}
	if got != n {
		return errors.Errorf("%v block %v: short transfer, %v of %v sectors",
			cmd, b.Block, got, n)
	}
	return nil
}

/// Read reads the block from disk synchronously.
func (b *Bdev_block_t) Read() error {
	return b.io(BDEV_READ)
}

/// Write writes the block to disk synchronously.
func (b *Bdev_block_t) Write() error {
	return b.io(BDEV_WRITE)
}
