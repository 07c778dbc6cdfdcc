package pci

import "encoding/binary"
import "fmt"
import "os"
import "path/filepath"
import "sort"
import "sync"

import "github.com/coreos/pkg/capnslog"
import "github.com/pkg/errors"
import "golang.org/x/sys/unix"

var plog = capnslog.NewPackageLogger("atadrv", "pci")

/// Sysfs_t reaches configuration space through the config files under
/// /sys/bus/pci/devices. Only domain 0 is visible. Writes need root.
type Sysfs_t struct {
	sync.Mutex
	root string
	fds  map[Pcitag_t]int
}

/// MkSysfs opens the sysfs tree rooted at root, normally
/// /sys/bus/pci/devices.
func MkSysfs(root string) (*Sysfs_t, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrap(err, "pci sysfs")
	}
	return &Sysfs_t{root: root, fds: make(map[Pcitag_t]int)}, nil
}

/// Close releases all open config files.
func (s *Sysfs_t) Close() error {
	s.Lock()
	defer s.Unlock()
	var ret error
	for t, fd := range s.fds {
		if err := unix.Close(fd); err != nil && ret == nil {
			ret = errors.Wrapf(err, "close %v", t)
		}
		delete(s.fds, t)
	}
	return ret
}

func (s *Sysfs_t) path(t Pcitag_t) string {
	return filepath.Join(s.root, "0000:"+t.String(), "config")
}

func (s *Sysfs_t) fd(t Pcitag_t) (int, error) {
	s.Lock()
	defer s.Unlock()
	if fd, ok := s.fds[t]; ok {
		return fd, nil
	}
	p := s.path(t)
	fd, err := unix.Open(p, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		// unprivileged users can still read the header
		fd, err = unix.Open(p, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	}
	if err != nil {
		return -1, errors.Wrapf(err, "open %v", p)
	}
	s.fds[t] = fd
	return fd, nil
}

/// Tags lists the functions present in sysfs.
func (s *Sysfs_t) Tags() []Pcitag_t {
	ents, err := os.ReadDir(s.root)
	if err != nil {
		plog.Errorf("read %v: %v", s.root, err)
		return nil
	}
	var ret []Pcitag_t
	for _, e := range ents {
		var dom, b, d, f int
		n, err := fmt.Sscanf(e.Name(), "%04x:%02x:%02x.%d", &dom, &b, &d, &f)
		if err != nil || n != 4 || dom != 0 {
			continue
		}
		ret = append(ret, Mktag(b, d, f))
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

func (s *Sysfs_t) Cfg_read(t Pcitag_t, off, size int) uint32 {
	fd, err := s.fd(t)
	if err != nil {
		plog.Debugf("%v", err)
		return 0xffffffff
	}
	var b [4]uint8
	if _, err := unix.Pread(fd, b[:size], int64(off)); err != nil {
		plog.Errorf("config read %v+%#x: %v", t, off, err)
		return 0xffffffff
	}
	switch size {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b[:]))
	case 4:
		return binary.LittleEndian.Uint32(b[:])
	}
	panic("bad size")
}

func (s *Sysfs_t) Cfg_write(t Pcitag_t, off, size int, v uint32) {
	fd, err := s.fd(t)
	if err != nil {
		plog.Errorf("%v", err)
		return
	}
	var b [4]uint8
	binary.LittleEndian.PutUint32(b[:], v)
	if _, err := unix.Pwrite(fd, b[:size], int64(off)); err != nil {
		plog.Errorf("config write %v+%#x: %v", t, off, err)
	}
}

var _ Cfgspace_i = (*Sysfs_t)(nil)
var _ Lister_i = (*Sysfs_t)(nil)
