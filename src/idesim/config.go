package idesim

import "bytes"
import "fmt"

import "github.com/pkg/errors"
import "gopkg.in/yaml.v3"

/// Faultcfg_t makes a simulated drive misbehave.
type Faultcfg_t struct {
	// commands never raise DRQ
	Nodrq bool `yaml:"no_drq"`
	// the drive never leaves BSY
	Busy bool `yaml:"busy_forever"`
	// DMA transfers never complete
	Dropirq bool `yaml:"drop_dma_irq"`
	// interrupts of a DMA command that arrive while the bus master is
	// still active
	Dmaactive int `yaml:"dma_active_rounds"`
	// sectors that fail with an uncorrectable error
	Bad []uint64 `yaml:"bad_sectors"`
}

/// Drivecfg_t describes one simulated drive.
type Drivecfg_t struct {
	// "ata" or "atapi"; empty means no drive
	Type     string `yaml:"type"`
	Model    string `yaml:"model"`
	Serial   string `yaml:"serial"`
	Firmware string `yaml:"firmware"`
	Cyls     uint32 `yaml:"cylinders"`
	Heads    uint32 `yaml:"heads"`
	Spt      uint32 `yaml:"sectors"`
	Lba      bool   `yaml:"lba"`
	Lba48    bool   `yaml:"lba48"`
	Max28    uint32 `yaml:"max28"`
	Max48    uint64 `yaml:"max48"`
	Sectsz   uint32 `yaml:"sector_size"`
	Dma      bool   `yaml:"dma"`
	Pkt16    bool   `yaml:"packet16"`
	// ATAPI medium size; 0 means the tray is empty
	Blocks  uint32     `yaml:"medium_blocks"`
	Blksize uint32     `yaml:"block_size"`
	Fault   Faultcfg_t `yaml:"fault"`
}

/// Machinecfg_t describes a simulated machine with one PCI IDE
/// controller.
type Machinecfg_t struct {
	// both channels start in native PCI mode
	Native bool `yaml:"native"`
	// the operating mode of the channels can be changed
	Switchable bool                  `yaml:"switchable"`
	Busmaster  bool                  `yaml:"busmaster"`
	Intline    uint8                 `yaml:"intline"`
	Mempages   int                   `yaml:"mempages"`
	Drives     map[string]Drivecfg_t `yaml:"drives"`
}

/// Slots lists the slot names a machine description may use.
var Slots = []string{"0:0", "0:1", "1:0", "1:1"}

func slotidx(s string) (int, int, bool) {
	for i, n := range Slots {
		if n == s {
			return i / 2, i % 2, true
		}
	}
	return 0, 0, false
}

/// Parse reads a YAML machine description and fills in defaults.
func Parse(b []byte) (*Machinecfg_t, error) {
	mc := &Machinecfg_t{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(mc); err != nil {
		return nil, errors.Wrap(err, "machine description")
	}
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	return mc, nil
}

/// Validate checks the description and fills in defaults.
func (mc *Machinecfg_t) Validate() error {
	if mc.Mempages == 0 {
		mc.Mempages = 256
	}
	if mc.Mempages < 0 {
		return errors.Errorf("mempages %v", mc.Mempages)
	}
	if mc.Intline == 0 {
		mc.Intline = 11
	}
	for s, dc := range mc.Drives {
		if _, _, ok := slotidx(s); !ok {
			return errors.Errorf("bad slot %q, want one of %v", s, Slots)
		}
		if err := dc.validate(s); err != nil {
			return errors.Wrapf(err, "slot %v", s)
		}
		mc.Drives[s] = dc
	}
	return nil
}

func (dc *Drivecfg_t) validate(slot string) error {
	dflt := func(p *string, v string) {
		if *p == "" {
			*p = v
		}
	}
	dflt(&dc.Serial, fmt.Sprintf("SIM%v%v", slot[0:1], slot[2:3]))
	dflt(&dc.Firmware, "1.0")
	switch dc.Type {
	case "", "none":
		dc.Type = ""
		return nil
	case "ata":
		dflt(&dc.Model, "SIM ATA DISK")
		if dc.Sectsz == 0 {
			dc.Sectsz = 512
		}
		if dc.Sectsz%512 != 0 || dc.Sectsz > 32768 {
			return errors.Errorf("sector size %v", dc.Sectsz)
		}
		if dc.Heads > 16 || dc.Spt > 255 || dc.Cyls > 65535 {
			return errors.Errorf("geometry %v/%v/%v", dc.Cyls, dc.Heads, dc.Spt)
		}
		chs := uint64(dc.Cyls) * uint64(dc.Heads) * uint64(dc.Spt)
		if dc.Lba48 {
			dc.Lba = true
		}
		if !dc.Lba && chs == 0 {
			return errors.New("chs drive without geometry")
		}
		if dc.Lba && dc.Max28 == 0 {
			if chs > 0x0fffffff {
				chs = 0x0fffffff
			}
			dc.Max28 = uint32(chs)
		}
		if dc.Lba48 && dc.Max48 == 0 {
			dc.Max48 = uint64(dc.Max28)
		}
		if dc.Lba && dc.Max28 == 0 && dc.Max48 == 0 {
			return errors.New("lba drive without capacity")
		}
		if dc.Max48 >= 1<<48 {
			return errors.Errorf("max48 %v", dc.Max48)
		}
	case "atapi":
		dflt(&dc.Model, "SIM ATAPI CDROM")
		if dc.Blksize == 0 {
			dc.Blksize = 2048
		}
	default:
		return errors.Errorf("bad drive type %q", dc.Type)
	}
	return nil
}

/// Nsectors returns the addressable sectors of an ATA drive.
func (dc *Drivecfg_t) Nsectors() uint64 {
	switch {
	case dc.Lba48:
		return dc.Max48
	case dc.Lba:
		return uint64(dc.Max28)
	}
	return uint64(dc.Cyls) * uint64(dc.Heads) * uint64(dc.Spt)
}
