package ide

import "testing"
import "time"

import "github.com/kylelemons/godebug/pretty"

import "atadrv/src/bdev"
import "atadrv/src/idesim"
import "atadrv/src/limits"
import "atadrv/src/pci"

func mklim() *limits.Syslimit_t {
	l := limits.MkSysLimit()
	l.Spin = 200
	l.Spinshort = 50
	l.Dmatimeout = 10 * time.Millisecond
	l.Dmapoll = time.Millisecond
	return l
}

func mkenv(m *idesim.Machine_t, lim *limits.Syslimit_t) *Env_t {
	return &Env_t{Io: m, Mem: m.Mem, Irqs: m.Irqs, Clock: m.Clock, Lim: lim}
}

func mkmachine(t *testing.T, desc string) *idesim.Machine_t {
	t.Helper()
	mc, err := idesim.Parse([]byte(desc))
	if err != nil {
		t.Fatal(err)
	}
	return idesim.MkMachine(mc)
}

// attaches the single controller of the machine
func mkide(t *testing.T, desc string, lim *limits.Syslimit_t) (*idesim.Machine_t, *Ide_t) {
	t.Helper()
	m := mkmachine(t, desc)
	devs := pci.Match(pci.Scan(m), pci.CLASS_STORAGE, pci.SUBCLASS_IDE)
	if len(devs) != 1 {
		t.Fatalf("found %v IDE controllers", len(devs))
	}
	ide, err := Attach(devs[0], mkenv(m, lim))
	if err != nil {
		t.Fatal(err)
	}
	m.Resetlog()
	return m, ide
}

func drive(t *testing.T, ide *Ide_t, s Slot_t) *Drive_t {
	t.Helper()
	for _, d := range ide.Drives() {
		if d.id.Slot == s {
			return d
		}
	}
	t.Fatalf("no drive in slot %v", s)
	return nil
}

const twodisks = `
drives:
  "0:0":
    type: ata
    model: SIM DISK ZERO
    serial: S0
    firmware: FW1
    cylinders: 100
    heads: 2
    sectors: 18
    lba: true
  "1:0":
    type: atapi
    model: SIM CDROM
    medium_blocks: 1000
`

func TestAttachLegacy(t *testing.T) {
	_, ide := mkide(t, twodisks, mklim())

	want := [2][2]Drivetype_t{{DT_ATA, DT_NONE}, {DT_ATAPI, DT_NONE}}
	if diff := pretty.Compare(ide.Types(), want); diff != "" {
		t.Fatalf("types (-got +want):\n%s", diff)
	}
	if ide.Native(0) || ide.Native(1) || ide.Dma() {
		t.Fatal("legacy controller reports native mode or dma")
	}
	regs := []Regs_t{ide.chans[0].regs, ide.chans[1].regs}
	for i := range regs {
		regs[i].io = nil
	}
	if diff := pretty.Compare(regs, []Regs_t{{Cmd: 0x1f0, Ctl: 0x3f6}, {Cmd: 0x170, Ctl: 0x376}}); diff != "" {
		t.Fatalf("registers (-got +want):\n%s", diff)
	}
	if ide.chans[0].vec != 46 || ide.chans[1].vec != 47 {
		t.Fatalf("vectors %v %v", ide.chans[0].vec, ide.chans[1].vec)
	}

	d := drive(t, ide, Slot_t{0, 0}).Ident()
	got := struct {
		Model, Serial, Firmware string
		Cyls, Heads, Spt        uint32
		Mode                    Addrmode_t
		Max28                   uint32
		Sectsz                  uint32
	}{d.Model, d.Serial, d.Firmware, d.Cyls, d.Heads, d.Spt, d.Mode, d.Max28, d.Sectsz}
	wantid := got
	wantid.Model, wantid.Serial, wantid.Firmware = "SIM DISK ZERO", "S0", "FW1"
	wantid.Cyls, wantid.Heads, wantid.Spt = 100, 2, 18
	wantid.Mode, wantid.Max28, wantid.Sectsz = AM_LBA28, 3600, 512
	if diff := pretty.Compare(got, wantid); diff != "" {
		t.Fatalf("ata identity (-got +want):\n%s", diff)
	}
	if d.Atapi != nil || d.Dmacapable() {
		t.Fatal("ata drive with packet data or dma modes")
	}

	cd := drive(t, ide, Slot_t{1, 0})
	a := cd.Ident().Atapi
	if a == nil || a.Pktlen != 12 || a.Subtype != 5 || a.Maxlba != 999 ||
		a.Blksize != 2048 {
		t.Fatalf("atapi identity %+v", a)
	}
	if cd.Sector_size() != 2048 || cd.Sector_count() != 1000 {
		t.Fatalf("atapi size %v x %v", cd.Sector_count(), cd.Sector_size())
	}
}

func TestAttachNative(t *testing.T) {
	for _, desc := range []string{
		"native: true\nintline: 10\n",
		"switchable: true\nintline: 10\n",
	} {
		_, ide := mkide(t, desc+twodisks, mklim())
		if !ide.Native(0) || !ide.Native(1) {
			t.Fatalf("%q: channels not native", desc)
		}
		if ide.chans[0].regs.Cmd != 0xc000 || ide.chans[0].regs.Ctl != 0xc012 ||
			ide.chans[1].regs.Cmd != 0xc008 || ide.chans[1].regs.Ctl != 0xc01a {
			t.Fatalf("%q: native bases %+v %+v", desc, ide.chans[0].regs,
				ide.chans[1].regs)
		}
		if ide.chans[0].vec != 42 || ide.chans[1].vec != 42 {
			t.Fatalf("%q: vectors %v %v", desc, ide.chans[0].vec,
				ide.chans[1].vec)
		}
		if len(ide.Drives()) != 2 {
			t.Fatalf("%q: %v drives", desc, len(ide.Drives()))
		}
	}
}

func TestAttachNotide(t *testing.T) {
	m := mkmachine(t, twodisks)
	for _, d := range pci.Scan(m) {
		if d.Tag == m.Tag() {
			continue
		}
		if _, err := Attach(d, mkenv(m, mklim())); err == nil {
			t.Fatalf("attached %v", d)
		}
	}
}

func TestProbePolicy(t *testing.T) {
	desc := `
drives:
  "0:0":
    type: ata
    lba: true
    max28: 5000
    sector_size: 4096
  "0:1":
    type: ata
    lba: true
    max28: 5000
    fault:
      busy_forever: true
  "1:0":
    type: atapi
  "1:1":
    type: ata
    lba: true
    max28: 5000
    fault:
      no_drq: true
`
	m := mkmachine(t, desc)
	reg := bdev.MkRegistry()
	ides := Probe(pci.Scan(m), mkenv(m, mklim()), reg)
	if len(ides) != 1 {
		t.Fatalf("%v controllers", len(ides))
	}
	want := [2][2]Drivetype_t{{DT_ATA, DT_NONE}, {DT_ATAPI, DT_ATA}}
	if diff := pretty.Compare(ides[0].Types(), want); diff != "" {
		t.Fatalf("types (-got +want):\n%s", diff)
	}
	// the empty ATAPI tray and the drive without DRQ are not published
	var names []string
	for _, e := range reg.List() {
		names = append(names, e.Name)
	}
	if diff := pretty.Compare(names, []string{"ata0"}); diff != "" {
		t.Fatalf("published (-got +want):\n%s", diff)
	}
	e, _ := reg.Lookup("ata0")
	if e.Disk.Sector_size() != 4096 || e.Disk.Sector_count() != 5000 {
		t.Fatalf("ata0 %v x %v", e.Disk.Sector_count(), e.Disk.Sector_size())
	}
}

func TestSectorSizeLba48(t *testing.T) {
	desc := `
drives:
  "0:0":
    type: ata
    lba48: true
    max48: 1000000
    sector_size: 4096
`
	m := mkmachine(t, desc)
	devs := pci.Match(pci.Scan(m), pci.CLASS_STORAGE, pci.SUBCLASS_IDE)
	ide, err := Attach(devs[0], mkenv(m, mklim()))
	if err != nil {
		t.Fatal(err)
	}
	// READ SECTORS even though the drive addresses 48 bits
	want := []idesim.Cmd_t{{Slot: "0:0", Cmd: ATA_CMD_READ_PIO, Lba: 0, Count: 1}}
	if diff := pretty.Compare(rwlog(m), want); diff != "" {
		t.Fatalf("sector size commands (-got +want):\n%s", diff)
	}
	id := drive(t, ide, Slot_t{0, 0}).Ident()
	if id.Mode != AM_LBA48 || id.Sectsz != 4096 {
		t.Fatalf("mode %v sector size %v", id.Mode, id.Sectsz)
	}
}
