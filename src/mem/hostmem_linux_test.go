package mem

import "os"
import "testing"

func TestHostmemUnknownFree(t *testing.T) {
	hm, err := MkHostmem()
	if err != nil {
		t.Fatal(err)
	}
	defer hm.Close()
	defer func() {
		if recover() == nil {
			t.Fatal("free of foreign pages did not panic")
		}
	}()
	hm.Free_io(&Iopages_t{Pa: 0x1000})
}

func TestHostmemAlloc(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("frame numbers need root")
	}
	hm, err := MkHostmem()
	if err != nil {
		t.Fatal(err)
	}
	defer hm.Close()

	a, ok := hm.Alloc_io(3)
	if !ok {
		// containers may hide frame numbers even from root
		t.Skip("no frame numbers")
	}
	if len(a.Buf) != 3*PGSIZE || a.Npages() != 3 || a.Pa != a.Pas[0] {
		t.Fatalf("bad run %#x %v %v", a.Pa, a.Npages(), len(a.Buf))
	}
	for _, pa := range a.Pas {
		if pa == 0 || pa&PGOFFSET != 0 {
			t.Fatalf("bad frame %#x", pa)
		}
	}
	a.Buf[3*PGSIZE-1] = 0x55
	hm.Free_io(a)
}
