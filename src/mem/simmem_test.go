package mem

import "testing"

func TestSimmemAllocFree(t *testing.T) {
	sm := MkSimmem(8)

	a, ok := sm.Alloc_io(3)
	if !ok {
		t.Fatal("alloc 3")
	}
	if a.Pa != SIMBASE || a.Npages() != 3 || len(a.Buf) != 3*PGSIZE {
		t.Fatalf("bad run %#x %v %v", a.Pa, a.Npages(), len(a.Buf))
	}
	if !a.Contig() {
		t.Fatal("simulated pages must be contiguous")
	}
	if sm.Refcnt(a.Pas[2]) != 1 {
		t.Fatal("refcnt")
	}

	a.Buf[0] = 0xaa
	a.Buf[3*PGSIZE-1] = 0x55
	dev := sm.Dmaplen(a.Pa, 3*PGSIZE)
	if dev[0] != 0xaa || dev[3*PGSIZE-1] != 0x55 {
		t.Fatal("device view differs from cpu view")
	}

	b, ok := sm.Alloc_io(5)
	if !ok {
		t.Fatal("alloc 5")
	}
	if _, ok := sm.Alloc_io(1); ok {
		t.Fatal("arena should be exhausted")
	}
	if sm.Inuse() != 8 {
		t.Fatalf("inuse %v", sm.Inuse())
	}

	sm.Free_io(a)
	c, ok := sm.Alloc_io(2)
	if !ok {
		t.Fatal("reuse after free")
	}
	if c.Buf[0] != 0 {
		t.Fatal("pages not zeroed")
	}
	sm.Free_io(b)
	sm.Free_io(c)
	if sm.Inuse() != 0 {
		t.Fatalf("leak: %v pages", sm.Inuse())
	}
}

func TestSimmemDoubleFree(t *testing.T) {
	sm := MkSimmem(2)
	a, _ := sm.Alloc_io(1)
	sm.Free_io(a)
	defer func() {
		if recover() == nil {
			t.Fatal("double free did not panic")
		}
	}()
	sm.Free_io(a)
}

func TestSimmemFragmented(t *testing.T) {
	sm := MkSimmem(4)
	p := make([]*Iopages_t, 4)
	for i := range p {
		p[i], _ = sm.Alloc_io(1)
	}
	sm.Free_io(p[0])
	sm.Free_io(p[2])
	if _, ok := sm.Alloc_io(2); ok {
		t.Fatal("no contiguous run of two pages exists")
	}
	sm.Free_io(p[1])
	r, ok := sm.Alloc_io(3)
	if !ok || r.Pa != SIMBASE {
		t.Fatalf("expected run at base, got %v %#x", ok, r)
	}
}
