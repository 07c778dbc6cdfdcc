package util

import "testing"

func TestRound(t *testing.T) {
	tests := []struct {
		v, b     int
		down, up int
		divup    int
	}{
		{v: 0, b: 4096, down: 0, up: 0, divup: 0},
		{v: 1, b: 4096, down: 0, up: 4096, divup: 1},
		{v: 4096, b: 4096, down: 4096, up: 4096, divup: 1},
		{v: 4097, b: 4096, down: 4096, up: 8192, divup: 2},
		{v: 10, b: 3, down: 9, up: 12, divup: 4},
	}
	for _, tt := range tests {
		if got := Rounddown(tt.v, tt.b); got != tt.down {
			t.Errorf("Rounddown(%d, %d) = %d, want %d", tt.v, tt.b, got, tt.down)
		}
		if got := Roundup(tt.v, tt.b); got != tt.up {
			t.Errorf("Roundup(%d, %d) = %d, want %d", tt.v, tt.b, got, tt.up)
		}
		if got := Divroundup(tt.v, tt.b); got != tt.divup {
			t.Errorf("Divroundup(%d, %d) = %d, want %d", tt.v, tt.b, got, tt.divup)
		}
	}
	if Min(uint16(7), 3) != 3 {
		t.Fatal("Min")
	}
}

func TestReadnWriten(t *testing.T) {
	buf := make([]uint8, 16)
	Writen(buf, 4, 0, 0x80001000)
	Writen(buf, 2, 4, 0xbeef)
	Writen(buf, 1, 6, 0x7f)
	if buf[0] != 0x00 || buf[1] != 0x10 || buf[3] != 0x80 {
		t.Fatalf("not little endian: % x", buf[:4])
	}
	if got := Readn(buf, 4, 0); got != 0x80001000 {
		t.Fatalf("Readn 4 = %#x", got)
	}
	if got := Readn(buf, 2, 4); got != 0xbeef {
		t.Fatalf("Readn 2 = %#x", got)
	}
	if got := Readn(buf, 1, 6); got != 0x7f {
		t.Fatalf("Readn 1 = %#x", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out of bounds write")
		}
	}()
	Writen(buf, 8, 12, 1)
}
