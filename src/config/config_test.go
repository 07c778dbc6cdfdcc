package config

import "io/ioutil"
import "path/filepath"
import "strings"
import "testing"
import "time"

import "github.com/pkg/errors"

import "atadrv/src/limits"

func TestApply(t *testing.T) {
	c, err := Parse([]byte(`
driver:
  dma: true
  spin: 1000
  dmatimeout: 2s
  dmapoll: 100us
  dmapages: 40
machine:
  busmaster: true
  drives:
    "0:0":
      type: ata
      lba: true
      max28: 2048
`))
	if err != nil {
		t.Fatal(err)
	}
	l := limits.MkSysLimit()
	c.Apply(l)
	want := limits.MkSysLimit()
	want.Dma = true
	want.Spin = 1000
	want.Dmatimeout = 2 * time.Second
	want.Dmapoll = 100 * time.Microsecond
	want.Dmapgs = 40
	if *l != *want {
		t.Fatalf("limits %+v, want %+v", *l, *want)
	}
	if c.Machine == nil || c.Machine.Mempages != 256 ||
		c.Machine.Drives["0:0"].Serial != "SIM00" {
		t.Fatalf("machine %+v", c.Machine)
	}
}

func TestEmpty(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	l := limits.MkSysLimit()
	c.Apply(l)
	if *l != *limits.MkSysLimit() || c.Machine != nil {
		t.Fatal("empty config changed something")
	}
}

func TestErrors(t *testing.T) {
	bad := []struct {
		in   string
		want string
	}{
		{"driver:\n  spin: -1\n", "negative spin"},
		{"driver:\n  dmapoll: soon\n", "parse config"},
		{"driver:\n  turbo: true\n", "turbo"},
		{"machine:\n  drives:\n    \"0:0\":\n      type: tape\n", "machine"},
	}
	for _, b := range bad {
		_, err := Parse([]byte(b.in))
		if err == nil || !strings.Contains(err.Error(), b.want) {
			t.Errorf("%q: got %v, want %q", b.in, err, b.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "atactl.yaml")
	if err := ioutil.WriteFile(p, []byte("driver:\n  resethold: 1ms\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Driver.Resethold != time.Millisecond {
		t.Fatalf("resethold %v", c.Driver.Resethold)
	}
	_, err = Load(filepath.Join(dir, "missing.yaml"))
	if err == nil || !strings.Contains(errors.Cause(err).Error(), "no such file") {
		t.Fatalf("missing file: %v", err)
	}
}
