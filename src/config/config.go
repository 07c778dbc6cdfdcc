// Package config loads driver tunables and an optional simulated machine
// from a YAML file.
package config

import "bytes"
import "io"
import "io/ioutil"
import "time"

import "github.com/coreos/pkg/capnslog"
import "github.com/pkg/errors"
import "gopkg.in/yaml.v3"

import "atadrv/src/idesim"
import "atadrv/src/limits"

var plog = capnslog.NewPackageLogger("atadrv", "config")

/// Drivercfg_t overrides fields of limits.Syslimit_t. Unset fields keep
/// their defaults. Durations are written the way time.ParseDuration
/// accepts them.
type Drivercfg_t struct {
	Dma        *bool         `yaml:"dma"`
	Spin       int           `yaml:"spin"`
	Spinshort  int           `yaml:"spinshort"`
	Dmatimeout time.Duration `yaml:"dmatimeout"`
	Dmapoll    time.Duration `yaml:"dmapoll"`
	Resethold  time.Duration `yaml:"resethold"`
	Dmapages   int           `yaml:"dmapages"`
}

/// Config_t is the top level of a configuration file.
type Config_t struct {
	Driver Drivercfg_t `yaml:"driver"`
	// nil unless the file describes a simulated machine
	Machine *idesim.Machinecfg_t `yaml:"machine"`
}

/// Load reads and validates the configuration at path.
func Load(path string) (*Config_t, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	c, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", path)
	}
	plog.Debugf("loaded %v", path)
	return c, nil
}

/// Parse decodes a configuration. Unknown keys are errors.
func Parse(b []byte) (*Config_t, error) {
	c := &Config_t{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

/// Validate rejects negative tunables and validates the machine.
func (c *Config_t) Validate() error {
	d := &c.Driver
	for _, v := range []struct {
		name string
		n    int64
	}{
		{"spin", int64(d.Spin)},
		{"spinshort", int64(d.Spinshort)},
		{"dmatimeout", int64(d.Dmatimeout)},
		{"dmapoll", int64(d.Dmapoll)},
		{"resethold", int64(d.Resethold)},
		{"dmapages", int64(d.Dmapages)},
	} {
		if v.n < 0 {
			return errors.Errorf("driver: negative %v", v.name)
		}
	}
	if c.Machine != nil {
		if err := c.Machine.Validate(); err != nil {
			return errors.Wrap(err, "machine")
		}
	}
	return nil
}

/// Apply copies the set tunables into l.
func (c *Config_t) Apply(l *limits.Syslimit_t) {
	d := &c.Driver
	if d.Dma != nil {
		l.Dma = *d.Dma
	}
	if d.Spin != 0 {
		l.Spin = d.Spin
	}
	if d.Spinshort != 0 {
		l.Spinshort = d.Spinshort
	}
	if d.Dmatimeout != 0 {
		l.Dmatimeout = d.Dmatimeout
	}
	if d.Dmapoll != 0 {
		l.Dmapoll = d.Dmapoll
	}
	if d.Resethold != 0 {
		l.Resethold = d.Resethold
	}
	if d.Dmapages != 0 {
		l.Dmapgs = limits.Sysatomic_t(d.Dmapages)
	}
}
