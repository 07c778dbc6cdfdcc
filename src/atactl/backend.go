package main

import "io/ioutil"

import "github.com/pkg/errors"

import "atadrv/src/bdev"
import "atadrv/src/config"
import "atadrv/src/ide"
import "atadrv/src/idesim"
import "atadrv/src/limits"
import "atadrv/src/pci"
import "atadrv/src/stats"

/// session_t is one probe of the machine and what it published.
type session_t struct {
	lim   *limits.Syslimit_t
	reg   *bdev.Registry_t
	ides  []*ide.Ide_t
	sim   *idesim.Machine_t
	close func() error
}

func (s *session_t) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// the machine description from --sim, else the one in the configuration
func simcfg(o *opts_t, c *config.Config_t) (*idesim.Machinecfg_t, error) {
	if o.sim == "" {
		return c.Machine, nil
	}
	b, err := ioutil.ReadFile(o.sim)
	if err != nil {
		return nil, errors.Wrap(err, "read machine")
	}
	mc, err := idesim.Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", o.sim)
	}
	return mc, nil
}

func open(o *opts_t) (*session_t, error) {
	c := &config.Config_t{}
	if o.config != "" {
		var err error
		if c, err = config.Load(o.config); err != nil {
			return nil, err
		}
	}
	s := &session_t{lim: limits.MkSysLimit(), reg: bdev.MkRegistry()}
	c.Apply(s.lim)

	mc, err := simcfg(o, c)
	if err != nil {
		return nil, err
	}
	var cfg pci.Cfgspace_i
	var env *ide.Env_t
	if mc != nil {
		m := idesim.MkMachine(mc)
		s.sim = m
		cfg = m
		env = &ide.Env_t{Io: m, Mem: m.Mem, Irqs: m.Irqs, Clock: m.Clock,
			Lim: s.lim}
	} else {
		cfg, env, s.close, err = host(s.lim)
		if err != nil {
			return nil, err
		}
	}
	s.ides = ide.Probe(pci.Scan(cfg), env, s.reg)
	if len(s.ides) == 0 {
		plog.Noticef("no IDE controllers found")
	}
	return s, nil
}

func (s *session_t) disk(name string) (bdev.Disk_i, error) {
	e, ok := s.reg.Lookup(name)
	if !ok {
		return nil, errors.Errorf("no disk %q", name)
	}
	return e.Disk, nil
}

func (s *session_t) groups() []stats.Group_t {
	var ret []stats.Group_t
	for _, i := range s.ides {
		ret = append(ret, stats.Group_t{Name: i.String(), St: &i.Stat})
	}
	return ret
}
