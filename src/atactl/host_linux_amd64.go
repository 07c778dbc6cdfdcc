package main

import "atadrv/src/ide"
import "atadrv/src/limits"
import "atadrv/src/mem"
import "atadrv/src/pci"
import "atadrv/src/port"

// the host backend. interrupts never reach user space, so the driver gets
// no irq table and polls bus master status to complete DMA.
func host(lim *limits.Syslimit_t) (pci.Cfgspace_i, *ide.Env_t, func() error, error) {
	sys, err := pci.MkSysfs("/sys/bus/pci/devices")
	if err != nil {
		return nil, nil, nil, err
	}
	io, err := port.MkRawport()
	if err != nil {
		sys.Close()
		return nil, nil, nil, err
	}
	hm, err := mem.MkHostmem()
	if err != nil {
		sys.Close()
		return nil, nil, nil, err
	}
	if lim.Dma {
		plog.Infof("dma completion is polled")
	}
	env := &ide.Env_t{Io: io, Mem: hm, Clock: ide.Realclock, Lim: lim}
	closer := func() error {
		hm.Close()
		return sys.Close()
	}
	return sys, env, closer, nil
}
