//go:build !linux || !amd64

package main

import "github.com/pkg/errors"

import "atadrv/src/ide"
import "atadrv/src/limits"
import "atadrv/src/pci"

func host(lim *limits.Syslimit_t) (pci.Cfgspace_i, *ide.Env_t, func() error, error) {
	return nil, nil, nil, errors.New("host access needs linux/amd64, use --sim")
}
