package main

import "encoding/hex"
import "fmt"
import "io/ioutil"
import "strconv"

import "github.com/pkg/errors"
import "github.com/spf13/cobra"

import "atadrv/src/util"

func parsesect(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	return v, errors.Wrapf(err, "bad sector number %q", s)
}

func readcmd(o *opts_t) *cobra.Command {
	var outf string
	cmd := &cobra.Command{
		Use:   "read DISK START COUNT",
		Short: "Read sectors and dump them in hex",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parsesect(args[1])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[2])
			if err != nil || n < 0 {
				return errors.Errorf("bad count %q", args[2])
			}
			s, err := open(o)
			if err != nil {
				return err
			}
			defer s.Close()
			d, err := s.disk(args[0])
			if err != nil {
				return err
			}
			ss := int(d.Sector_size())
			buf := make([]uint8, n*ss)
			got, err := d.Read(buf, start, n)
			if err != nil {
				return errors.Wrapf(err, "read %v", args[0])
			}
			buf = buf[:got*ss]
			if outf != "" {
				err = ioutil.WriteFile(outf, buf, 0644)
			} else {
				_, err = fmt.Fprint(cmd.OutOrStdout(), hex.Dump(buf))
			}
			if err != nil {
				return err
			}
			if got < n {
				return errors.Errorf("%v: read %v of %v sectors", args[0], got, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outf, "output", "o", "", "write the raw sectors to this file")
	return cmd
}

func writecmd(o *opts_t) *cobra.Command {
	return &cobra.Command{
		Use:   "write DISK START FILE",
		Short: "Write a file to consecutive sectors, zero padding the last",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parsesect(args[1])
			if err != nil {
				return err
			}
			data, err := ioutil.ReadFile(args[2])
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			s, err := open(o)
			if err != nil {
				return err
			}
			defer s.Close()
			d, err := s.disk(args[0])
			if err != nil {
				return err
			}
			ss := int(d.Sector_size())
			n := util.Divroundup(len(data), ss)
			buf := make([]uint8, util.Roundup(len(data), ss))
			copy(buf, data)
			got, err := d.Write(buf, start, n)
			if err != nil {
				return errors.Wrapf(err, "write %v", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %v sectors at %v\n", got, start)
			if got < n {
				return errors.Errorf("%v: wrote %v of %v sectors", args[0], got, n)
			}
			return nil
		},
	}
}
