package main

import "fmt"
import "os"

import "github.com/pkg/errors"
import "github.com/spf13/cobra"

import "atadrv/src/stats"

func statscmd(o *opts_t) *cobra.Command {
	var pprof string
	var nsect int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Read the start of every disk and report controller counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(o)
			if err != nil {
				return err
			}
			defer s.Close()
			for _, e := range s.reg.List() {
				n := nsect
				if c := e.Disk.Sector_count(); uint64(n) > c {
					n = int(c)
				}
				buf := make([]uint8, n*int(e.Disk.Sector_size()))
				if got, err := e.Disk.Read(buf, 0, n); err != nil || got < n {
					plog.Warningf("%v: read %v of %v sectors: %v", e.Name,
						got, n, err)
				}
			}
			out := cmd.OutOrStdout()
			for _, c := range s.ides {
				fmt.Fprintf(out, "%v:%v", c, c.Stats())
			}
			if pprof == "" {
				return nil
			}
			f, err := os.Create(pprof)
			if err != nil {
				return errors.Wrap(err, "create profile")
			}
			if err := stats.WriteProfile(f, s.groups()); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&pprof, "pprof", "", "also write the counters as a pprof profile")
	cmd.Flags().IntVar(&nsect, "sectors", 64, "sectors to read from each disk")
	return cmd
}
