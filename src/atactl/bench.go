package main

import "fmt"
import "math/rand"
import "sync/atomic"
import "time"

import "github.com/pkg/errors"
import "github.com/spf13/cobra"
import "golang.org/x/sync/errgroup"

import "atadrv/src/util"

func benchcmd(o *opts_t) *cobra.Command {
	var jobs, ops, per int
	cmd := &cobra.Command{
		Use:   "bench DISK",
		Short: "Read random sector ranges from several goroutines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs <= 0 || ops <= 0 || per <= 0 {
				return errors.New("jobs, ops and sectors must be positive")
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
			nsect := d.Sector_count()
			if nsect < uint64(per) {
				return errors.Errorf("%v has only %v sectors", args[0], nsect)
			}
			ss := int(d.Sector_size())

			var total int64
			st := time.Now()
			var g errgroup.Group
			for j := 0; j < jobs; j++ {
				rnd := rand.New(rand.NewSource(int64(j)))
				g.Go(func() error {
					buf := make([]uint8, per*ss)
					for i := 0; i < ops; i++ {
						lba := uint64(rnd.Int63n(int64(nsect - uint64(per) + 1)))
						lba = util.Rounddown(lba, uint64(per))
						got, err := d.Read(buf, lba, per)
						if err != nil {
							return err
						}
						atomic.AddInt64(&total, int64(got))
						if got < per {
							return errors.Errorf("short read at %v: %v of %v",
								lba, got, per)
						}
					}
					return nil
				})
			}
			err = g.Wait()
			el := time.Since(st)
			out := cmd.OutOrStdout()
			mb := float64(total) * float64(ss) / (1 << 20)
			fmt.Fprintf(out, "%v sectors in %v, %.2f MB/s\n", total,
				el.Round(time.Millisecond), mb/el.Seconds())
			for _, c := range s.ides {
				fmt.Fprintf(out, "%v:%v", c, c.Stats())
			}
			return err
		},
	}
	f := cmd.Flags()
	f.IntVarP(&jobs, "jobs", "j", 4, "concurrent readers")
	f.IntVar(&ops, "ops", 100, "reads per reader")
	f.IntVar(&per, "sectors", 8, "sectors per read")
	return cmd
}
