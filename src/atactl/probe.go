package main

import "fmt"
import "text/tabwriter"

import "github.com/spf13/cobra"

import "atadrv/src/defs"
import "atadrv/src/ide"

func probecmd(o *opts_t) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "List controllers and the drives they publish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(o)
			if err != nil {
				return err
			}
			defer s.Close()
			out := cmd.OutOrStdout()
			for _, c := range s.ides {
				fmt.Fprintf(out, "%v: primary %v, secondary %v, bus master %v\n",
					c, chmode(c, 0), chmode(c, 1), yesno(c.Dma()))
			}
			w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDEV\tSLOT\tTYPE\tMODE\tSECTORS\tSIZE\tMODEL")
			for _, e := range s.reg.List() {
				d, ok := e.Disk.(*ide.Drive_t)
				if !ok {
					continue
				}
				id := d.Ident()
				mode := "-"
				if id.Atapi == nil {
					mode = id.Mode.String()
				}
				maj, min := defs.Unmkdev(e.Dev)
				fmt.Fprintf(w, "%v\t%v,%v\t%v\t%v\t%v\t%v\t%v\t%v\n", e.Name,
					maj, min, id.Slot, id.Type, mode, d.Sector_count(),
					d.Sector_size(), id.Model)
			}
			return w.Flush()
		},
	}
}

func chmode(c *ide.Ide_t, ch int) string {
	if c.Native(ch) {
		return "native"
	}
	return "legacy"
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
