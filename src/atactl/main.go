// Command atactl probes IDE controllers and moves sectors to and from the
// drives behind them, either on the host or on a simulated machine.
package main

import "io"
import "os"

import "github.com/coreos/pkg/capnslog"
import "github.com/spf13/cobra"

var plog = capnslog.NewPackageLogger("atadrv", "atactl")

type opts_t struct {
	config string
	sim    string
	debug  bool
	verb   bool
	level  capnslog.LogLevel
}

func mkroot() *cobra.Command {
	o := &opts_t{level: capnslog.NOTICE}
	root := &cobra.Command{
		Use:           "atactl",
		Short:         "ATA/ATAPI controller tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			startlogging(o, cmd.ErrOrStderr())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.config, "config", "", "driver configuration file")
	pf.StringVar(&o.sim, "sim", "", "run against the simulated machine described in this file")
	pf.Var(&o.level, "log-level", "Set global log level.")
	pf.BoolVarP(&o.verb, "verbose", "v", false, "Alias for --log-level=INFO")
	pf.BoolVarP(&o.debug, "debug", "d", false, "Alias for --log-level=DEBUG")

	root.AddCommand(probecmd(o), readcmd(o), writecmd(o), benchcmd(o),
		statscmd(o))
	return root
}

func startlogging(o *opts_t, w io.Writer) {
	switch {
	case o.debug:
		o.level = capnslog.DEBUG
	case o.verb:
		o.level = capnslog.INFO
	}
	capnslog.SetFormatter(capnslog.NewStringFormatter(w))
	capnslog.SetGlobalLogLevel(o.level)
	plog.Infof("Started logging at level %s", o.level)
}

func main() {
	if err := mkroot().Execute(); err != nil {
		plog.Fatal(err)
	}
	os.Exit(0)
}
