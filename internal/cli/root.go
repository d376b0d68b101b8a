package cli

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/lorenalexm/coroutinewrapper/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the coro CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "coro",
		Short: "coro - timed callbacks and frame ramps for Lua scripts",
		Long: `coro runs Lua scripts against a frame-driven routine scheduler.

Scripts use the coro table (after, every, ramp, until_equal, defer, stop)
to schedule callbacks that run on the scheduler's frames.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.File(), "path to config.yaml")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log loop activity to stderr")

	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// logger returns the diagnostic logger for the given options.
func (o *RootOptions) logger(w io.Writer) *log.Logger {
	if !o.Verbose {
		w = io.Discard
	}
	return log.New(w, "", log.LstdFlags)
}
