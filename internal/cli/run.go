package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lorenalexm/coroutinewrapper/config"
	"github.com/lorenalexm/coroutinewrapper/debug"
	"github.com/lorenalexm/coroutinewrapper/host"
	"github.com/lorenalexm/coroutinewrapper/internal/loop"
	"github.com/lorenalexm/coroutinewrapper/lua"
	"github.com/lorenalexm/coroutinewrapper/ui"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	FrameRate int
	TUI       bool
	For       time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [scripts...]",
		Short: "Run Lua scripts on a frame loop",
		Long: `Run Lua scripts on a frame loop until interrupted.

Scripts listed in the config file load first, then those given as arguments.
Without --tui, script output goes to stdout and the loop runs headless.

Example:
  coro run blink.lua
  coro run --tui --fps 30 fade.lua
  coro run --for 5s countdown.lua`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(cmd, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.FrameRate, "fps", 0, "frames per second (overrides config)")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "run inside the terminal UI")
	cmd.Flags().DurationVar(&opts.For, "for", 0, "stop after this long (0 runs until interrupted)")

	return cmd
}

// printer writes script output as lines.
type printer struct {
	w io.Writer
}

func (p printer) Print(text string) {
	fmt.Fprintln(p.w, text)
}

func runScripts(cmd *cobra.Command, opts *RunOptions, args []string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("fps") {
		cfg.FrameRate = opts.FrameRate
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	scripts := append(cfg.Scripts, args...)
	if len(scripts) == 0 {
		return errors.New("no scripts to run")
	}

	logger := opts.logger(cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.For)
		defer cancel()
	}

	// Faults go wherever script output goes; the sink is known only below.
	var reportFault func(host.Fault)
	sched := host.New(
		host.WithLogger(logger),
		host.WithFaultHandler(func(f host.Fault) { reportFault(f) }),
	)
	interval := time.Second / time.Duration(cfg.FrameRate)

	monitorLog := func(w io.Writer) *log.Logger {
		return log.New(w, "", log.LstdFlags)
	}

	if opts.TUI {
		model := ui.NewModel(sched, interval)
		reportFault = func(f host.Fault) { model.PrintError(f.Err.Error()) }
		engine, err := loadScripts(sched, model, scripts)
		if err != nil {
			return err
		}
		defer engine.Close()

		uiCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(uiCtx))
		mon := debug.NewMonitor(model, cfg.StatsInterval, monitorLog(ui.Writer(program)), cfg.Debug)
		mon.Start(uiCtx)

		_, err = program.Run()
		cancel()
		mon.Wait()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("ui: %w", err)
		}
		return nil
	}

	out := printer{w: cmd.OutOrStdout()}
	reportFault = func(f host.Fault) {
		fmt.Fprintf(cmd.ErrOrStderr(), "[coro] %v\n", f.Err)
	}

	l := loop.New(sched, loop.Config{
		FrameRate:  cfg.FrameRate,
		QueueLimit: cfg.QueueLimit,
		Logger:     logger,
	})

	// Scripts load on the loop goroutine, so their first suspensions happen
	// there like every later resumption.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		engine  *lua.Engine
		loadErr error
	)
	l.Post(func() {
		engine, loadErr = loadScripts(sched, out, scripts)
		if loadErr != nil {
			cancel()
		}
	})

	mon := debug.NewMonitor(l, cfg.StatsInterval, monitorLog(cmd.ErrOrStderr()), cfg.Debug)
	mon.Start(runCtx)

	err = l.Run(runCtx)
	cancel()
	mon.Wait()
	if engine != nil {
		engine.Close()
	}
	if loadErr != nil {
		return loadErr
	}
	return err
}

// loadScripts boots a Lua engine on sched and runs each script once. The
// caller closes the engine when the loop ends.
func loadScripts(sched *host.Scheduler, out lua.OutputService, scripts []string) (*lua.Engine, error) {
	engine := lua.NewEngine(sched, out)
	if err := engine.Init(); err != nil {
		return nil, err
	}
	if err := engine.LoadFiles(scripts); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}
