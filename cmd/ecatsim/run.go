package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/ecatsim/controlstack"
	"github.com/sarchlab/ecatsim/datarecording"
	"github.com/sarchlab/ecatsim/ecat"
	"github.com/sarchlab/ecatsim/internal/toysim"
	"github.com/sarchlab/ecatsim/monitoring"
	"github.com/sarchlab/ecatsim/sim/timing"
	"github.com/sarchlab/ecatsim/system"
)

var runEnv = map[string]string{
	"cycles":     "ECATSIM_CYCLES",
	"freq":       "ECATSIM_FREQ",
	"record":     "ECATSIM_RECORD",
	"csv":        "ECATSIM_CSV",
	"mysql":      "ECATSIM_MYSQL_DSN",
	"clickhouse": "ECATSIM_CLICKHOUSE_DSN",
	"port":       "ECATSIM_MONITOR_PORT",
}

type runOptions struct {
	cycles      uint64
	freq        float64
	record      string
	csvDir      string
	mysqlDSN    string
	chDSN       string
	monitor     bool
	port        int
	open        bool
	keepServing bool
	failAt      []uint
	verbose     bool
	bus         ecat.Config
}

func newRunCmd() *cobra.Command {
	opts := runOptions{bus: ecat.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reference robot behind the emulated bus.",
		Long: `Run drives the built-in joint-space simulator with a controller ` +
			`that holds the standing posture, one bus cycle per simulation ` +
			`step, and reports the bus state at the end.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyEnv(cmd.Flags(), runEnv); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return run(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.Uint64Var(&opts.cycles, "cycles", 2000, "Number of bus cycles to run.")
	f.Float64Var(&opts.freq, "freq", float64(system.DefaultBusFreq),
		"Bus cycle rate in Hz; one simulation step per cycle.")
	f.StringVar(&opts.record, "record", "",
		"Record every cycle into this SQLite file (without extension).")
	f.StringVar(&opts.csvDir, "csv", "",
		"Record every cycle as CSV into this directory.")
	f.StringVar(&opts.mysqlDSN, "mysql", "",
		"Record every cycle into a new database on this MySQL server.")
	f.StringVar(&opts.chDSN, "clickhouse", "",
		"Record every cycle into a new database on this ClickHouse server.")
	f.BoolVar(&opts.monitor, "monitor", false, "Serve the monitor over HTTP.")
	f.IntVar(&opts.port, "port", 0, "Port of the monitor, random if 0.")
	f.BoolVar(&opts.open, "open", false, "Open the monitor in a browser.")
	f.BoolVar(&opts.keepServing, "keep-serving", false,
		"Keep the monitor running after the last cycle until interrupted.")
	f.UintSliceVar(&opts.failAt, "fail-at", nil,
		"Make the controller fail on these calls, counted from 0.")
	f.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Log every faulted cycle, not only state changes.")

	f.IntVar(&opts.bus.CleanCyclesToSafeOp, "clean-cycles",
		opts.bus.CleanCyclesToSafeOp,
		"Clean cycles before the bus becomes SafeOperational.")
	f.IntVar(&opts.bus.RecoveryCycles, "recovery-cycles",
		opts.bus.RecoveryCycles,
		"Clean cycles in Fault before the bus recovers.")
	f.IntVar(&opts.bus.MaxRecoveries, "max-recoveries",
		opts.bus.MaxRecoveries,
		"Recoveries allowed before the bus stays in Fault.")
	f.Uint64Var(&opts.bus.FaultWindow, "fault-window",
		opts.bus.FaultWindow,
		"Cycles over which faults are counted, 0 for the whole run.")
	f.Float64Var(&opts.bus.WatchdogTimeout, "watchdog",
		opts.bus.WatchdogTimeout,
		"Watchdog timeout in simulated seconds, 0 to disable.")

	return cmd
}

type runner struct {
	opts      runOptions
	logger    *log.Logger
	recorders []datarecording.DataRecorder
	execs     []*datarecording.ExecRecorder
	cycles    []*datarecording.CycleRecorder
	monitor   *monitoring.Monitor
}

func run(ctx context.Context, opts runOptions, stdout, stderr io.Writer) error {
	if opts.freq <= 0 {
		return fmt.Errorf("bus frequency must be positive, got %g", opts.freq)
	}

	r := &runner{
		opts:   opts,
		logger: log.New(stderr, "", 0),
	}
	defer r.closeRecorders()

	robotCfg := toysim.DefaultConfig()
	robotCfg.Timestep = 1 / opts.freq
	robot := toysim.New(robotCfg)

	session := controlstack.NewFaultInjector(
		controlstack.NewHoldPosture(controlstack.StandingPosture))
	for _, c := range opts.failAt {
		session.FailAt(uint64(c))
	}

	builder := system.MakeBuilder().
		WithConfig(opts.bus).
		WithSession(controlstack.NewHandle(session)).
		WithAdvance(true).
		WithHook(system.NewTransitionLogger(r.logger))

	if opts.verbose {
		builder = builder.WithHook(system.NewFaultLogger(r.logger))
	}

	builder, err := r.withRecorders(builder)
	if err != nil {
		return err
	}

	engine := timing.NewSerialEngine()

	var bar *monitoring.ProgressBar
	if opts.monitor {
		r.monitor = monitoring.NewMonitor().WithPortNumber(opts.port)
		r.monitor.RegisterEngine(engine)
		bar = r.monitor.CreateProgressBar("Bus cycles", opts.cycles)

		builder = builder.
			WithHook(r.monitor).
			WithHook(system.NewCycleEndHook(func(system.CycleInfo) {
				bar.IncrementFinished(1)
			}))
	}

	sys, err := builder.Build(robot)
	if err != nil {
		return err
	}
	defer func() {
		if err := sys.Close(); err != nil {
			r.logger.Print(err)
		}
	}()

	driver := system.NewDriver("Bus", engine, timing.Freq(opts.freq),
		sys, robot, opts.cycles)

	if err := r.serveAndRun(ctx, engine, driver); err != nil {
		return err
	}

	if bar != nil {
		r.monitor.CompleteProgressBar(bar)
	}

	for _, c := range r.cycles {
		if err := c.Err(); err != nil {
			return fmt.Errorf("recording cycles: %w", err)
		}
	}

	printSummary(stdout, sys.Status(), robot.Time())

	return nil
}

func (r *runner) withRecorders(b system.Builder) (system.Builder, error) {
	if r.opts.record != "" {
		rec, err := datarecording.NewSQLiteRecorder(r.opts.record)
		if err != nil {
			return b, err
		}

		r.logger.Printf("Recording cycles in %s", rec.Filename())
		r.recorders = append(r.recorders, rec)
	}

	if r.opts.csvDir != "" {
		rec, err := datarecording.NewCSVRecorder(r.opts.csvDir)
		if err != nil {
			return b, err
		}

		r.recorders = append(r.recorders, rec)
	}

	if r.opts.mysqlDSN != "" {
		rec, err := datarecording.NewMySQLRecorder(r.opts.mysqlDSN)
		if err != nil {
			return b, err
		}

		r.recorders = append(r.recorders, rec)
	}

	if r.opts.chDSN != "" {
		rec, err := datarecording.NewClickHouseRecorder(r.opts.chDSN)
		if err != nil {
			return b, err
		}

		r.recorders = append(r.recorders, rec)
	}

	for _, rec := range r.recorders {
		hook, err := datarecording.NewCycleRecorder(rec, datarecording.CycleTable)
		if err != nil {
			return b, err
		}

		exec, err := datarecording.NewExecRecorder(rec)
		if err != nil {
			return b, err
		}

		exec.Start()
		exec.Note("Cycles", strconv.FormatUint(r.opts.cycles, 10))
		exec.Note("Bus Frequency", strconv.FormatFloat(r.opts.freq, 'g', -1, 64))

		r.cycles = append(r.cycles, hook)
		r.execs = append(r.execs, exec)
		b = b.WithHook(hook)
	}

	return b, nil
}

func (r *runner) closeRecorders() {
	for _, exec := range r.execs {
		if err := exec.End(); err != nil {
			r.logger.Print(err)
		}
	}

	for _, rec := range r.recorders {
		if err := rec.Close(); err != nil {
			r.logger.Print(err)
		}
	}
}

// serveAndRun runs the engine, and the monitor beside it if enabled. The
// monitor stops with the engine unless it is asked to keep serving. An
// interrupt stops the driver after the cycle in progress.
func (r *runner) serveAndRun(
	ctx context.Context,
	engine *timing.SerialEngine,
	driver *system.Driver,
) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	if r.monitor != nil {
		url, err := r.monitor.Listen()
		if err != nil {
			return err
		}

		if r.opts.open {
			if err := browser.OpenURL(url); err != nil {
				r.logger.Printf("Cannot open browser: %v", err)
			}
		}

		g.Go(func() error {
			return r.monitor.Serve(gctx)
		})
	}

	driver.Start()

	g.Go(func() error {
		<-gctx.Done()
		driver.Stop()
		engine.Continue()

		return nil
	})

	g.Go(func() error {
		err := engine.Run()
		if err != nil || !r.opts.keepServing || r.monitor == nil {
			cancel()
		}

		return err
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func printSummary(w io.Writer, s ecat.Status, simTime float64) {
	fmt.Fprintf(w, "cycles:        %d\n", s.Cycle)
	fmt.Fprintf(w, "sim time:      %.4f s\n", simTime)
	fmt.Fprintf(w, "state:         %s\n", s.State)
	fmt.Fprintf(w, "total faults:  %d\n", s.TotalFaults)
	fmt.Fprintf(w, "recoveries:    %d\n", s.Recoveries)
	fmt.Fprintf(w, "terminal:      %t\n", s.Terminal)

	if s.LastFault != nil {
		fmt.Fprintf(w, "last fault:    %v\n", s.LastFault)
	}
}
