package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivolynets/spacesim/internal/clock"
	"github.com/ivolynets/spacesim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Duration time.Duration
	Rate     float64
	Note     string

	// TickerFactory overrides the wall-clock ticker (for testing).
	TickerFactory clock.TickerFactory

	// IDs overrides the run ID generator (for testing).
	// If nil, the store generates UUIDv7 IDs.
	IDs store.IDGenerator
}

// RunResult summarizes a recorded run.
type RunResult struct {
	RunID    string  `json:"run_id"`
	Vehicle  string  `json:"vehicle"`
	Rate     float64 `json:"rate"`
	Database string  `json:"database"`
	Firings  int64   `json:"firings"`
	Recorded int     `json:"recorded"`
	Failed   int     `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

// newRunCommand builds the command around caller-owned options, so tests can
// inject a ticker and run IDs.
func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <vehicle.cue>",
		Short: "Run the real-time clock and record telemetry",
		Long: `Build a vehicle and drive its clock in real time, recording every
firing to a SQLite telemetry database (created if it doesn't exist).

The run stops after --duration, or on Ctrl-C. A duration of 0 runs until
interrupted. Inspect the recording with 'spacesim trace'.

Examples:
  spacesim run vehicles/twin.cue --db telemetry.db --duration 10s
  spacesim run vehicles/twin.cue --db telemetry.db --duration 0 --note "static fire"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRealtime(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config db_path)")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "how long to run, 0 = until interrupted (default from config duration)")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "clock rate override in Hz")
	cmd.Flags().StringVar(&opts.Note, "note", "", "free-form note stored with the run")

	return cmd
}

func runRealtime(opts *RunOptions, path string, cmd *cobra.Command) error {
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Settings.DBPath
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}
	duration := opts.Duration
	if !cmd.Flags().Changed("duration") {
		duration = opts.Settings.Duration
	}
	if duration < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--duration must be >= 0, got %v", duration))
	}

	def, err := loadDefinition(path, opts.Rate, opts.Settings.Rate)
	if err != nil {
		return err
	}

	// Open database (create if not exists)
	slog.Info("opening database", "path", dbPath)
	var storeOpts []store.Option
	if opts.IDs != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDs))
	}
	st, err := store.Open(dbPath, storeOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := commandContext(cmd)
	runID, err := st.BeginRun(parentCtx, store.RunInfo{Vehicle: def.Name, Rate: def.Rate, Note: opts.Note})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to begin run", err)
	}

	// The recorder needs the built vehicle, and the vehicle's clock needs the
	// observer, so the observer forwards through rec.
	var rec *store.Recorder
	clockOpts := []clock.Option{
		clock.WithLogger(slog.Default()),
		clock.WithObserver(func(f clock.Firing) { rec.Observe(f) }),
	}
	if opts.TickerFactory != nil {
		clockOpts = append(clockOpts, clock.WithTickerFactory(opts.TickerFactory))
	}
	v, err := def.Build(clockOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build vehicle", err)
	}
	rec = store.NewRecorder(parentCtx, st, runID, v, slog.Default())

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("run starting", "run", runID, "vehicle", v.Name, "rate", def.Rate, "duration", duration)
	if opts.Format != "json" {
		fmt.Fprintf(cmd.OutOrStdout(), "Recording run %s to %s. Press Ctrl-C to stop.\n", runID, dbPath)
	}

	if err := v.Clock.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to start clock", err)
	}
	v.Clock.Wait()

	recorded, failed, lastErr := rec.Stats()
	result := RunResult{
		RunID:    runID,
		Vehicle:  v.Name,
		Rate:     def.Rate,
		Database: dbPath,
		Firings:  v.Clock.Seq(),
		Recorded: recorded,
		Failed:   failed,
	}
	slog.Info("run stopped", "run", runID, "firings", result.Firings, "recorded", recorded, "failed", failed)

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_TELEMETRY", Message: fmt.Sprintf("%d firing(s) not recorded", failed)}
		}
		if err := out.JSON(resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d firings, %d recorded, %d failed\n",
			runID, result.Firings, recorded, failed)
	}

	if failed > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("%d firing(s) not recorded", failed), lastErr)
	}
	return nil
}
