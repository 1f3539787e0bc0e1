package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivolynets/spacesim/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional; without it, runs are listed
	Engine   string // optional - filter to one engine
}

// TraceResult holds one run's recorded telemetry.
type TraceResult struct {
	Run     store.RunInfo        `json:"run"`
	Engines []store.EngineSample `json:"engines"`
	Tanks   []store.TankSample   `json:"tanks"`
	Faults  []store.FaultRecord  `json:"faults"`
	Stats   TraceStats           `json:"stats"`
}

// TraceStats holds summary statistics for a run.
type TraceStats struct {
	Firings    int64          `json:"firings"`
	PeakThrust float64        `json:"peak_thrust_n"`
	FaultCodes map[string]int `json:"fault_codes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded telemetry",
		Long: `Show telemetry recorded by 'spacesim run'.

Without --run, lists the runs in the database, oldest first. With --run,
prints the run's engine samples, tank samples and faults ordered by
firing.

Examples:
  spacesim trace --db telemetry.db
  spacesim trace --db telemetry.db --run 01890a5d-ac96-774b-bcce-b302099a8057
  spacesim trace --db telemetry.db --run <id> --engine first --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config db_path)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "filter engine samples to one engine")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Settings.DBPath
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}
	// Open would create an empty database; a typo should fail instead.
	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath), err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return out.JSON(CLIResponse{Status: "ok", Data: runs})
		}
		return outputRunsText(cmd.OutOrStdout(), runs)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	result, err := buildTrace(ctx, st, run, opts.Engine)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read telemetry", err)
	}

	if opts.Format == "json" {
		return out.JSON(CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd.OutOrStdout(), result)
}

func buildTrace(ctx context.Context, st *store.Store, run store.RunInfo, engineFilter string) (TraceResult, error) {
	engines, err := st.ReadEngineSamples(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}
	tanks, err := st.ReadTankSamples(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}
	faults, err := st.ReadFaults(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}
	codes, err := st.CountFaults(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}

	stats := TraceStats{FaultCodes: codes}
	filtered := make([]store.EngineSample, 0, len(engines))
	for _, e := range engines {
		if e.Seq > stats.Firings {
			stats.Firings = e.Seq
		}
		if engineFilter != "" && e.Engine != engineFilter {
			continue
		}
		if e.Thrust > stats.PeakThrust {
			stats.PeakThrust = e.Thrust
		}
		filtered = append(filtered, e)
	}
	for _, t := range tanks {
		if t.Seq > stats.Firings {
			stats.Firings = t.Seq
		}
	}

	return TraceResult{
		Run:     run,
		Engines: filtered,
		Tanks:   tanks,
		Faults:  faults,
		Stats:   stats,
	}, nil
}

func outputRunsText(w io.Writer, runs []store.RunInfo) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tVEHICLE\tRATE\tSTARTED\tNOTE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%s\n",
			r.ID, r.Vehicle, r.Rate, r.StartedAt.Format("2006-01-02 15:04:05"), r.Note)
	}
	return tw.Flush()
}

func outputTraceText(w io.Writer, r TraceResult) error {
	fmt.Fprintf(w, "Run: %s\n", r.Run.ID)
	fmt.Fprintf(w, "Vehicle: %s (%g Hz)\n", r.Run.Vehicle, r.Run.Rate)
	fmt.Fprintf(w, "Firings: %d, peak thrust %.1f N, %d fault(s)\n\n", r.Stats.Firings, r.Stats.PeakThrust, len(r.Faults))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(r.Engines) > 0 {
		fmt.Fprintln(tw, "SEQ\tENGINE\tTHROTTLE\tPREBURNER\tCHAMBER\tTHRUST (N)")
		for _, e := range r.Engines {
			fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%.3f\t%.1f\n",
				e.Seq, e.Engine, e.Throttle, e.Preburner, e.Chamber, e.Thrust)
		}
		fmt.Fprintln(tw)
	}
	if len(r.Tanks) > 0 {
		fmt.Fprintln(tw, "SEQ\tTANK\tLEVEL (kg)\tFILL")
		for _, t := range r.Tanks {
			fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.1f%%\n", t.Seq, t.Tank, t.LevelKg, t.Fraction*100)
		}
		fmt.Fprintln(tw)
	}
	if len(r.Faults) > 0 {
		fmt.Fprintln(tw, "SEQ\tTEMPORAL\tCODE\tMESSAGE")
		for _, f := range r.Faults {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.Seq, f.Temporal, f.Code, f.Message)
		}
	}
	return tw.Flush()
}
