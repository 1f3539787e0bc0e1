package cli

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivolynets/spacesim/internal/clock"
	"github.com/ivolynets/spacesim/internal/engine"
	"github.com/ivolynets/spacesim/internal/tank"
	"github.com/ivolynets/spacesim/internal/vehicle"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Firings int
	Rate    float64 // overrides the vehicle's clock rate when > 0
}

// SimulateResult is the vehicle state after a deterministic run.
type SimulateResult struct {
	Vehicle     string            `json:"vehicle"`
	Rate        float64           `json:"rate"`
	Firings     int64             `json:"firings"`
	Elapsed     float64           `json:"elapsed_s"`
	TotalThrust float64           `json:"total_thrust_n"`
	Engines     []engine.Snapshot `json:"engines"`
	Tanks       []tank.Snapshot   `json:"tanks"`
	Faults      map[string]int    `json:"faults"` // count per temporal
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <vehicle.cue>",
		Short: "Run deterministic firings and print the final state",
		Long: `Build a vehicle from a CUE definition and run a fixed number of clock
firings back to back, without waiting on the wall clock.

Each firing advances every engine by 1/rate seconds in declaration order.
Faults (e.g. an engine with no tank) are logged and counted; they never
stop the run.

Examples:
  spacesim simulate vehicles/twin.cue
  spacesim simulate vehicles/twin.cue --firings 240
  spacesim simulate vehicles/twin.cue --rate 100 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Firings, "firings", "n", 0, "number of firings (default: one simulated second)")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "clock rate override in Hz")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	if opts.Firings < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--firings must be >= 0, got %d", opts.Firings))
	}

	def, err := loadDefinition(path, opts.Rate, opts.Settings.Rate)
	if err != nil {
		return err
	}

	faults := make(map[string]int)
	v, err := def.Build(
		clock.WithLogger(slog.Default()),
		clock.WithObserver(func(f clock.Firing) {
			for _, tf := range f.Faults {
				faults[tf.Name]++
			}
		}),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build vehicle", err)
	}

	n := opts.Firings
	if n == 0 {
		n = int(math.Max(1, math.Round(def.Rate)))
	}

	slog.Debug("simulating", "vehicle", v.Name, "rate", def.Rate, "firings", n, "engines", len(v.Engines))
	if _, err := v.Clock.Run(commandContext(cmd), n); err != nil {
		return WrapExitError(ExitFailure, "simulation interrupted", err)
	}

	result := SimulateResult{
		Vehicle:     v.Name,
		Rate:        v.Clock.Rate(),
		Firings:     v.Clock.Seq(),
		Elapsed:     float64(v.Clock.Seq()) * v.Clock.Elapsed(),
		TotalThrust: v.TotalThrust(),
		Engines:     v.EngineSnapshots(),
		Tanks:       v.TankSnapshots(),
		Faults:      faults,
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.JSON(CLIResponse{Status: "ok", Data: result})
	}
	return outputSimulateText(cmd.OutOrStdout(), result)
}

// loadDefinition reads a vehicle and applies a rate override: the flag
// first, then the configured rate.
func loadDefinition(path string, flagRate, settingsRate float64) (*vehicle.Definition, error) {
	def, err := vehicle.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load vehicle", err)
	}
	switch {
	case flagRate > 0:
		def.Rate = flagRate
	case flagRate < 0:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("--rate must be > 0, got %v", flagRate))
	case settingsRate > 0:
		def.Rate = settingsRate
	}
	return def, nil
}

func outputSimulateText(w io.Writer, r SimulateResult) error {
	fmt.Fprintf(w, "Vehicle: %s (%g Hz, %d firings, %.3fs)\n", r.Vehicle, r.Rate, r.Firings, r.Elapsed)
	fmt.Fprintf(w, "Total thrust: %.1f N\n\n", r.TotalThrust)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(r.Engines) > 0 {
		fmt.Fprintln(tw, "ENGINE\tTHROTTLE\tPREBURNER\tCHAMBER\tLEVEL\tTHRUST (N)")
		for _, e := range r.Engines {
			fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.1f\n",
				e.Name, e.Throttle, e.PreburnerCombustion, e.ChamberCombustion, e.ThrustLevel, e.Thrust)
		}
		fmt.Fprintln(tw)
	}
	if len(r.Tanks) > 0 {
		fmt.Fprintln(tw, "TANK\tCOMPOUND\tLEVEL (kg)\tCAPACITY (kg)\tFILL")
		for _, t := range r.Tanks {
			fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.1f%%\n",
				t.Name, t.Compound, t.Level, t.MassCapacity, t.Fraction*100)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Faults) == 0 {
		fmt.Fprintln(w, "\nFaults: none")
		return nil
	}
	names := make([]string, 0, len(r.Faults))
	for name := range r.Faults {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, r.Faults[name])
	}
	fmt.Fprintf(w, "\nFaults: %s\n", strings.Join(parts, ", "))
	return nil
}
