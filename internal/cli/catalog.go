package cli

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivolynets/spacesim/internal/propellant"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Kind string // "" | fuel | oxidizer
}

// CompoundEntry is one catalog row. Unknown temperatures are null.
type CompoundEntry struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Density       float64  `json:"density_kg_ml"`
	MeltingPointC *float64 `json:"melting_point_c"`
	BoilingPointC *float64 `json:"boiling_point_c"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List propellant compounds",
		Long: `List the built-in propellant catalog.

Names are matched case-insensitively in vehicle definitions, and common
aliases (LOX, LH2, MMH, N2O4) resolve to their catalog entry.

Examples:
  spacesim catalog
  spacesim catalog --kind oxidizer
  spacesim catalog --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only list fuel or oxidizer")

	return cmd
}

func runCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	var compounds []propellant.Compound
	switch {
	case opts.Kind == "":
		compounds = append(propellant.Fuels(), propellant.Oxidizers()...)
	default:
		kind, err := propellant.ParseKind(opts.Kind)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
		if kind == propellant.Fuel {
			compounds = propellant.Fuels()
		} else {
			compounds = propellant.Oxidizers()
		}
	}

	entries := make([]CompoundEntry, len(compounds))
	for i, c := range compounds {
		entries[i] = CompoundEntry{
			Name:          c.Name(),
			Kind:          c.Kind().String(),
			Density:       c.Density(),
			MeltingPointC: knownTemp(c.MeltingPointC()),
			BoilingPointC: knownTemp(c.BoilingPointC()),
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.JSON(CLIResponse{Status: "ok", Data: entries})
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tDENSITY (kg/L)\tMELT (°C)\tBOIL (°C)")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\t%s\n",
			e.Name, e.Kind, e.Density*1000, formatTemp(e.MeltingPointC), formatTemp(e.BoilingPointC))
	}
	return tw.Flush()
}

func knownTemp(c float64) *float64 {
	if math.IsNaN(c) {
		return nil
	}
	return &c
}

func formatTemp(c *float64) string {
	if c == nil {
		return "-"
	}
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", *c), "0"), ".")
}
