package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/fit/internal/models"
)

func newMeasureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Record body measurements and show weight progress",
	}
	cmd.AddCommand(
		newMeasureAddCmd(a),
		newMeasureListCmd(a),
		newMeasureProgressCmd(a),
		newMeasureImportCmd(a),
	)
	return cmd
}

func newMeasureAddCmd(a *app) *cobra.Command {
	var (
		weight float64
		feet   int
		inches float64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record weight (lbs) and height (ft/in)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.api.AddMeasurement(cmd.Context(), float64(feet)*12+inches, weight)
			if err != nil {
				return err
			}
			printMeasurement(a, m)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&weight, "weight", "w", 0, "weight in pounds")
	cmd.Flags().IntVar(&feet, "feet", 0, "height, feet part")
	cmd.Flags().Float64Var(&inches, "inches", 0, "height, inches part")
	_ = cmd.MarkFlagRequired("weight")
	return cmd
}

func newMeasureListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List measurements, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := a.api.Measurements(cmd.Context())
			if err != nil {
				return err
			}
			if len(ms) == 0 {
				fmt.Fprintln(a.out, "No measurements recorded")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tWEIGHT\tHEIGHT\tSOURCE")
			for _, m := range ms {
				fmt.Fprintf(tw, "%s\t%.1f lbs\t%.1f in\t%s\n",
					m.RecordedAt.Local().Format(time.DateOnly), m.Weight, m.Height, m.Source)
			}
			return tw.Flush()
		},
	}
}

func newMeasureProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show current weight, total change and measurement count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api.Progress(cmd.Context())
			if err != nil {
				return err
			}
			current := "No data"
			if p.CurrentWeight != nil {
				current = fmt.Sprintf("%.1f lbs", *p.CurrentWeight)
			}
			change := "No change"
			if p.TotalChange != nil {
				change = fmt.Sprintf("%+.1f lbs", *p.TotalChange)
			}
			fmt.Fprintf(a.out, "Current weight: %s\n", current)
			fmt.Fprintf(a.out, "Total change:   %s\n", change)
			fmt.Fprintf(a.out, "Measurements:   %d\n", p.Count)
			return nil
		},
	}
}

func newMeasureImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Record height and weight reported by the active tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.api.ImportMeasurement(cmd.Context())
			if err != nil {
				return err
			}
			printMeasurement(a, m)
			return nil
		},
	}
}

func printMeasurement(a *app, m *models.Measurement) {
	fmt.Fprintf(a.out, "Recorded %.1f lbs, %.1f in (%s)\n", m.Weight, m.Height, m.Source)
}
