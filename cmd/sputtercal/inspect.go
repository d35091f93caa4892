package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xrdlab/sputtercal/pkg/calibration"
)

func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show <file>...",
		Short:   "Show a calibration table with its derived columns",
		GroupID: gInspect,
		Long: `Show the header, the source of every required column and the full table,
including mass gain, mols, rates and thickness, of one or more calibration
files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadFiles(args)
			if err != nil {
				return err
			}

			for i, f := range files {
				if i > 0 {
					cmd.Println()
				}
				printHeader(cmd, f.table)
				cmd.Println()
				printSources(cmd, f.table)
				cmd.Println()
				cmd.Println(bold("Data:"))
				if err := writeColumns(cmd.OutOrStdout(), f.table); err != nil {
					return fmt.Errorf("failed to print %s: %w", f.name, err)
				}
			}
			return nil
		},
	}
}

func printHeader(cmd *cobra.Command, t *calibration.Table) {
	hdr := t.Header()
	cmd.Printf("%s %s\n", bold("%s", hdr.Element), t.Path())
	cmd.Printf("  Atomic mass: %s\n", bold("%g g/mol", hdr.AtomicMass))
	cmd.Printf("  Density: %s\n", bold("%g g/cm^3", hdr.Density))
	if hdr.HasMotion() {
		cmd.Printf("  Table motion: %s\n", bold("%s", hdr.Motion()))
	} else {
		cmd.Printf("  Table motion: %s\n", warnText("not specified"))
	}
	if hdr.Date != "" {
		cmd.Printf("  Date: %s\n", hdr.Date)
	}
	if hdr.Experimenter != "" {
		cmd.Printf("  Experimenter: %s\n", hdr.Experimenter)
	}

	keys := make([]string, 0, len(hdr.Extra))
	for k := range hdr.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %v\n", k, hdr.Extra[k])
	}
}

func printSources(cmd *cobra.Command, t *calibration.Table) {
	cmd.Println(bold("Column sources:"))
	for _, base := range calibration.RequiredColumns {
		res := t.Resolution(base)
		switch res.Source {
		case calibration.FromHeaderScalar:
			cmd.Printf("  %s: header %q = %g\n", base, res.Name, res.Scalar)
		default:
			cmd.Printf("  %s: %s %q\n", base, res.Source, res.Name)
		}
	}
	if extra := t.ExtraColumns(); len(extra) > 0 {
		cmd.Printf("  other columns: %s\n", strings.Join(extra, ", "))
	}
}

func writeColumns(w io.Writer, t *calibration.Table) error {
	names := t.ColumnNames()
	columns := make([][]float64, len(names))
	for i, n := range names {
		columns[i], _ = t.Column(n)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	cells := make([]string, len(names))
	for r := 0; r < t.Len(); r++ {
		for c := range names {
			cells[c] = strconv.FormatFloat(columns[c][r], 'g', 6, 64)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func NewRotatingCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rotating <file>...",
		Short:   "Estimate deposition rates under the rotating mask",
		GroupID: gInspect,
		Long: `Estimate deposition rates with the sample table rotating, from stationary
calibration runs. The rotating mask deposits 1/30 of the stationary rate.

Files whose header does not declare table_motion are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadFiles(args)
			if err != nil {
				return err
			}

			skipped := 0
			for _, f := range files {
				est, err := f.table.EstimateRotatingMask()
				if err != nil {
					var w *calibration.MissingCalibrationWarning
					if !errors.As(err, &w) {
						return fmt.Errorf("failed to estimate %s: %w", f.name, err)
					}
					logrus.Warn(err.Error())
					cmd.PrintErrln(w.Guidance)
					skipped++
					continue
				}

				cmd.Printf("%s %s\n", bold("%s", f.table.Element()), f.table.Path())
				for _, n := range est.Notices {
					cmd.Printf("  %s\n", warnText("%s", n))
				}
				rows := f.table.Rows()
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "power (W)\trate (mols/s)\trate (mols/s/cm^2)\trate (nm/s)")
				for i, r := range est.Rows {
					fmt.Fprintf(tw, "%g\t%.6g\t%.6g\t%.6g\n", rows[i].Power, r.RateMolsPerSec, r.RateMolsPerSecPerArea, r.RateNmPerSec)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if skipped > 0 {
				logrus.Infof("%d of %d files skipped", skipped, len(files))
			}
			return nil
		},
	}
}

func NewFitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "fit <file>...",
		Short:   "Fit deposition rate against power",
		GroupID: gInspect,
		Long:    `Fit a least-squares line of rate per area (mols/s/cm^2) against power (W) for each file.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadFiles(args)
			if err != nil {
				return err
			}

			for _, f := range files {
				fit, err := f.table.Fit()
				if err != nil {
					return fmt.Errorf("failed to fit %s: %w", f.name, err)
				}
				cmd.Printf("%s %s\n", bold("%s", f.table.Element()), f.table.Path())
				cmd.Printf("  rate = %s * power + %s\n", bold("%.6g", fit.Slope), bold("%.6g", fit.Intercept))
				cmd.Printf("  r: %.6f  stderr: %.6g  points: %d\n", fit.RValue, fit.StdErr, fit.N)
				cmd.Printf("  calibrated range: %g-%g W\n", fit.MinPower, fit.MaxPower)
			}
			return nil
		},
	}
}
