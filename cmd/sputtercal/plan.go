package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xrdlab/sputtercal/pkg/calibration"
	"github.com/xrdlab/sputtercal/pkg/client"
	"github.com/xrdlab/sputtercal/pkg/export"
	"github.com/xrdlab/sputtercal/pkg/library"
	"github.com/xrdlab/sputtercal/pkg/powerselect"
	"github.com/xrdlab/sputtercal/pkg/server"
)

func openLibrary(dir string) (*library.Library, error) {
	if dir == "" {
		dir = conf.DataDir()
	}
	lib, err := library.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration library: %w", err)
	}
	if n := len(lib.Failures()); n > 0 {
		logrus.Warnf("%d malformed files in %s were skipped", n, dir)
	}
	return lib, nil
}

func NewSelectCommand() *cobra.Command {
	var (
		x, y, z  string
		power    float64
		dir      string
		remote   string
		jsonFlag bool
	)

	cmd := &cobra.Command{
		Use:     "select",
		Short:   "Select target powers for a ternary deposition",
		GroupID: gPlan,
		Long: `Select target powers for co-sputtering three targets.

The X target runs at the given power. Y and Z are set to half the X rate each,
using the linear fit of each target's calibration. Targets are given by file
name without extension, or by element when only one target has it.

With --remote the selection is made by a running "sputtercal serve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				sel *powerselect.Selection
				err error
			)
			if remote != "" {
				sel, err = client.NewClient(remote).SelectPowers(x, y, z, power)
			} else {
				sel, err = selectLocal(dir, x, y, z, power)
			}
			if err != nil {
				return err
			}

			if jsonFlag {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sel)
			}

			for _, s := range sel.Settings {
				line := fmt.Sprintf("  %s %-4s %s", s.Role, s.Element, bold("%6.2f W", s.PowerW))
				if s.Extrapolated {
					line += " " + warnText("(extrapolated)")
				}
				cmd.Printf("%s  [%s]\n", line, s.Target)
			}
			cmd.Printf("  X rate: %.6g mols/s/cm^2\n", sel.XRate)
			cmd.Printf("  Y/Z rate: %.6g mols/s/cm^2 (with mask: %.6g)\n", sel.YZRate, sel.YZRateScaled)
			for _, n := range sel.Notices {
				logrus.Warn(n)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&x, "x", "", "X target (name or element)")
	f.StringVar(&y, "y", "", "Y target (name or element)")
	f.StringVar(&z, "z", "", "Z target (name or element)")
	f.Float64Var(&power, "power", 0, "X target power in W")
	f.StringVar(&dir, "dir", "", "calibration directory (defaults to dataDir from the config)")
	f.StringVar(&remote, "remote", "", "address of a sputtercal server to ask instead of reading files")
	f.BoolVar(&jsonFlag, "json", false, "output in JSON format")
	for _, name := range []string{"x", "y", "z", "power"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func selectLocal(dir, x, y, z string, power float64) (*powerselect.Selection, error) {
	lib, err := openLibrary(dir)
	if err != nil {
		return nil, err
	}

	var candidates [3]powerselect.Candidate
	for i, ref := range []string{x, y, z} {
		t, err := lib.Resolve(ref)
		if err != nil {
			return nil, err
		}
		candidates[i] = powerselect.Candidate{Name: t.Name, Table: t.Table}
	}

	sel, err := powerselect.Select(powerselect.Request{
		X:         candidates[0],
		Y:         candidates[1],
		Z:         candidates[2],
		Power:     power,
		MaxPower:  conf.MaxPower(),
		MaskScale: conf.MaskScale(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select powers: %w", err)
	}
	return sel, nil
}

func NewExportCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:     "export <file>...",
		Short:   "Export calibration tables",
		GroupID: gPlan,
		Long: `Export calibration tables with their derived columns.

Formats:
  csv   all tables concatenated under one header row
  xlsx  one sheet per table and a sheet with every header (requires -o)
  raw   the original file layout, header and measured columns (one file only)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadFiles(args)
			if err != nil {
				return err
			}

			var write func(io.Writer) error
			switch format {
			case "csv":
				write = func(w io.Writer) error { return export.WriteCSV(w, sheets(files)...) }
			case "xlsx":
				if output == "" {
					return errors.New("xlsx export requires --output")
				}
				write = func(w io.Writer) error { return export.WriteXLSX(w, sheets(files)...) }
			case "raw":
				if len(files) != 1 {
					return fmt.Errorf("raw export takes exactly one file, got %d", len(files))
				}
				write = func(w io.Writer) error { return calibration.WriteRaw(w, files[0].table) }
			default:
				return fmt.Errorf("unknown format %q: must be csv, xlsx or raw", format)
			}

			if output == "" {
				return write(cmd.OutOrStdout())
			}

			fp, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := write(fp); err != nil {
				_ = fp.Close()
				return fmt.Errorf("failed to export to %s: %w", output, err)
			}
			if err := fp.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", output, err)
			}
			logrus.Infof("exported %d tables to %s", len(files), output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "csv", "output format (csv, xlsx, raw)")
	f.StringVarP(&output, "output", "o", "", "output file (defaults to stdout)")

	return cmd
}

func sheets(files []loadedFile) []export.Sheet {
	out := make([]export.Sheet, len(files))
	for i, f := range files {
		out[i] = export.Sheet{Name: f.name, Table: f.table}
	}
	return out
}

func NewServeCommand() *cobra.Command {
	var (
		dir    string
		listen string
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve a calibration library over HTTP",
		GroupID: gPlan,
		Long: `Serve the calibration files of a directory over a read-only HTTP API.

Endpoints:
  GET /targets
  GET /targets/:name
  GET /targets/:name/rotating
  GET /targets/:name/fit
  GET /powerselect?x=&y=&z=&power=
  GET /version`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary(dir)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = conf.ListenAddr()
			}
			logrus.WithField("targets", len(lib.Targets())).Infof("serving calibration library %s", lib.Dir())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx, listen, lib, conf)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "calibration directory (defaults to dataDir from the config)")
	f.StringVar(&listen, "listen", "", "listen address (defaults to listenAddr from the config)")

	return cmd
}
