package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xrdlab/sputtercal/pkg/calibration"
	"github.com/xrdlab/sputtercal/pkg/client"
	"github.com/xrdlab/sputtercal/pkg/config"
	"github.com/xrdlab/sputtercal/pkg/library"
)

var (
	logLevel   = "info"
	configPath = defaultConfigPath()
	conf       config.Config
)

var (
	gInspect      = "Inspect:"
	gPlan         = "Plan:"
	commandGroups = []string{
		gInspect,
		gPlan,
	}
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sputtercal.json"
	}
	return filepath.Join(home, ".sputtercal.json")
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	var fe *calibration.FormatError
	if errors.As(err, &fe) {
		fmt.Fprintln(os.Stderr, "\nExpected file format:")
		fmt.Fprintln(os.Stderr, fe.Expected())
	} else if errors.Is(err, library.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "\nError: target not found")
		fmt.Fprintln(os.Stderr, "  - Check --dir, or the dataDir value in your config file")
		fmt.Fprintln(os.Stderr, "  - Targets may be given by file name without extension, or by element")
	} else if errors.Is(err, library.ErrAmbiguous) {
		fmt.Fprintln(os.Stderr, "\nError: more than one target has that element; give the file name instead")
	} else if errors.Is(err, client.ErrServerNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: sputtercal server is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'sputtercal serve', or check the --remote address")
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Guidance != "" {
		fmt.Fprintln(os.Stderr, apiErr.Guidance)
	}
}

func main() {
	cmd := NewCommand()
	cmd.SetOut(os.Stdout)
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sputtercal",
		Short: "sputtercal reads sputter-target calibration files and plans deposition powers",
		Long: `sputtercal reads sputter-target calibration files, derives deposition rates
and thicknesses from the measured mass gain, and picks target powers for
co-sputtered ternary films.

A calibration file is a YAML header between "---" and "..." followed by a
comma separated table. Run any command on a malformed file to see the
expected layout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			f, err := config.NewFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			conf = f
			logrus.WithFields(conf.LogrusFields()).Debug("config loaded")

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewShowCommand(),
		NewRotatingCommand(),
		NewFitCommand(),
		NewSelectCommand(),
		NewExportCommand(),
		NewServeCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
	)

	return cmd
}
