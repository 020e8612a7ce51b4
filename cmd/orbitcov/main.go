// Command orbitcov evaluates satellite coverage, contacts and eclipses for a
// mission file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/star/orbitcov/internal/access"
	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/metrics"
	"github.com/star/orbitcov/internal/mission"
)

var (
	logger  *slog.Logger
	outDir  string
	metFile string
	states  map[string]string
)

var rootCmd = &cobra.Command{
	Use:   "orbitcov",
	Short: "Orbit coverage and visibility engine",
	Long: `orbitcov propagates the spacecraft of a mission file and evaluates grid or
pointing-option coverage, line-of-sight contacts and eclipses.

Environment:
  ORBITCOV_LOG_LEVEL               debug, info, warn or error (default info)
  ORBITCOV_WORKERS                 concurrent evaluations (default: number of CPUs)
  ORBITCOV_OPAQUE_ATMOS_HEIGHT_KM  overrides settings.opaqueAtmosHeight
  ORBITCOV_METRICS_FILE            default for --metrics-file`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(os.Stderr, loadLogLevel(newLogger(os.Stderr, slog.LevelInfo)))
		if metFile == "" {
			metFile = os.Getenv("ORBITCOV_METRICS_FILE")
		}
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metFile == "" {
			return nil
		}
		if err := metrics.WriteTextfile(metFile); err != nil {
			return err
		}
		logger.Info("metrics written", "path", metFile)
		return nil
	},
}

func missionCmd(use, short string, stages mission.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <mission.json>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMission(cmd.Context(), args[0], stages, use == "propagate")
		},
	}
}

var filterCmd = &cobra.Command{
	Use:   "filter-mid-access <access.csv> <out.csv>",
	Short: "Collapse every access run of an access file to its middle row",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, h, recs, err := access.ReadFile(args[0])
		if err != nil {
			return err
		}
		filtered := access.FilterMidAccess(recs)
		if err := access.WriteFile(args[1], kind, h, filtered); err != nil {
			return err
		}
		logger.Info("access file filtered", "in", args[0], "out", args[1], "records", len(recs), "kept", len(filtered))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "output", "Output directory")
	rootCmd.PersistentFlags().StringVar(&metFile, "metrics-file", "", "Write Prometheus metrics in text format to this file after the run")
	rootCmd.PersistentFlags().StringToStringVar(&states, "states", nil, "Read the states of a spacecraft from a file instead of propagating it (id=path, repeatable)")

	rootCmd.AddCommand(
		missionCmd("run", "Propagate and run every evaluation the mission settings enable", 0),
		missionCmd("propagate", "Propagate the spacecraft and write state files only", 0),
		missionCmd("coverage", "Propagate and evaluate coverage", mission.StageCoverage),
		missionCmd("contacts", "Propagate and find contacts between spacecraft and ground stations", mission.StageContacts),
		missionCmd("eclipses", "Propagate and find eclipses of every spacecraft", mission.StageEclipses),
		filterCmd,
	)
}

func runMission(ctx context.Context, path string, stages mission.Stage, propagateOnly bool) error {
	m, err := config.Load(path)
	if err != nil {
		return err
	}
	stateFiles := make(map[string]string, len(states))
	for id, p := range states {
		if stateFiles[id], err = filepath.Abs(p); err != nil {
			return fmt.Errorf("state file for %s: %w", id, err)
		}
	}
	opts := mission.Options{
		OutDir:            outDir,
		BaseDir:           filepath.Dir(path),
		Workers:           loadWorkers(logger),
		OpaqueAtmosHeight: loadOpaqueAtmosHeight(logger),
		Stages:            stages,
		StateFiles:        stateFiles,
	}
	runner := mission.NewRunner(opts, logger)

	var sum *mission.Summary
	if propagateOnly {
		sum, err = runner.Propagate(ctx, m)
	} else {
		sum, err = runner.Run(ctx, m)
	}
	if err != nil {
		return err
	}
	logger.Info("run finished",
		"run_id", sum.RunID.String(),
		"out", outDir,
		"state_files", len(sum.StateFiles),
		"access_files", len(sum.AccessFiles),
		"contact_files", len(sum.ContactFiles),
		"eclipse_files", len(sum.EclipseFiles),
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
