// Package cmd wires the command-line interface: load a scenario file,
// build and solve the model, write the schedule.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/railos/railsched/config"
	"github.com/railos/railsched/core/engine"
	"github.com/railos/railsched/infra/logger"
	"github.com/railos/railsched/infra/metrics"
	"github.com/railos/railsched/pkg/export"
)

var (
	cfgPath string
	outPath string
	format  string
)

var rootCmd = &cobra.Command{
	Use:   "railsched",
	Short: "Constraint-based train scheduler",
	Long: "railsched reads a scenario file describing a rail network, a fleet and the\n" +
		"operating conditions of one day, solves the resulting scheduling problem and\n" +
		"writes the timetable with its delay breakdown.",
	RunE: run,
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a scenario and write the schedule",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "scenario.yaml", "scenario file")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(solveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("railsched")
	inst, err := cfg.Instance(logg)
	if err != nil {
		return fmt.Errorf("build instance: %w", err)
	}

	sink, err := buildSink(cfg, logg)
	if err != nil {
		return err
	}

	model, err := engine.Build(inst, cfg.EngineConfig())
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	logg.Infof("model built: %d trains, horizon %d min", len(inst.Trains), model.Horizon())

	sol, err := model.Solve(ctx, cfg.SolverConfig(), logg, sink)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	if !sol.Status.Solved() {
		return fmt.Errorf("no schedule found: %s", sol.Status)
	}
	logg.Infof("%d/%d trains on time (%.1f%%), total delay %d min",
		sol.Summary.OnTimeTrains, sol.Summary.TotalTrains,
		sol.Summary.PunctualityPct, sol.Summary.TotalDelay)

	return write(sol)
}

func buildSink(cfg *config.Config, logg logger.Logger) (metrics.Sink, error) {
	if cfg.Metrics.Type != "prometheus" {
		return metrics.NopSink{}, nil
	}
	sink, err := metrics.NewPromSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("prometheus sink: %w", err)
	}
	if cfg.Metrics.Listen != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Listen, nil); err != nil {
				logg.Errorf("metrics server: %v", err)
			}
		}()
	}
	return sink, nil
}

func write(sol *engine.Solution) error {
	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	switch format {
	case "json":
		return export.WriteJSON(out, sol)
	case "csv":
		return export.WriteCSV(out, sol)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
