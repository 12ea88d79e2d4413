// Command circsim runs the circulation economy simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/talgya/circulation/internal/config"
	"github.com/talgya/circulation/internal/engine"
	"github.com/talgya/circulation/internal/metrics"
	"github.com/talgya/circulation/internal/persistence"
	"github.com/talgya/circulation/internal/report"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "circsim",
	Short:         "Capital market and goods clearing for a macro agent economy",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./circsim.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	runCmd.Flags().Uint64("rounds", 0, "number of rounds to run (overrides config)")
	runCmd.Flags().String("format", "", "report format: text, yaml, none")
	runCmd.Flags().String("db", "", "SQLite report store path")
	runCmd.Flags().String("metrics", "", "Prometheus textfile path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if cmd.Flags().Changed("rounds") {
		cfg.Simulation.Rounds, _ = cmd.Flags().GetUint64("rounds")
	}
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		cfg.Output.Format = f
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Output.DBPath = db
	}
	if m, _ := cmd.Flags().GetString("metrics"); m != "" {
		cfg.Output.MetricsFile = m
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation and print a report per round",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func run(cfg *config.Config) error {
	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("circulation simulation",
		"preset", cfg.Simulation.Preset,
		"rounds", cfg.Simulation.Rounds,
		"seed", cfg.Simulation.Seed,
		"goods", cfg.Goods.Enabled,
	)

	sim, err := cfg.NewSimulation()
	if err != nil {
		return err
	}
	slog.Info("population spawned", "agents", len(sim.Agents), "shocks", len(sim.Shocks))

	printer, err := report.NewPrinter(os.Stdout, cfg.Output.Format)
	if err != nil {
		return err
	}
	defer printer.Close()

	// ── Report store ─────────────────────────────────────────────────
	var db *persistence.DB
	var runID string
	if cfg.Output.DBPath != "" {
		db, err = persistence.Open(cfg.Output.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		r, err := db.StartRun(cfg.Simulation.Preset, cfg.Simulation.Seed)
		if err != nil {
			return err
		}
		runID = r.ID
	}

	// ── Metrics ──────────────────────────────────────────────────────
	var collector *metrics.Collector
	if cfg.Output.MetricsFile != "" {
		collector = metrics.NewCollector(logger)
	}

	eng := engine.NewEngine(cfg.Simulation.Rounds)
	eng.OnRound = func(round uint64) error {
		rep, err := sim.Round(round)
		if err != nil {
			return err
		}
		events := sim.DrainEvents()
		if err := printer.Round(rep, events); err != nil {
			return fmt.Errorf("print round %d: %w", round, err)
		}
		if db != nil {
			if err := db.SaveRound(runID, rep); err != nil {
				return fmt.Errorf("save round %d: %w", round, err)
			}
			if err := db.SaveEvents(runID, events); err != nil {
				return fmt.Errorf("save events: %w", err)
			}
		}
		if collector != nil {
			collector.Observe(rep)
		}
		return nil
	}
	eng.OnStop = func(round uint64, err error) {
		if collector != nil {
			if werr := collector.WriteTextfile(cfg.Output.MetricsFile); werr != nil {
				slog.Error("failed to write metrics", "error", werr)
			}
		}
		if err == nil {
			slog.Info("simulation complete", "rounds", round,
				"total_savings", sim.Stats.TotalSavings, "total_debt", sim.Stats.TotalDebt)
		}
	}

	// ── Graceful shutdown ────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go watchSignals(sigCh, done, eng.Stop)

	return eng.Run()
}

// watchSignals calls stop on the first signal and returns once done is
// closed.
func watchSignals(sigCh <-chan os.Signal, done <-chan struct{}, stop func()) {
	select {
	case sig := <-sigCh:
		slog.Info("received signal, stopping after current round", "signal", sig)
		stop()
	case <-done:
	}
}

// --- Preset Command ---

var presetCmd = &cobra.Command{
	Use:       "preset [name]",
	Short:     "Print a preset configuration as YAML",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{config.PresetCirculation, config.PresetConsumption, config.PresetGenerated},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := config.PresetCirculation
		if len(args) == 1 {
			name = args[0]
		}
		cfg, err := config.Preset(name)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "circsim %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", commit)
	},
}
