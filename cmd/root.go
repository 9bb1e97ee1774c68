package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// CLI flags for the demo scenario
	seed         int64   // Seed for scenario randomness (the kernel itself draws none)
	horizon      float64 // Virtual time to run the scenario for
	logLevel     string  // Log verbosity level
	scenarioPath string  // Optional YAML scenario config
	rtFactor     float64 // Wall-clock seconds per unit of virtual time (0 disables pacing)
	rtStrict     bool    // Fail on real-time overrun instead of drifting
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "simkern",
	Short: "Deterministic discrete-event simulation kernel",
}

// runCmd executes the built-in machine-shop scenario using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the machine-shop demo scenario",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := DefaultScenarioConfig()
		if scenarioPath != "" {
			cfg, err = LoadScenarioConfig(scenarioPath)
			if err != nil {
				logrus.Fatalf("Failed to load scenario config: %v", err)
			}
		}

		logrus.Infof("Starting scenario: %d machines, %d repairers, horizon=%v, seed=%d",
			cfg.Machines, cfg.Repairers, horizon, seed)
		startTime := time.Now()

		result, err := RunScenario(cfg, seed, horizon, rtFactor, rtStrict)
		if err != nil {
			logrus.Fatalf("Scenario failed: %v", err)
		}
		logrus.Infof("Scenario complete in %v wall time.", time.Since(startTime))

		out, err := yaml.Marshal(result)
		if err != nil {
			logrus.Fatalf("Failed to render result: %v", err)
		}
		os.Stdout.Write(out)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for scenario randomness")
	runCmd.Flags().Float64Var(&horizon, "horizon", 5000, "Virtual time to simulate")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario config (defaults apply when omitted)")
	runCmd.Flags().Float64Var(&rtFactor, "realtime-factor", 0, "Wall-clock seconds per unit of virtual time (0 = as fast as possible)")
	runCmd.Flags().BoolVar(&rtStrict, "strict", false, "Fail when event processing overruns its real-time slot")

	rootCmd.AddCommand(runCmd)
}
