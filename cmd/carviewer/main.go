// carviewer drives the vehicle viewer core: a headless frame loop with remote
// control and hot reload, plus model inspection tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/carviewer/internal/config"
	"github.com/Faultbox/carviewer/internal/logger"
)

var (
	overrides config.Overrides
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "carviewer",
	Short: "Vehicle viewer scene orchestrator",
	Long: `carviewer loads a glTF/GLB vehicle, frames it, lights it, animates its wheels
and moves the camera between curated inspection poses.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(&overrides)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		logger.Sugar.Debugf("Config: %+v", cfg)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	overrides.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(runCmd, inspectCmd, posesCmd)
}

// modelArg returns the model named on the command line, or the configured one.
func modelArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.Viewer.Model
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
