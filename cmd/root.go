// Package cmd implements the automation-engine command-line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yqhp/automation-engine/internal/config"
	"yqhp/automation-engine/pkg/logger"
)

// Version is the engine version, stamped at build time.
var Version = "0.1.0"

var (
	configPath string
	debugMode  bool
	quietMode  bool

	cfg *config.Config
)

// exitError carries a specific process exit code out of a command. The run
// command uses it to report the run outcome: 1 failed, 2 rolled back,
// 3 the workflow never started.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:     "automation-engine",
	Short:   "Workflow execution engine",
	Long:    "automation-engine validates, plans and executes YAML-defined workflows\nwith dependency-ordered stages, retries, timeouts and rollback.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewLoader().WithConfigPath(configPath).Load()
		if err != nil {
			return err
		}
		initLogging()
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "suppress progress output")
	rootCmd.SetVersionTemplate("automation-engine version {{.Version}}\n")
}

func initLogging() {
	lc := &logger.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.File,
	}
	if debugMode {
		lc.Level = "debug"
	}
	if quietMode && lc.Level != "debug" {
		lc.Level = "error"
	}
	logger.Init(lc)
}

// Execute runs the root command and exits the process with the command's
// exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				fmt.Fprintln(os.Stderr, "Error:", ee.err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// GetRootCmd exposes the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
