package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"genspec/internal/config"
	"genspec/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dataDir    string

	// Logger
	logger *zap.Logger

	// Resolved configuration
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "genspec",
	Short: "genspec - X-ray generator electrical specifications and installation reports",
	Long: `genspec looks up the electrical service requirements of Maven Imaging X-ray
generators, checks planned loads against the selected rating, tracks the
installation checklist and produces signed-off PDF reports.

Run without arguments to start the interactive report builder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		return initLogging(cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runTUI,
}

// initLogging configures the category loggers from cfg.
func initLogging(c *config.Config) error {
	debug := c.Logging.DebugMode || verbose
	level := c.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.Initialize(logging.Settings{
		DebugMode:  debug,
		Level:      level,
		Format:     c.Logging.Format,
		Dir:        c.LogsPath(),
		Categories: c.Logging.Categories,
	})
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".genspec/config.yaml", "Config file")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (overrides config)")

	// Spec subcommands
	specCmd.AddCommand(specShowCmd)
	specCmd.AddCommand(specListCmd)

	// Loads subcommands
	loadsCmd.AddCommand(loadsAnalyzeCmd)

	// Report subcommands
	reportCmd.AddCommand(reportSaveCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportDeleteCmd)
	reportCmd.AddCommand(reportExportCmd)

	// Config subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	// Add commands to root
	rootCmd.AddCommand(specCmd)
	rootCmd.AddCommand(loadsCmd)
	rootCmd.AddCommand(checklistCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(faqCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
