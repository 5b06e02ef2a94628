package main

import (
	"fmt"
	"os"

	"codetree/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version = "dev"

	cfgFile    string
	workingDir string
	logFile    string
	verbose    bool
	logger     *logrus.Logger
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "codetree",
	Short: "codetree - a persistent knowledge tree for code analysis",
	Long: `codetree maintains a dependency graph of code elements (functions, modules,
constants, variables) built up while analyzing a codebase, and serves it to
MCP clients over stdio. Running codetree with no subcommand starts the server.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logrus.New()
		// stdout belongs to the MCP transport.
		logger.SetOutput(os.Stderr)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
		if workingDir != "" {
			cfg.WorkingDir = workingDir
		}
		if logFile != "" {
			cfg.LogFile = logFile
		}

		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLevel(level)
		}

		if cfg.LogFile != "" {
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				logger.WithError(err).Warn("Failed to open log file, logging to stderr")
			} else {
				logger.SetOutput(f)
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./codetree.yaml)")
	rootCmd.PersistentFlags().StringVar(&workingDir, "working-dir", "", "directory the knowledge-tree lives in (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.PersistentFlags().Bool("watch", false, "reload the store when tree files change on disk")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
}
