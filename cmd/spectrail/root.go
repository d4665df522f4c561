package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0"
var Version = "dev"

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "spectrail",
	Short: "SpecTrail — plan and verify agentic workflows over a repository",
	Long:  "SpecTrail Core dev CLI: drives an LLM through plan and verify agentic workflows over a user-selected repository, without a desktop shell in front of it.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "dev config file (default: spectrail.json5 or $SPECTRAIL_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(doctorCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spectrail %s\n", Version)
		},
	}
}

// Execute runs the root cobra command.
func Execute() error {
	return rootCmd.Execute()
}
