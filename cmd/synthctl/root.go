package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "synthctl",
	Short: "synthctl - multi-step retrosynthetic planning",
	Long: `synthctl plans synthesis routes for target molecules by searching an
AND-OR graph of candidate reactions proposed by single-step predictors,
stopping at purchasable starting materials.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling. An interrupt cancels
// the run at the next iteration boundary; partial results are still reported.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "synthctl.yaml", "Path to the run configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level regardless of config")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("synthctl v0.1.0")
	},
}
