package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bikkkubo/pts-stock/internal/config"
	"github.com/bikkkubo/pts-stock/internal/llm"
	"github.com/bikkkubo/pts-stock/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pts-stock",
		Short: "pts-stock analyzes daily price-movement rankings and explains why each stock moved.",
		Long: `pts-stock scrapes the Kabutan regular-market and PTS price-movement
rankings, gathers the news and disclosures behind each ranked stock,
and turns them into a short numerically-grounded narrative per stock,
collected into a dated report.`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pts-stock.yaml)")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in the config file and environment.
func initConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded
	logger.SetLevel(cfg.App.LogLevel)
}

// newLLMClient builds the Gemini client, or returns nil when the API
// key is absent. The warning is emitted once here; the pipeline then
// runs on the degraded path.
func newLLMClient(ctx context.Context) *llm.Client {
	client, err := llm.NewClient(ctx, cfg.Gemini)
	if err != nil {
		logger.Warn("generative service disabled, running degraded", "reason", err.Error())
		return nil
	}
	return client
}
