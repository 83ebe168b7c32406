package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show agent execution and order statistics",
	Long:  `Summarize agent executions and order states recorded in the database. Point --db at the bot's database file.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Duration("window", commands.StatsWindow, "how far back to look")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	window, _ := cmd.Flags().GetDuration("window")
	if window <= 0 {
		return fmt.Errorf("window must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	s, err := a.Stats(cmd.Context(), time.Now().Add(-window))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), commands.FormatStats(s))
	return nil
}
