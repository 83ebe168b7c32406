package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildtall-systems/pidebot/internal/agents/design"
	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/config"
	"github.com/buildtall-systems/pidebot/internal/execmon"
)

var designCmd = &cobra.Command{
	Use:   "design <room-type> [WxL]",
	Short: "Propose a furnished layout for a room",
	Long: `Propose furniture and a floor layout for a room within a budget.
With --styles only the room type is needed and the minimum spend per style
is listed instead.`,
	Example: `  pidebot design dining_room 4x5m --budget 2000 --style modern
  pidebot design bedroom --styles --budget 1500`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDesign,
}

func init() {
	designCmd.Flags().String("budget", "", "total budget, e.g. 2000 or $1,500 (required)")
	designCmd.Flags().String("style", "", "modern, minimalist, classic or scandinavian")
	designCmd.Flags().StringSlice("require", nil, "optional categories to include anyway")
	designCmd.Flags().Bool("styles", false, "list style estimates instead of a layout")
	_ = designCmd.MarkFlagRequired("budget")
	rootCmd.AddCommand(designCmd)
}

func runDesign(cmd *cobra.Command, args []string) error {
	budgetFlag, _ := cmd.Flags().GetString("budget")
	budget, err := commands.ParseBudget(budgetFlag)
	if err != nil {
		return err
	}
	styles, _ := cmd.Flags().GetBool("styles")
	if !styles && len(args) < 2 {
		return fmt.Errorf("room dimensions are required, e.g. 4x5m")
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

	roomType := strings.ToLower(args[0])
	out := cmd.OutOrStdout()
	if styles {
		s, err := a.Design.Suggestions(roomType, budget)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, a.Design.SuggestionText(s))
		return nil
	}

	style, _ := cmd.Flags().GetString("style")
	required, _ := cmd.Flags().GetStringSlice("require")
	req := design.Request{
		RoomType:     roomType,
		Dimensions:   args[1],
		Style:        style,
		Budget:       budget,
		Requirements: required,
	}
	d, err := execmon.Do(cmd.Context(), a.Exec, commands.AgentDesign, "cli_design", len(roomType)+len(args[1]), func(ctx context.Context) (design.Design, error) {
		return a.Design.Generate(ctx, req)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, a.Design.Summary(d))
	return nil
}
