package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildtall-systems/pidebot/internal/agents/scaffold"
	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/config"
	"github.com/buildtall-systems/pidebot/internal/execmon"
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold [spec-file]",
	Short: "Generate a Go REST API from a specification",
	Long: `Read an API specification (text, YAML or JSON) from a file or stdin and
generate a chi + database/sql service for it. Without --out the generated
files are printed.`,
	Example: `  pidebot scaffold users.yaml --out ./users-api
  pidebot scaffold --analyze < spec.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScaffold,
}

func init() {
	scaffoldCmd.Flags().String("format", "", "text, yaml or json (default: detect)")
	scaffoldCmd.Flags().Bool("analyze", false, "estimate the effort instead of generating")
	scaffoldCmd.Flags().String("out", "", "directory to write the generated files to")
	rootCmd.AddCommand(scaffoldCmd)
}

func runScaffold(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) == 1 {
		name = args[0]
	}
	spec, err := stdinOrFile(cmd, name)
	if err != nil {
		return fmt.Errorf("reading spec: %w", err)
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := scaffold.ParseFormat(formatFlag)
	if err != nil {
		return err
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

	out := cmd.OutOrStdout()
	if analyze, _ := cmd.Flags().GetBool("analyze"); analyze {
		an, err := a.Scaffold.Analyze(spec, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, a.Scaffold.AnalysisText(an))
		return nil
	}

	g, err := execmon.Do(cmd.Context(), a.Exec, commands.AgentScaffold, "cli_scaffold", len(spec), func(ctx context.Context) (scaffold.Generation, error) {
		return a.Scaffold.Generate(ctx, spec, format)
	})
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("out")
	if dir == "" {
		for _, f := range g.FileNames() {
			fmt.Fprintf(out, "// ---- %s ----\n%s\n", f, g.Files[f])
		}
		return nil
	}
	paths, err := scaffold.WriteFiles(dir, g)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, a.Scaffold.Summary(g))
	for _, p := range paths {
		fmt.Fprintf(out, "  wrote %s\n", p)
	}
	return nil
}
