package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/config"
)

// consoleSender is the local operator; the terminal grants admin commands.
var consoleSender = commands.Sender{ID: "console", Admin: true}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the agents from the terminal",
	Long: `Start an interactive session with the same commands the Nostr bot
understands. End a line with \ to continue it on the next line, which is
handy for scaffold specs. Type quit or press Ctrl-D to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	out := cmd.OutOrStdout()
	a, err := newApp(cfg, out)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return chat(gctx, a, cmd.InOrStdin(), out, useColor())
	})
	return g.Wait()
}

// chat reads messages from in until EOF, quit or ctx ends, and writes each
// agent's answer to out.
func chat(ctx context.Context, a *app.App, in io.Reader, out io.Writer, color bool) error {
	au := aurora.NewAurora(color)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprintln(out, au.Bold("pidebot"), "- type help for commands, quit to leave")

	var pending []string
	for {
		if len(pending) == 0 {
			fmt.Fprint(out, au.Bold(au.Green("you> ")))
		} else {
			fmt.Fprint(out, au.Green("...> "))
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = l
		}

		if cont, ok := strings.CutSuffix(line, `\`); ok {
			pending = append(pending, cont)
			continue
		}
		text := strings.Join(append(pending, line), "\n")
		pending = nil

		switch strings.ToLower(strings.TrimSpace(text)) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		cmd := commands.Parse(text)
		if cmd == nil {
			continue
		}
		res := commands.Execute(ctx, a, cmd, consoleSender)
		tag := au.Cyan("[" + res.Agent + "]")
		if res.Error != nil {
			fmt.Fprintf(out, "%s %s\n", tag, au.Red(commands.ErrorText(a, res.Error)))
			fmt.Fprintf(out, "%s\n", au.Gray(12, res.Error.Error()))
			continue
		}
		fmt.Fprintf(out, "%s %s\n", tag, res.Message)
	}
}

// stdinOrFile returns the named file's contents, or stdin when name is empty
// or "-".
func stdinOrFile(cmd *cobra.Command, name string) (string, error) {
	if name == "" || name == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(name)
	return string(b), err
}
