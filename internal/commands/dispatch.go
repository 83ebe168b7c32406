package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/execmon"
	"github.com/buildtall-systems/pidebot/internal/prompts"
)

// Result holds the response from a command execution.
type Result struct {
	Message string
	Error   error
	Agent   string // agent that answered, "system" for built-ins
	Action  string
}

// Agent names recorded with every execution.
const (
	AgentDelivery    = "delivery"
	AgentReservation = "reservation"
	AgentDesign      = "design"
	AgentScaffold    = "scaffold"
	AgentSystem      = "system"
)

type handler func(ctx context.Context, a *app.App, cmd *Command, sender Sender) Result

var handlers = map[string]struct {
	agent string
	run   handler
}{
	CmdHelp:     {AgentSystem, helpCmd},
	CmdOrder:    {AgentDelivery, orderCmd},
	CmdTrack:    {AgentDelivery, trackCmd},
	CmdCancel:   {AgentDelivery, cancelCmd},
	CmdReserve:  {AgentReservation, reserveCmd},
	CmdDesign:   {AgentDesign, designCmd},
	CmdScaffold: {AgentScaffold, scaffoldCmd},
	CmdStatus:   {AgentSystem, statusCmd},
	CmdStats:    {AgentSystem, statsCmd},
}

// Execute runs the command and returns a result. Every run is recorded by
// the execution monitor under the agent that handles it.
func Execute(ctx context.Context, a *app.App, cmd *Command, sender Sender) Result {
	if err := CanExecute(cmd, sender); err != nil {
		return Result{Error: err, Agent: AgentSystem, Action: "denied"}
	}

	agent, run := AgentSystem, handler(helpCmd)
	if h, ok := handlers[cmd.Name]; ok {
		agent, run = h.agent, h.run
	} else if cmd.Name == CmdChat {
		agent, run = Route(cmd.Raw), chatCmd
	}

	res, _ := execmon.Do(ctx, a.Exec, agent, cmd.Name, len(cmd.Raw), func(ctx context.Context) (Result, error) {
		r := run(ctx, a, cmd, sender)
		return r, r.Error
	})
	if res.Agent == "" {
		res.Agent = agent
	}
	return res
}

// ErrorText renders a failed result for the customer.
func ErrorText(a *app.App, err error) string {
	if errors.Is(err, ErrAdminOnly) {
		return "Sorry, that command is for admins only."
	}
	return a.Prompts.MustRender("general_error", map[string]any{"error_message": err.Error()})
}

func helpCmd(_ context.Context, a *app.App, _ *Command, sender Sender) Result {
	lines := []string{
		"order <product-id> [method] - Order a dish (or describe what you want)",
		"track [ORD-...] - Where is my order",
		"cancel [ORD-...] - Cancel an active order",
		"reserve <restaurant, date, time, party> - Book a table",
		"design <room> <WxL> <budget> [style] [extras...] - Furnish a room",
		"design styles <room> <budget> - Compare styles for a room",
		"scaffold [analyze] <API description> - Generate a Go REST service",
		"help - Show this message",
	}
	if sender.Admin {
		lines = append(lines,
			"status - Active orders being monitored",
			"stats - Execution and order figures for the last day",
		)
	}
	return Result{
		Message: a.Prompts.MustRender("general_help", map[string]any{"commands": prompts.FormatList(lines, prompts.Bullet)}),
		Action:  "help",
	}
}

func unknownText(a *app.App) string {
	return a.Prompts.MustRender("general_clarification", map[string]any{
		"clarification_points": prompts.FormatList([]string{
			"Food delivery: \"I want Italian food\"",
			"Table booking: \"Book a table at Sakura Sushi tomorrow at 20:00 for 2\"",
			"Room design: \"design dining_room 4x4 2000 modern\"",
			"API scaffolding: \"scaffold\" followed by your models and endpoints",
		}, prompts.Bullet),
	})
}

func firstWord(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// after returns text with its first word removed.
func after(text string) string {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}
