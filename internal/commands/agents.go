package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/buildtall-systems/pidebot/internal/agents/delivery"
	"github.com/buildtall-systems/pidebot/internal/agents/design"
	"github.com/buildtall-systems/pidebot/internal/agents/reservation"
	"github.com/buildtall-systems/pidebot/internal/agents/scaffold"
	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/prompts"
)

func deliveryResult(r delivery.Reply, err error) Result {
	if err != nil {
		return Result{Error: err}
	}
	return Result{Message: r.Text, Action: r.Action}
}

func reservationResult(r reservation.Reply, err error) Result {
	if err != nil {
		return Result{Error: err}
	}
	return Result{Message: r.Text, Action: r.Action}
}

// orderCmd places an order by product id, or hands the text to the
// delivery agent when the first word is not a known dish.
func orderCmd(ctx context.Context, a *app.App, cmd *Command, sender Sender) Result {
	if len(cmd.Args) > 0 {
		if p, ok := a.Restaurants.Product(cmd.Args[0]); ok {
			var method string
			if len(cmd.Args) > 1 {
				method = cmd.Args[1]
			}
			return deliveryResult(a.Delivery.Place(ctx, sender.ID, p.ID, method))
		}
	}
	return deliveryResult(a.Delivery.HandleMessage(ctx, sender.ID, cmd.Raw))
}

func trackCmd(ctx context.Context, a *app.App, cmd *Command, sender Sender) Result {
	return deliveryResult(a.Delivery.Track(ctx, sender.ID, firstWord(cmd.Args)))
}

func cancelCmd(ctx context.Context, a *app.App, cmd *Command, sender Sender) Result {
	return deliveryResult(a.Delivery.CancelOrder(ctx, sender.ID, firstWord(cmd.Args)))
}

func reserveCmd(ctx context.Context, a *app.App, cmd *Command, sender Sender) Result {
	if cmd.Text == "" {
		return Result{Message: a.Prompts.MustRender("reservation_welcome", nil), Action: "welcome"}
	}
	return reservationResult(a.Reservation.HandleMessage(ctx, sender.ID, cmd.Raw))
}

// ParseBudget reads amounts like "2000", "$2000" or "2,000".
func ParseBudget(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, design.ErrInvalidBudget)
	}
	return d, nil
}

// designCmd handles
//
//	design
//	design styles <room> <budget>
//	design <room> <WxL> <budget> [style] [extras...]
func designCmd(ctx context.Context, a *app.App, cmd *Command, _ Sender) Result {
	args := cmd.Args
	if len(args) == 0 {
		msg := a.Prompts.MustRender("design_welcome", nil) + "\n\n" +
			prompts.FormatList(a.Design.RoomTypes(), prompts.Bullet)
		return Result{Message: msg, Action: "welcome"}
	}

	if strings.EqualFold(args[0], "styles") {
		if len(args) < 3 {
			return Result{Error: errors.New("usage: design styles <room> <budget>")}
		}
		budget, err := ParseBudget(args[2])
		if err != nil {
			return Result{Error: err}
		}
		s, err := a.Design.Suggestions(strings.ToLower(args[1]), budget)
		if err != nil {
			return Result{Error: err}
		}
		return Result{Message: a.Design.SuggestionText(s), Action: "style_suggestions"}
	}

	if len(args) < 3 {
		return Result{Error: errors.New("usage: design <room> <WxL> <budget> [style] [extras...]")}
	}
	budget, err := ParseBudget(args[2])
	if err != nil {
		return Result{Error: err}
	}
	req := design.Request{
		RoomType:   strings.ToLower(args[0]),
		Dimensions: args[1],
		Budget:     budget,
	}
	if len(args) > 3 {
		req.Style = strings.ToLower(args[3])
	}
	for _, extra := range args[min(len(args), 4):] {
		req.Requirements = append(req.Requirements, strings.ToLower(extra))
	}

	d, err := a.Design.Generate(ctx, req)
	if err != nil {
		return Result{Error: err}
	}
	return Result{Message: a.Design.Summary(d), Action: "design_proposal"}
}

// scaffoldCmd handles
//
//	scaffold
//	scaffold analyze <spec>
//	scaffold <spec>
func scaffoldCmd(ctx context.Context, a *app.App, cmd *Command, _ Sender) Result {
	if cmd.Text == "" {
		return Result{Message: a.Prompts.MustRender("scaffold_welcome", nil), Action: "welcome"}
	}

	if strings.EqualFold(firstWord(cmd.Args), "analyze") {
		spec := after(cmd.Text)
		if spec == "" {
			return Result{Error: fmt.Errorf("nothing to analyze: %w", scaffold.ErrInvalidSpec)}
		}
		an, err := a.Scaffold.Analyze(spec, scaffold.FormatAuto)
		if err != nil {
			return Result{Error: err}
		}
		return Result{Message: a.Scaffold.AnalysisText(an), Action: "analysis"}
	}

	return generateScaffold(ctx, a, cmd.Text)
}

func generateScaffold(ctx context.Context, a *app.App, spec string) Result {
	g, err := a.Scaffold.Generate(ctx, spec, scaffold.FormatAuto)
	if err != nil {
		return Result{Error: err}
	}
	return Result{Message: a.Scaffold.Summary(g), Action: "scaffold_generated"}
}
