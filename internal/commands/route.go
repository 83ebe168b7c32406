package commands

import (
	"context"
	"regexp"

	"github.com/buildtall-systems/pidebot/internal/agents/delivery"
	"github.com/buildtall-systems/pidebot/internal/agents/design"
	"github.com/buildtall-systems/pidebot/internal/agents/reservation"
	"github.com/buildtall-systems/pidebot/internal/agents/scaffold"
	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/prompts"
)

var reservationCode = regexp.MustCompile(`(?i)\bRES-\d{4,}\b`)

// Route picks the agent for a free-text message.
//
// Order references and menu questions stay with delivery even when they
// mention a table; booking words beat generic food words, and design words
// beat "I want" style ordering phrases.
func Route(text string) string {
	if scaffold.IsScaffold(text) {
		return AgentScaffold
	}
	if reservationCode.MatchString(text) {
		return AgentReservation
	}
	intent := delivery.Classify(text)
	switch intent {
	case delivery.IntentTrack, delivery.IntentCancel, delivery.IntentMenu:
		return AgentDelivery
	}
	if reservation.IsReservation(text) {
		return AgentReservation
	}
	if design.IsDesign(text) {
		return AgentDesign
	}
	if intent != delivery.IntentUnknown {
		return AgentDelivery
	}
	return AgentSystem
}

func chatCmd(ctx context.Context, a *app.App, cmd *Command, sender Sender) Result {
	switch Route(cmd.Raw) {
	case AgentScaffold:
		return generateScaffold(ctx, a, cmd.Raw)
	case AgentReservation:
		return reservationResult(a.Reservation.HandleMessage(ctx, sender.ID, cmd.Raw))
	case AgentDelivery:
		return deliveryResult(a.Delivery.HandleMessage(ctx, sender.ID, cmd.Raw))
	case AgentDesign:
		msg := a.Prompts.MustRender("design_welcome", nil) + "\n\n" +
			"Send: design <room> <WxL> <budget> [style]\nRooms:\n" +
			prompts.FormatList(a.Design.RoomTypes(), prompts.Bullet)
		return Result{Message: msg, Action: "welcome"}
	}
	return Result{Message: unknownText(a), Action: "clarify"}
}
