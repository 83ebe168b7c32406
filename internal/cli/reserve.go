package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/buildtall-systems/pidebot/internal/agents/reservation"
	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/config"
	"github.com/buildtall-systems/pidebot/internal/execmon"
	"github.com/buildtall-systems/pidebot/internal/prompts"
)

var reserveCmd = &cobra.Command{
	Use:   "reserve [message...]",
	Short: "Book a restaurant table",
	Long: `Book a table either from a free text request or from flags. Any
detail the request lacks is listed instead of booking.`,
	Example: `  pidebot reserve book a table at Sakura Sushi tomorrow at 20:00 for 4
  pidebot reserve --venue resto_1 --date 2026-11-02 --time 20:00 --party 2
  pidebot reserve --venues`,
	RunE: runReserve,
}

func init() {
	reserveCmd.Flags().String("customer", "cli", "name the booking is held under")
	reserveCmd.Flags().String("venue", "", "restaurant id, e.g. resto_1")
	reserveCmd.Flags().String("date", "", "date as YYYY-MM-DD")
	reserveCmd.Flags().String("time", "", "time as HH:MM")
	reserveCmd.Flags().Int("party", 0, "number of guests")
	reserveCmd.Flags().StringSlice("request", nil, "special requests")
	reserveCmd.Flags().Bool("venues", false, "list bookable restaurants")
	rootCmd.AddCommand(reserveCmd)
}

func runReserve(cmd *cobra.Command, args []string) error {
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
	if list, _ := cmd.Flags().GetBool("venues"); list {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCUISINE\tCAPACITY\tSLOTS")
		for _, v := range a.Reservation.Venues() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", v.ID, v.Name, v.Cuisine, v.Capacity, strings.Join(v.Slots, " "))
		}
		return tw.Flush()
	}

	customer, _ := cmd.Flags().GetString("customer")
	text := strings.Join(args, " ")
	req := reservation.Request{}
	req.VenueID, _ = cmd.Flags().GetString("venue")
	req.Date, _ = cmd.Flags().GetString("date")
	req.Time, _ = cmd.Flags().GetString("time")
	req.PartySize, _ = cmd.Flags().GetInt("party")
	req.Special, _ = cmd.Flags().GetStringSlice("request")

	reply, err := execmon.Do(cmd.Context(), a.Exec, commands.AgentReservation, "cli_reservation", len(text), func(ctx context.Context) (reservation.Reply, error) {
		if text != "" {
			return a.Reservation.HandleMessage(ctx, customer, text)
		}
		if missing := req.Missing(); len(missing) > 0 {
			msg := a.Prompts.MustRender("reservation_missing_info", map[string]any{
				"missing_fields_list": prompts.FormatList(missing, prompts.Bullet),
			})
			return reservation.Reply{Text: msg, Action: "request_info", Request: req, Missing: missing}, nil
		}
		return a.Reservation.Book(ctx, customer, req)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply.Text)
	return nil
}
