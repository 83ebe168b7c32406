// Package reservation books restaurant tables from chat messages.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/buildtall-systems/pidebot/internal/db"
	"github.com/buildtall-systems/pidebot/internal/prompts"
)

var (
	ErrUnknownVenue = errors.New("unknown restaurant")
	ErrInvalidDate  = errors.New("invalid date")
)

var codeRe = regexp.MustCompile(`(?i)\bRES-\d{4,}\b`)

var bookingKeywords = []string{
	"reserve", "reservation", "book a table", "book", "table for",
	"reservar", "reserva", "mesa",
}

// IsReservation reports whether text looks like a booking request.
func IsReservation(text string) bool {
	t := strings.ToLower(text)
	if codeRe.MatchString(text) {
		return true
	}
	for _, k := range bookingKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

type Store interface {
	BookedSeats(ctx context.Context, restaurantID, date, slot string) (int, error)
	CreateReservation(ctx context.Context, r db.Reservation, capacity int) (*db.Reservation, error)
	GetReservation(ctx context.Context, code string) (*db.Reservation, error)
	CustomerReservations(ctx context.Context, customer string) ([]db.Reservation, error)
}

type Options struct {
	Venues []Venue
	Now    func() time.Time
}

// Reply is the agent's answer to one message.
type Reply struct {
	Text         string
	Action       string
	Request      Request
	Missing      []string
	Alternatives []string
	Reservation  *db.Reservation
}

// Availability explains whether a slot can seat a party.
type Availability struct {
	OK     bool
	Free   int
	Reason string
}

type Agent struct {
	venues  []Venue
	store   Store
	prompts *prompts.Manager
	now     func() time.Time
}

func New(store Store, pm *prompts.Manager, opts Options) *Agent {
	if opts.Venues == nil {
		opts.Venues = DefaultVenues()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if pm == nil {
		pm = prompts.NewManager()
	}
	return &Agent{venues: opts.Venues, store: store, prompts: pm, now: opts.Now}
}

func (a *Agent) Venues() []Venue {
	out := make([]Venue, len(a.venues))
	copy(out, a.venues)
	return out
}

func (a *Agent) Venue(id string) (Venue, bool) {
	for _, v := range a.venues {
		if v.ID == id {
			return v, true
		}
	}
	return Venue{}, false
}

// HandleMessage answers a booking message.
func (a *Agent) HandleMessage(ctx context.Context, customer, text string) (Reply, error) {
	if code := codeRe.FindString(text); code != "" {
		return a.lookup(ctx, customer, strings.ToUpper(code))
	}

	req := Extract(text, a.now(), a.venues)
	if missing := req.Missing(); len(missing) > 0 {
		return Reply{
			Text:    a.prompts.MustRender("reservation_missing_info", map[string]any{"missing_fields_list": prompts.FormatList(missing, prompts.Bullet)}),
			Action:  "request_info",
			Request: req,
			Missing: missing,
		}, nil
	}
	return a.Book(ctx, customer, req)
}

// Check reports whether venue can seat party at date and slot.
func (a *Agent) Check(ctx context.Context, venueID, date, slot string, party int) (Availability, error) {
	v, ok := a.Venue(venueID)
	if !ok {
		return Availability{}, fmt.Errorf("%s: %w", venueID, ErrUnknownVenue)
	}
	day, err := time.ParseInLocation(DateLayout, date, a.now().Location())
	if err != nil {
		return Availability{}, fmt.Errorf("%s: %w", date, ErrInvalidDate)
	}
	today := a.now()
	if day.Before(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())) {
		return Availability{Reason: "That date is in the past."}, nil
	}
	if !v.OpenOn(day.Weekday()) {
		return Availability{Reason: fmt.Sprintf("%s is closed on %ss.", v.Name, day.Weekday())}, nil
	}
	if !v.OffersSlot(slot) {
		return Availability{Reason: fmt.Sprintf("%s does not take bookings at %s.", v.Name, slot)}, nil
	}

	booked, err := a.store.BookedSeats(ctx, v.ID, date, slot)
	if err != nil {
		return Availability{}, err
	}
	free := v.Capacity - booked
	if free < party {
		return Availability{Free: free, Reason: fmt.Sprintf("Only %d seats are left at that time.", max(free, 0))}, nil
	}
	return Availability{OK: true, Free: free}, nil
}

// Alternatives lists the slots on date that can still seat party.
func (a *Agent) Alternatives(ctx context.Context, venueID, date string, party int) ([]string, error) {
	v, ok := a.Venue(venueID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", venueID, ErrUnknownVenue)
	}
	var out []string
	for _, slot := range v.Slots {
		av, err := a.Check(ctx, venueID, date, slot, party)
		if err != nil {
			return nil, err
		}
		if av.OK {
			out = append(out, slot)
		}
	}
	return out, nil
}

// Book reserves a table, or explains why not and offers other times.
func (a *Agent) Book(ctx context.Context, customer string, req Request) (Reply, error) {
	v, ok := a.Venue(req.VenueID)
	if !ok {
		return Reply{}, fmt.Errorf("%s: %w", req.VenueID, ErrUnknownVenue)
	}

	av, err := a.Check(ctx, v.ID, req.Date, req.Time, req.PartySize)
	if err != nil {
		return Reply{}, err
	}
	if av.OK {
		res, err := a.store.CreateReservation(ctx, db.Reservation{
			Customer:     customer,
			RestaurantID: v.ID,
			Date:         req.Date,
			Slot:         req.Time,
			PartySize:    req.PartySize,
			Requests:     strings.Join(req.Special, ","),
		}, v.Capacity)
		switch {
		case errors.Is(err, db.ErrNoCapacity):
			// Someone else took the seats between check and insert.
			av = Availability{Reason: "Those seats were just taken."}
		case err != nil:
			return Reply{}, err
		default:
			log.Printf("reservation: %s booked %s for %d at %s %s", customer, v.Name, req.PartySize, req.Date, req.Time)
			return Reply{
				Text:        a.confirmation(v, res),
				Action:      "reservation_confirmed",
				Request:     req,
				Reservation: res,
			}, nil
		}
	}

	alts, err := a.Alternatives(ctx, v.ID, req.Date, req.PartySize)
	if err != nil {
		return Reply{}, err
	}
	if len(alts) > 0 {
		return Reply{
			Text: av.Reason + "\n\n" + a.prompts.MustRender("reservation_alternatives", map[string]any{
				"restaurant_name":   v.Name,
				"party_size":        req.PartySize,
				"date":              req.Date,
				"alternative_times": prompts.FormatList(alts, prompts.Bullet),
			}),
			Action:       "show_alternatives",
			Request:      req,
			Alternatives: alts,
		}, nil
	}
	return Reply{
		Text: a.prompts.MustRender("reservation_no_availability", map[string]any{
			"restaurant_name": v.Name,
			"party_size":      req.PartySize,
			"date":            req.Date,
			"time":            req.Time,
			"reason":          av.Reason + " Would you like to try another date?",
		}),
		Action:  "no_availability",
		Request: req,
	}, nil
}

func (a *Agent) confirmation(v Venue, r *db.Reservation) string {
	return a.prompts.MustRender("reservation_confirmed", map[string]any{
		"restaurant_name":  v.Name,
		"party_size":       r.PartySize,
		"date":             r.Date,
		"time":             r.Slot,
		"reservation_id":   r.Code(),
		"special_requests": strings.ReplaceAll(r.Requests, ",", ", "),
	})
}

// lookup answers with a reservation held by customer. Bookings held by
// someone else are reported as not found.
func (a *Agent) lookup(ctx context.Context, customer, code string) (Reply, error) {
	r, err := a.store.GetReservation(ctx, code)
	if err == nil && customer != "" && r.Customer != customer {
		err = db.ErrReservationNotFound
	}
	if errors.Is(err, db.ErrReservationNotFound) {
		return Reply{Text: fmt.Sprintf("I couldn't find reservation %s.", code), Action: "reservation_not_found"}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	v, _ := a.Venue(r.RestaurantID)
	return Reply{Text: a.confirmation(v, r), Action: "show_reservation", Reservation: r}, nil
}

// Reservations lists a customer's bookings, newest first.
func (a *Agent) Reservations(ctx context.Context, customer string) ([]db.Reservation, error) {
	return a.store.CustomerReservations(ctx, customer)
}
