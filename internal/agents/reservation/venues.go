package reservation

import (
	"slices"
	"strings"
	"time"
)

// Hours is one day's opening time. Close may be past midnight.
type Hours struct {
	Open  string
	Close string
}

// Venue is a restaurant that takes table bookings.
type Venue struct {
	ID       string
	Name     string
	Cuisine  string
	Capacity int
	Hours    map[time.Weekday]Hours // missing weekday means closed
	Slots    []string               // bookable start times, HH:MM
}

func (v Venue) OpenOn(d time.Weekday) bool {
	_, ok := v.Hours[d]
	return ok
}

func (v Venue) OffersSlot(slot string) bool {
	return slices.Contains(v.Slots, slot)
}

func week(open, close string, except ...time.Weekday) map[time.Weekday]Hours {
	h := make(map[time.Weekday]Hours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !slices.Contains(except, d) {
			h[d] = Hours{Open: open, Close: close}
		}
	}
	return h
}

// DefaultVenues returns the demo restaurants.
func DefaultVenues() []Venue {
	bella := week("12:00", "23:00")
	bella[time.Friday] = Hours{"12:00", "24:00"}
	bella[time.Saturday] = Hours{"12:00", "24:00"}
	bella[time.Sunday] = Hours{"12:00", "22:00"}

	sakura := week("18:00", "23:00")
	sakura[time.Friday] = Hours{"18:00", "24:00"}
	sakura[time.Saturday] = Hours{"18:00", "24:00"}
	sakura[time.Sunday] = Hours{"18:00", "22:00"}

	asador := week("19:00", "24:00", time.Sunday)
	asador[time.Friday] = Hours{"19:00", "02:00"}
	asador[time.Saturday] = Hours{"19:00", "02:00"}

	return []Venue{
		{
			ID: "resto_1", Name: "La Bella Italiana", Cuisine: "italian", Capacity: 50, Hours: bella,
			Slots: []string{"12:00", "12:30", "13:00", "13:30", "14:00", "19:00", "19:30", "20:00", "20:30", "21:00", "21:30"},
		},
		{
			ID: "resto_2", Name: "Sakura Sushi", Cuisine: "japanese", Capacity: 30, Hours: sakura,
			Slots: []string{"18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00", "21:30"},
		},
		{
			ID: "resto_3", Name: "El Asador Criollo", Cuisine: "argentinian", Capacity: 80, Hours: asador,
			Slots: []string{"19:00", "19:30", "20:00", "20:30", "21:00", "21:30", "22:00", "22:30"},
		},
	}
}

// mentioned finds the venue one of whose longer name words appears in text.
func mentioned(venues []Venue, text string) (Venue, bool) {
	t := strings.ToLower(text)
	for _, v := range venues {
		for _, w := range strings.Fields(strings.ToLower(v.Name)) {
			if len(w) > 3 && strings.Contains(t, w) {
				return v, true
			}
		}
	}
	return Venue{}, false
}
