// Package catalog holds the in-memory restaurant and furniture data the
// agents work from.
package catalog

import (
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type PriceBand string

const (
	PriceBudget  PriceBand = "budget"
	PriceMid     PriceBand = "mid"
	PricePremium PriceBand = "premium"
)

// Product is a dish on a restaurant menu.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Vendor string
}

type Restaurant struct {
	ID              int
	Name            string
	Cuisines        []string
	Price           PriceBand
	Rating          float64
	DeliveryMinutes int
	Zone            string
	Menu            []Product
}

// RestaurantFilter narrows Restaurants.Filter. Zero fields match anything.
type RestaurantFilter struct {
	Cuisine            string
	Price              PriceBand
	MaxDeliveryMinutes int
	MinRating          float64
}

func (f RestaurantFilter) IsZero() bool {
	return f == RestaurantFilter{}
}

type Restaurants struct {
	list []Restaurant
}

func NewRestaurants(list []Restaurant) *Restaurants {
	return &Restaurants{list: list}
}

func dish(id, name, price, vendor string) Product {
	return Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Vendor: vendor}
}

// DefaultRestaurants returns the demo delivery catalog.
func DefaultRestaurants() *Restaurants {
	return NewRestaurants([]Restaurant{
		{
			ID: 1, Name: "Pizza Italiana Deluxe", Cuisines: []string{"italian"},
			Price: PriceMid, Rating: 4.5, DeliveryMinutes: 30, Zone: "Center",
			Menu: []Product{
				dish("pid-margherita", "Pizza Margherita", "12.50", "Pizza Italiana Deluxe"),
				dish("pid-carbonara", "Pasta Carbonara", "13.00", "Pizza Italiana Deluxe"),
				dish("pid-lasagna", "Lasagna", "14.50", "Pizza Italiana Deluxe"),
			},
		},
		{
			ID: 2, Name: "Wok Express", Cuisines: []string{"chinese"},
			Price: PriceBudget, Rating: 4.0, DeliveryMinutes: 25, Zone: "North",
			Menu: []Product{
				dish("wok-fried-rice", "Fried Rice", "7.00", "Wok Express"),
				dish("wok-sweet-sour", "Sweet and Sour Chicken", "8.50", "Wok Express"),
				dish("wok-chow-mein", "Chow Mein", "7.50", "Wok Express"),
			},
		},
		{
			ID: 3, Name: "Tacos El Mariachi", Cuisines: []string{"mexican"},
			Price: PriceBudget, Rating: 4.3, DeliveryMinutes: 20, Zone: "South",
			Menu: []Product{
				dish("tem-pastor", "Tacos al Pastor", "6.50", "Tacos El Mariachi"),
				dish("tem-quesadillas", "Quesadillas", "6.00", "Tacos El Mariachi"),
				dish("tem-burritos", "Burritos", "8.00", "Tacos El Mariachi"),
			},
		},
		{
			ID: 4, Name: "Green Garden", Cuisines: []string{"vegetarian"},
			Price: PriceMid, Rating: 4.7, DeliveryMinutes: 35, Zone: "Center",
			Menu: []Product{
				dish("gg-buddha", "Buddha Bowl", "11.00", "Green Garden"),
				dish("gg-caesar", "Vegan Caesar Salad", "9.50", "Green Garden"),
				dish("gg-quinoa", "Quinoa Burger", "10.50", "Green Garden"),
			},
		},
		{
			ID: 5, Name: "Sushi Zen", Cuisines: []string{"japanese"},
			Price: PricePremium, Rating: 4.8, DeliveryMinutes: 40, Zone: "North",
			Menu: []Product{
				dish("sz-sushi", "Assorted Sushi", "24.00", "Sushi Zen"),
				dish("sz-ramen", "Ramen", "16.00", "Sushi Zen"),
				dish("sz-tempura", "Tempura", "15.00", "Sushi Zen"),
			},
		},
	})
}

// All returns every restaurant in catalog order.
func (r *Restaurants) All() []Restaurant {
	out := make([]Restaurant, len(r.list))
	copy(out, r.list)
	return out
}

func (r *Restaurants) Filter(f RestaurantFilter) []Restaurant {
	var out []Restaurant
	for _, rest := range r.list {
		if f.Price != "" && rest.Price != f.Price {
			continue
		}
		if f.Cuisine != "" && !slices.Contains(rest.Cuisines, f.Cuisine) {
			continue
		}
		if f.MaxDeliveryMinutes > 0 && rest.DeliveryMinutes > f.MaxDeliveryMinutes {
			continue
		}
		if f.MinRating > 0 && rest.Rating < f.MinRating {
			continue
		}
		out = append(out, rest)
	}
	return out
}

// TopRated sorts by rating, highest first, and keeps at most n.
func TopRated(list []Restaurant, n int) []Restaurant {
	out := make([]Restaurant, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ByID looks a restaurant up by its numeric id.
func (r *Restaurants) ByID(id int) (Restaurant, bool) {
	for _, rest := range r.list {
		if rest.ID == id {
			return rest, true
		}
	}
	return Restaurant{}, false
}

// Mentioned returns the first restaurant one of whose name words appears in
// text.
func (r *Restaurants) Mentioned(text string) (Restaurant, bool) {
	text = strings.ToLower(text)
	for _, rest := range r.list {
		for _, w := range strings.Fields(strings.ToLower(rest.Name)) {
			if len(w) > 2 && strings.Contains(text, w) {
				return rest, true
			}
		}
	}
	return Restaurant{}, false
}

// Search finds dishes whose name appears in query, or that contain query.
// vendor, when set, restricts results to restaurants whose name contains it.
func (r *Restaurants) Search(query, vendor string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	v := strings.ToLower(strings.TrimSpace(vendor))
	if q == "" {
		return nil
	}
	var out []Product
	for _, rest := range r.list {
		if v != "" && !strings.Contains(strings.ToLower(rest.Name), v) {
			continue
		}
		for _, p := range rest.Menu {
			name := strings.ToLower(p.Name)
			if strings.Contains(q, name) || strings.Contains(name, q) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Product looks a dish up by id.
func (r *Restaurants) Product(id string) (Product, bool) {
	for _, rest := range r.list {
		for _, p := range rest.Menu {
			if p.ID == id {
				return p, true
			}
		}
	}
	return Product{}, false
}

// PopularDishes takes the first two dishes of each restaurant, at most limit.
func (r *Restaurants) PopularDishes(limit int) []Product {
	var out []Product
	for _, rest := range r.list {
		n := 2
		if len(rest.Menu) < n {
			n = len(rest.Menu)
		}
		out = append(out, rest.Menu[:n]...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
