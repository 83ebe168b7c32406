package delivery

import (
	"strings"

	"github.com/buildtall-systems/pidebot/internal/catalog"
)

// Intent is what a customer message asks for.
type Intent string

const (
	IntentNewOrder Intent = "new_order"
	IntentTrack    Intent = "track_order"
	IntentCancel   Intent = "cancel_order"
	IntentSearch   Intent = "restaurant_search"
	IntentMenu     Intent = "menu_inquiry"
	IntentUnknown  Intent = "unknown"
)

type vocabulary struct {
	intent   Intent
	keywords []string
}

// Checked in order; the first vocabulary with a hit wins.
var intents = []vocabulary{
	{IntentCancel, []string{"cancel", "cancelar", "anular"}},
	{IntentTrack, []string{"track", "where is", "where's", "status", "seguimiento", "dónde", "donde está", "estado"}},
	{IntentMenu, []string{"menu", "menú", "carta", "dishes", "what do they have", "que tienen", "platillos", "opciones"}},
	{IntentSearch, []string{"restaurant", "restaurante", "find", "search", "recommend", "suggest", "buscar", "encontrar", "recomendar", "sugerir"}},
	{IntentNewOrder, []string{"order", "hungry", "deliver", "i want", "i'd like", "pedir", "ordenar", "quiero", "entrega", "comida", "delivery"}},
}

// Classify maps a message to an intent by keyword.
func Classify(text string) Intent {
	t := strings.ToLower(text)
	if orderRef.MatchString(text) && !containsAny(t, intents[0].keywords) {
		return IntentTrack
	}
	for _, v := range intents {
		if containsAny(t, v.keywords) {
			return v.intent
		}
	}
	return IntentUnknown
}

// IsDelivery reports whether text is something this agent handles.
func IsDelivery(text string) bool {
	return Classify(text) != IntentUnknown
}

var cuisines = []struct {
	name     string
	keywords []string
}{
	{"italian", []string{"italian", "italiana", "italiano", "pizza", "pasta"}},
	{"chinese", []string{"chinese", "china", "chino", "wok", "fried rice", "arroz frito"}},
	{"mexican", []string{"mexican", "mexicana", "mexicano", "tacos", "burrito"}},
	{"vegetarian", []string{"vegetarian", "vegan", "vegetariana", "vegana", "vegetariano", "vegano"}},
	{"japanese", []string{"japanese", "japonesa", "japonés", "sushi", "ramen"}},
}

// Preferences extracts a restaurant filter from free text.
func Preferences(text string) catalog.RestaurantFilter {
	t := strings.ToLower(text)
	var f catalog.RestaurantFilter

	for _, c := range cuisines {
		if containsAny(t, c.keywords) {
			f.Cuisine = c.name
			break
		}
	}

	switch {
	case containsAny(t, []string{"cheap", "budget", "affordable", "barato", "económico", "economico"}):
		f.Price = catalog.PriceBudget
	case containsAny(t, []string{"expensive", "premium", "fancy", "caro", "elegante", "fino"}):
		f.Price = catalog.PricePremium
	case containsAny(t, []string{"mid-range", "moderate", "medio", "moderado"}):
		f.Price = catalog.PriceMid
	}

	switch {
	case containsAny(t, []string{"fast", "quick", "urgent", "asap", "rápido", "rapido", "urgente", "pronto"}):
		f.MaxDeliveryMinutes = 25
	case containsAny(t, []string{"no rush", "whenever", "sin prisa", "cuando pueda"}):
		f.MaxDeliveryMinutes = 60
	}

	switch {
	case containsAny(t, []string{"best", "excellent", "top rated", "mejor", "excelente"}):
		f.MinRating = 4.5
	case containsAny(t, []string{"good", "recommended", "bueno", "recomendado"}):
		f.MinRating = 4.0
	}
	return f
}

func describe(f catalog.RestaurantFilter) string {
	var parts []string
	if f.Cuisine != "" {
		parts = append(parts, f.Cuisine+" food")
	}
	if f.Price != "" {
		parts = append(parts, string(f.Price)+" prices")
	}
	if f.MaxDeliveryMinutes > 0 {
		parts = append(parts, "fast delivery")
	}
	if f.MinRating > 0 {
		parts = append(parts, "a high rating")
	}
	if len(parts) == 0 {
		return "your request"
	}
	return strings.Join(parts, ", ")
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
