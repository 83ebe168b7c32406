package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/buildtall-systems/pidebot/internal/catalog"
)

func TestManager_Render(t *testing.T) {
	m := NewManager()
	tests := []struct {
		name    string
		id      string
		vars    map[string]any
		want    string
		wantErr error
	}{
		{
			name: "confirmation",
			id:   "delivery_order_confirmation",
			vars: map[string]any{"order_id": "ORD-1", "item": "Ramen", "restaurant": "Sushi Zen", "total": "16.00", "method": "visa-4242", "eta": "19:30"},
			want: "Order ORD-1 confirmed!",
		},
		{
			name: "optional cuisine empty",
			id:   "delivery_restaurant_suggestions",
			vars: map[string]any{"cuisine": "", "restaurant_list": "1. Wok Express"},
			want: "Here are some restaurants:",
		},
		{
			name: "optional cuisine set",
			id:   "delivery_restaurant_suggestions",
			vars: map[string]any{"cuisine": "chinese", "restaurant_list": "1. Wok Express"},
			want: "taste for chinese food",
		},
		{
			name:    "missing variable",
			id:      "delivery_tracking_update",
			vars:    map[string]any{"order_id": "ORD-1"},
			wantErr: ErrMissingVariables,
		},
		{
			name:    "unknown id",
			id:      "nope",
			wantErr: ErrUnknownTemplate,
		},
		{
			name: "no variables",
			id:   "delivery_welcome",
			want: "delivery assistant",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Render(tt.id, tt.vars)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Render() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestManager_MustRenderReportsError(t *testing.T) {
	got := NewManager().MustRender("nope", nil)
	if !strings.HasPrefix(got, "Sorry") {
		t.Errorf("MustRender() = %q", got)
	}
}

func TestManager_Contextual(t *testing.T) {
	m := NewManager()

	got, err := m.Contextual(CategoryReservation, KindWelcome, nil)
	if err != nil {
		t.Fatalf("Contextual() error = %v", err)
	}
	if !strings.Contains(got, "book you a table") {
		t.Errorf("got %q", got)
	}

	// Delivery has no clarification template; falls back to general.
	got, err = m.Contextual(CategoryDelivery, KindClarification, map[string]any{"clarification_points": "• size"})
	if err != nil {
		t.Fatalf("Contextual() fallback error = %v", err)
	}
	if !strings.Contains(got, "• size") {
		t.Errorf("got %q", got)
	}

	if _, err := m.Contextual(CategoryDesign, KindConfirmation, nil); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("err = %v, want ErrUnknownTemplate", err)
	}
}

func TestManager_ContextualPriority(t *testing.T) {
	m := NewManager()
	if err := m.Register(Template{ID: "delivery_welcome_vip", Category: CategoryDelivery, Kind: KindWelcome, Text: "Welcome back!", Priority: 5}); err != nil {
		t.Fatal(err)
	}
	got, err := m.Contextual(CategoryDelivery, KindWelcome, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Welcome back!" {
		t.Errorf("got %q, want the higher priority template", got)
	}
}

func TestManager_RegisterRejectsBadSyntax(t *testing.T) {
	err := NewManager().Register(Template{ID: "bad", Text: "{{.x"})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestManager_SearchAndUsage(t *testing.T) {
	m := NewManager()

	found := m.Search("reservation_id")
	if len(found) != 1 || found[0].ID != "reservation_confirmed" {
		t.Errorf("Search() = %v", found)
	}

	for i := 0; i < 2; i++ {
		m.MustRender("general_help", map[string]any{"commands": "help"})
	}
	m.MustRender("delivery_welcome", nil)

	u := m.Usage()
	if u.Total != 3 {
		t.Errorf("Total = %d, want 3", u.Total)
	}
	if u.MostUsed != "general_help" || u.MostUsedN != 2 {
		t.Errorf("MostUsed = %s (%d)", u.MostUsed, u.MostUsedN)
	}
	if u.ByCategory[CategoryGeneral] != 2 || u.ByKind[KindWelcome] != 1 {
		t.Errorf("ByCategory = %v, ByKind = %v", u.ByCategory, u.ByKind)
	}
	if u.Registered != len(defaultTemplates) {
		t.Errorf("Registered = %d, want %d", u.Registered, len(defaultTemplates))
	}
}

func TestFormatList(t *testing.T) {
	items := []string{"a", "b"}
	tests := []struct {
		style ListStyle
		want  string
	}{
		{Bullet, "• a\n• b"},
		{Numbered, "1. a\n2. b"},
		{Plain, "a\nb"},
	}
	for _, tt := range tests {
		if got := FormatList(items, tt.style); got != tt.want {
			t.Errorf("FormatList(%d) = %q, want %q", tt.style, got, tt.want)
		}
	}
}

func TestFormatRestaurantsAndMenu(t *testing.T) {
	r := catalog.DefaultRestaurants()
	rest, _ := r.ByID(5)

	list := FormatRestaurants([]catalog.Restaurant{rest})
	if list != "1. Sushi Zen (japanese) ★ 4.8, 40 min, premium" {
		t.Errorf("FormatRestaurants() = %q", list)
	}

	menu := FormatMenu(rest.Menu[:1])
	if menu != "• Assorted Sushi - $24.00" {
		t.Errorf("FormatMenu() = %q", menu)
	}
}

func TestFormatFurniture(t *testing.T) {
	got := FormatFurniture([]FurnitureLine{
		{Name: "Dining Chair", Quantity: 4, Total: "320.00"},
		{Name: "Lamp", Quantity: 1},
	})
	want := "• Dining Chair (x4) - $320.00\n• Lamp"
	if got != want {
		t.Errorf("FormatFurniture() = %q, want %q", got, want)
	}
}
