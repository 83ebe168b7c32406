package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/buildtall-systems/pidebot/internal/prompts"
)

const shopSpec = `api: Shop API
description: Orders and customers
version: 2.0.0

model: Customer
- name: string required
- email: email unique
- phone: phone optional

model: Order
- customer: Customer required
- total: decimal
- placed_at: datetime

endpoint: list customers
endpoint: create order
endpoint: GET /reports/daily
- parameter: day
`

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	return New(prompts.NewManager(), Options{Now: func() time.Time { return now }})
}

func TestParseNatural(t *testing.T) {
	api, err := Parse(shopSpec, FormatAuto)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if api.Title != "Shop API" || api.Version != "2.0.0" || api.Description != "Orders and customers" {
		t.Errorf("api info = %q %q %q", api.Title, api.Version, api.Description)
	}
	if len(api.Models) != 2 {
		t.Fatalf("models = %d, want 2", len(api.Models))
	}

	customer := api.Models[0]
	wantFields := []Field{
		{Name: "name", Type: TypeString, Required: true},
		{Name: "email", Type: TypeEmail, Required: true, Unique: true},
		{Name: "phone", Type: TypePhone, Required: false},
	}
	if len(customer.Fields) != len(wantFields) {
		t.Fatalf("customer fields = %+v", customer.Fields)
	}
	for i, want := range wantFields {
		if customer.Fields[i] != want {
			t.Errorf("field %d = %+v, want %+v", i, customer.Fields[i], want)
		}
	}

	order := api.Models[1]
	if got := order.Fields[0]; got.Ref != "Customer" || got.Type != TypeInteger {
		t.Errorf("customer reference = %+v", got)
	}
	if order.Fields[1].Type != TypeFloat || order.Fields[2].Type != TypeDateTime {
		t.Errorf("order field types = %s, %s", order.Fields[1].Type, order.Fields[2].Type)
	}
	if len(order.Relationships) != 1 || order.Relationships[0] != "Customer" {
		t.Errorf("relationships = %v", order.Relationships)
	}

	wantEndpoints := []struct{ name, method, route string }{
		{"get_customer", "get", "/customers"},
		{"post_order", "post", "/orders"},
		{"get_daily", "get", "/reports/daily"},
	}
	if len(api.Endpoints) != len(wantEndpoints) {
		t.Fatalf("endpoints = %+v", api.Endpoints)
	}
	for i, want := range wantEndpoints {
		e := api.Endpoints[i]
		if e.Name != want.name || e.Method != want.method || e.Route != want.route {
			t.Errorf("endpoint %d = %s %s %s, want %s %s %s", i, e.Name, e.Method, e.Route, want.name, want.method, want.route)
		}
	}
	if p := api.Endpoints[2].Params; len(p) != 1 || p[0] != "day" {
		t.Errorf("params = %v", p)
	}
}

func TestParseSpanishEndpoint(t *testing.T) {
	api, err := Parse("aplicación: Tienda\nmodelo: Producto\n- nombre: texto obligatorio\n- precio: decimal\nruta: eliminar producto", FormatNatural)
	if err != nil {
		t.Fatal(err)
	}
	if api.Title != "Tienda" || len(api.Models) != 1 {
		t.Fatalf("api = %+v", api)
	}
	e := api.Endpoints[0]
	if e.Method != "delete" || e.Route != "/productos/{id}" {
		t.Errorf("endpoint = %+v", e)
	}
}

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		format Format
		check  func(t *testing.T, api API)
	}{
		{
			name:   "json",
			format: FormatAuto,
			text: `{"api_info":{"title":"Todo"},
				"models":[{"name":"Task","fields":[{"name":"title","type":"string"},{"name":"done","type":"bool","required":false}]}],
				"endpoints":[{"method":"post","route":"/tasks/{id}/complete"}]}`,
			check: func(t *testing.T, api API) {
				if api.Title != "Todo" || api.Version != "1.0.0" {
					t.Errorf("info = %q %q", api.Title, api.Version)
				}
				f := api.Models[0].Fields
				if !f[0].Required || f[1].Required || f[1].Type != TypeBoolean {
					t.Errorf("fields = %+v", f)
				}
				if e := api.Endpoints[0]; e.Name != "post_complete" {
					t.Errorf("endpoint name = %q", e.Name)
				}
			},
		},
		{
			name:   "yaml",
			format: FormatYAML,
			text:   "api_info:\n  title: Notes\nmodels:\n  - name: Note\n    fields:\n      - name: body\n        type: text\n",
			check: func(t *testing.T, api API) {
				if api.Title != "Notes" || len(api.Models) != 1 || api.Models[0].Fields[0].Type != TypeString {
					t.Errorf("api = %+v", api)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, err := Parse(tt.text, tt.format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.check(t, api)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		format Format
		want   error
	}{
		{"broken json", `{"models": [`, FormatJSON, ErrInvalidSpec},
		{"bad method", `{"models":[{"name":"A"}],"endpoints":[{"method":"fetch","route":"/a"}]}`, FormatJSON, ErrInvalidSpec},
		{"unnamed model", `{"models":[{"fields":[]}]}`, FormatJSON, ErrInvalidSpec},
		{"unknown format", "model: A", Format("xml"), ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text, tt.format); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat err = %v", err)
	}
}

func TestGenerate(t *testing.T) {
	a := newTestAgent(t)
	g, err := a.Generate(context.Background(), shopSpec, FormatAuto)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if g.ID != "API-0001" {
		t.Errorf("ID = %q", g.ID)
	}
	wantFiles := []string{"README.md", "api_test.go", "go.mod", "handlers.go", "main.go", "models.go"}
	if got := strings.Join(g.FileNames(), ","); got != strings.Join(wantFiles, ",") {
		t.Errorf("files = %s", got)
	}

	contains := map[string][]string{
		"models.go": {
			"type Customer struct",
			"time.Time",
			"CREATE TABLE IF NOT EXISTS orders",
			"email TEXT NOT NULL UNIQUE",
			"phone TEXT NOT NULL DEFAULT ''",
			`"INSERT INTO customers (name, email, phone) VALUES (?, ?, ?)"`,
		},
		"handlers.go": {
			"func (s *server) handleCreateCustomer(",
			`"name is required"`,
			"func (s *server) serveGetDaily(",
		},
		"main.go": {
			`r.Route("/customers"`,
			`r.Method("GET", "/reports/daily", http.HandlerFunc(s.serveGetDaily))`,
		},
		"api_test.go": {"func TestListCustomers(", "func TestOrderNotFound("},
		"go.mod":      {"module shop-api"},
		"README.md":   {"# Shop API", "`GET /reports/daily`"},
	}
	for file, wants := range contains {
		for _, want := range wants {
			if !strings.Contains(g.Files[file], want) {
				t.Errorf("%s missing %q", file, want)
			}
		}
	}
	if strings.Contains(g.Files["handlers.go"], `"phone is required"`) {
		t.Error("optional field validated as required")
	}

	summary := a.Summary(g)
	if !strings.Contains(summary, "API-0001") || !strings.Contains(summary, "• models.go") {
		t.Errorf("summary:\n%s", summary)
	}
}

func TestGenerateWithoutModels(t *testing.T) {
	a := newTestAgent(t)
	if _, err := a.Generate(context.Background(), "api: Empty\nendpoint: list things", FormatNatural); !errors.Is(err, ErrNoModels) {
		t.Errorf("err = %v, want ErrNoModels", err)
	}
	if len(a.History()) != 0 {
		t.Error("failed generation recorded")
	}
}

func TestAnalyze(t *testing.T) {
	a := newTestAgent(t)
	an, err := a.Analyze(shopSpec, FormatAuto)
	if err != nil {
		t.Fatal(err)
	}
	if an.Models != 2 || an.Endpoints != 3 || an.TotalHours != 11 || an.EstimatedDays != 1 || an.Complexity != 3 {
		t.Errorf("analysis = %+v", an)
	}
	if len(an.MissingElements) != 0 {
		t.Errorf("missing = %v", an.MissingElements)
	}
	if text := a.AnalysisText(an); !strings.Contains(text, "Complexity: 3/10") {
		t.Errorf("analysis text:\n%s", text)
	}

	empty := Analyze(API{Models: []Model{{Name: "Ghost"}}})
	if len(empty.MissingElements) != 2 {
		t.Errorf("missing = %v", empty.MissingElements)
	}
}

func TestWriteFiles(t *testing.T) {
	a := newTestAgent(t)
	g, err := a.Generate(context.Background(), shopSpec, FormatNatural)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "shop")
	paths, err := WriteFiles(dir, g)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(g.Files) {
		t.Errorf("wrote %d files, want %d", len(paths), len(g.Files))
	}
	data, err := os.ReadFile(filepath.Join(dir, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != g.Files["main.go"] {
		t.Error("main.go content differs")
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{export, "created_at", "CreatedAt"},
		{export, "id", "ID"},
		{export, "user id", "UserID"},
		{export, "2fa", "X2fa"},
		{snake, "CreatedAt", "created_at"},
		{snake, "order item", "order_item"},
		{plural, "category", "categories"},
		{plural, "key", "keys"},
		{plural, "status", "status"},
		{table, "OrderItem", "order_items"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsScaffold(t *testing.T) {
	if !IsScaffold(shopSpec) {
		t.Error("shop spec not detected")
	}
	if IsScaffold("I want a pizza") {
		t.Error("pizza detected as a scaffold spec")
	}
}
