package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/config"
)

func newTestServer(t *testing.T, run bool) (*httptest.Server, *app.App) {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("tracking.poll_interval", "20ms")
	v.Set("tracking.advance_after", "1h")
	cfg, err := config.LoadFrom(v)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	a, err := app.New(cfg, app.Options{Console: io.Discard})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	if run {
		go func() { done <- a.Run(ctx) }()
		for i := 0; i < 100 && !a.Running(); i++ {
			time.Sleep(time.Millisecond)
		}
	} else {
		done <- nil
	}

	srv := httptest.NewServer(NewRouter(a))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		_ = a.Close()
	})
	return srv, a
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, false)
	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(b) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, b)
	}
}

func TestOrderLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, true)

	code, body := do(t, srv, http.MethodPost, "/orders", CreateOrderReq{Customer: "alice", ProductID: "wok-fried-rice"})
	if code != http.StatusCreated {
		t.Fatalf("create = %d %v", code, body)
	}
	id, _ := body["order_id"].(string)
	if !strings.HasPrefix(id, "ORD-") {
		t.Fatalf("order_id = %q", id)
	}
	if body["total"] != "7" {
		t.Errorf("total = %v, want \"7\"", body["total"])
	}

	code, body = do(t, srv, http.MethodGet, "/orders/"+id, nil)
	if code != http.StatusOK || body["state"] != "confirming" {
		t.Fatalf("get = %d %v", code, body)
	}

	code, body = do(t, srv, http.MethodGet, "/monitor", nil)
	if code != http.StatusOK {
		t.Fatalf("monitor = %d %v", code, body)
	}
	if orders, _ := body["orders"].([]any); len(orders) != 1 {
		t.Errorf("monitor orders = %v", body["orders"])
	}

	code, body = do(t, srv, http.MethodPost, "/orders/"+id+"/cancel", nil)
	if code != http.StatusOK {
		t.Fatalf("cancel = %d %v", code, body)
	}

	code, _ = do(t, srv, http.MethodPost, "/orders/"+id+"/cancel", nil)
	if code != http.StatusConflict {
		t.Errorf("second cancel = %d, want 409", code)
	}

	code, body = do(t, srv, http.MethodGet, "/orders/"+id, nil)
	if code != http.StatusOK || body["state"] != "cancelled" {
		t.Errorf("get after cancel = %d %v", code, body)
	}
}

func TestCreateOrderErrors(t *testing.T) {
	srv, _ := newTestServer(t, true)

	tests := []struct {
		name string
		req  CreateOrderReq
		want int
	}{
		{"missing fields", CreateOrderReq{Customer: "alice"}, http.StatusBadRequest},
		{"unknown product", CreateOrderReq{Customer: "alice", ProductID: "nope"}, http.StatusNotFound},
		{"declined card", CreateOrderReq{Customer: "alice", ProductID: "wok-fried-rice", Method: "visa-0002"}, http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := do(t, srv, http.MethodPost, "/orders", tt.req); code != tt.want {
				t.Errorf("status = %d, want %d (%v)", code, tt.want, body)
			}
		})
	}
}

func TestOrderOtherCustomer(t *testing.T) {
	srv, _ := newTestServer(t, true)

	code, body := do(t, srv, http.MethodPost, "/orders", CreateOrderReq{Customer: "alice", ProductID: "wok-fried-rice"})
	if code != http.StatusCreated {
		t.Fatalf("create = %d %v", code, body)
	}
	id, _ := body["order_id"].(string)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"stranger reads", http.MethodGet, "/orders/" + id + "?customer=mallory", http.StatusNotFound},
		{"stranger cancels", http.MethodPost, "/orders/" + id + "/cancel?customer=mallory", http.StatusNotFound},
		{"owner reads", http.MethodGet, "/orders/" + id + "?customer=alice", http.StatusOK},
		{"owner cancels", http.MethodPost, "/orders/" + id + "/cancel?customer=alice", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := do(t, srv, tt.method, tt.path, nil); code != tt.want {
				t.Errorf("status = %d, want %d (%v)", code, tt.want, body)
			}
		})
	}
}

func TestGetOrderNotFound(t *testing.T) {
	srv, _ := newTestServer(t, false)
	if code, _ := do(t, srv, http.MethodGet, "/orders/ORD-DEADBEEF", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestMonitorNotRunning(t *testing.T) {
	srv, _ := newTestServer(t, false)
	if code, _ := do(t, srv, http.MethodGet, "/monitor", nil); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestPostMessage(t *testing.T) {
	srv, _ := newTestServer(t, false)

	tests := []struct {
		name      string
		req       MessageReq
		wantCode  int
		wantAgent string
	}{
		{"search", MessageReq{Customer: "alice", Text: "find a mexican restaurant"}, http.StatusOK, "delivery"},
		{"design", MessageReq{Customer: "alice", Text: "design office 3x3 1500"}, http.StatusOK, "design"},
		{"admin only", MessageReq{Customer: "alice", Text: "stats"}, http.StatusForbidden, "system"},
		{"agent error", MessageReq{Customer: "alice", Text: "design office 1x1 1500"}, http.StatusUnprocessableEntity, "design"},
		{"empty text", MessageReq{Customer: "alice", Text: "  "}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, srv, http.MethodPost, "/messages", tt.req)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%v)", code, tt.wantCode, body)
			}
			if tt.wantAgent != "" && body["agent"] != tt.wantAgent {
				t.Errorf("agent = %v, want %s", body["agent"], tt.wantAgent)
			}
		})
	}
}

func TestCreateDesign(t *testing.T) {
	srv, _ := newTestServer(t, false)

	code, body := do(t, srv, http.MethodPost, "/designs", map[string]any{
		"room_type":  "dining_room",
		"dimensions": "4x5m",
		"style":      "modern",
		"budget":     "2000",
	})
	if code != http.StatusCreated {
		t.Fatalf("status = %d %v", code, body)
	}
	if body["id"] != "DESIGN-0001" || body["total_cost"] != "1810" {
		t.Errorf("design = %v %v", body["id"], body["total_cost"])
	}

	code, _ = do(t, srv, http.MethodPost, "/designs", map[string]any{
		"room_type":  "garage",
		"dimensions": "4x5m",
		"budget":     2000,
	})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("unknown room status = %d, want 422", code)
	}
}

func TestCreateReservation(t *testing.T) {
	srv, _ := newTestServer(t, false)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	code, body := do(t, srv, http.MethodPost, "/reservations", ReservationReq{
		Customer:     "alice",
		RestaurantID: "resto_1",
		Date:         tomorrow,
		Time:         "20:00",
		PartySize:    4,
	})
	if code != http.StatusCreated {
		t.Fatalf("status = %d %v", code, body)
	}
	if code, _ := body["code"].(string); !strings.HasPrefix(code, "RES-") {
		t.Errorf("code = %v", body["code"])
	}

	code, body = do(t, srv, http.MethodPost, "/reservations", ReservationReq{Customer: "alice", RestaurantID: "resto_1"})
	if code != http.StatusOK || body["action"] != "request_info" {
		t.Errorf("missing fields = %d %v", code, body)
	}

	code, _ = do(t, srv, http.MethodPost, "/reservations", ReservationReq{
		Customer: "alice", RestaurantID: "resto_9", Date: tomorrow, Time: "20:00", PartySize: 2,
	})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("unknown venue status = %d, want 422", code)
	}
}

const usersSpec = `api: Users
model: User
- name: string required
- email: email unique
endpoint: list users
`

func TestCreateScaffold(t *testing.T) {
	srv, _ := newTestServer(t, false)

	code, body := do(t, srv, http.MethodPost, "/scaffolds", ScaffoldReq{Spec: usersSpec})
	if code != http.StatusCreated {
		t.Fatalf("status = %d %v", code, body)
	}
	files, _ := body["files"].(map[string]any)
	if _, ok := files["main.go"]; !ok {
		t.Errorf("files = %v", files)
	}

	code, body = do(t, srv, http.MethodPost, "/scaffolds", ScaffoldReq{Spec: usersSpec, Analyze: true})
	if code != http.StatusOK || body["models"] != float64(1) {
		t.Errorf("analyze = %d %v", code, body)
	}

	code, _ = do(t, srv, http.MethodPost, "/scaffolds", ScaffoldReq{Spec: usersSpec, Format: "toml"})
	if code != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", code)
	}
}

func TestGetStats(t *testing.T) {
	srv, _ := newTestServer(t, false)
	do(t, srv, http.MethodPost, "/messages", MessageReq{Customer: "alice", Text: "help"})

	code, body := do(t, srv, http.MethodGet, "/stats?window=1h", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d %v", code, body)
	}
	if body["executions"] != float64(1) {
		t.Errorf("executions = %v, want 1", body["executions"])
	}
	if body["monitor_running"] != false {
		t.Errorf("monitor_running = %v", body["monitor_running"])
	}

	if code, _ := do(t, srv, http.MethodGet, "/stats?window=soon", nil); code != http.StatusBadRequest {
		t.Errorf("bad window status = %d, want 400", code)
	}
}
