package delivery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/buildtall-systems/pidebot/internal/catalog"
	"github.com/buildtall-systems/pidebot/internal/db"
	"github.com/buildtall-systems/pidebot/internal/fsm"
	"github.com/buildtall-systems/pidebot/internal/payment"
	"github.com/buildtall-systems/pidebot/internal/tracking"
)

const customer = "alice"

// recordingWatcher stands in for the monitor and forwards cancels to the
// tracker.
type recordingWatcher struct {
	mu      sync.Mutex
	tracker *tracking.Tracker
	watched []tracking.Order
	err     error
}

func (w *recordingWatcher) Watch(_ context.Context, o tracking.Order) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.watched = append(w.watched, o)
	return nil
}

func (w *recordingWatcher) Cancel(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, o := range w.watched {
		if o.ID == id {
			return w.tracker.Cancel(ctx, id)
		}
	}
	return tracking.ErrOrderNotFound
}

type fixture struct {
	agent   *Agent
	db      *db.DB
	gateway *payment.Gateway
	tracker *tracking.Tracker
	watcher *recordingWatcher
	now     time.Time
}

func setupAgent(t *testing.T) *fixture {
	t.Helper()

	database, err := db.OpenAndMigrate(":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	f := &fixture{db: database, now: time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.gateway = payment.NewGateway(payment.DefaultMethods())
	var n int
	f.gateway.SetIDGenerator(func() string {
		n++
		return []string{"ORD-0000000A", "ORD-0000000B", "ORD-0000000C"}[n-1]
	})
	f.tracker = tracking.NewTracker(tracking.TrackerOptions{AdvanceAfter: 20 * time.Second, Now: clock})
	f.watcher = &recordingWatcher{tracker: f.tracker}
	f.agent = New(Deps{
		Restaurants: catalog.DefaultRestaurants(),
		Gateway:     f.gateway,
		Tracker:     f.tracker,
		Monitor:     f.watcher,
		Store:       database,
	}, Options{DefaultMethod: "visa-4242", Now: clock})
	return f
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"I want a pizza margherita", IntentNewOrder},
		{"quiero pedir tacos", IntentNewOrder},
		{"where is my order?", IntentTrack},
		{"ORD-1A2B3C4D", IntentTrack},
		{"cancel my order ORD-1A2B3C4D", IntentCancel},
		{"find me a good restaurant", IntentSearch},
		{"recomendar un restaurante", IntentSearch},
		{"show me the menu of Sushi Zen", IntentMenu},
		{"hello", IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestPreferences(t *testing.T) {
	tests := []struct {
		text string
		want catalog.RestaurantFilter
	}{
		{"cheap and fast chinese", catalog.RestaurantFilter{Cuisine: "chinese", Price: catalog.PriceBudget, MaxDeliveryMinutes: 25}},
		{"the best sushi", catalog.RestaurantFilter{Cuisine: "japanese", MinRating: 4.5}},
		{"algo vegano y económico", catalog.RestaurantFilter{Cuisine: "vegetarian", Price: catalog.PriceBudget}},
		{"premium italian, no rush", catalog.RestaurantFilter{Cuisine: "italian", Price: catalog.PricePremium, MaxDeliveryMinutes: 60}},
		{"anything", catalog.RestaurantFilter{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Preferences(tt.text); got != tt.want {
				t.Errorf("Preferences(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHandleMessage_Search(t *testing.T) {
	f := setupAgent(t)
	r, err := f.agent.HandleMessage(context.Background(), customer, "find a cheap restaurant")
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != "show_restaurants" || len(r.Restaurants) != 2 {
		t.Fatalf("reply = %+v", r)
	}
	// Sorted by rating: Tacos El Mariachi (4.3) before Wok Express (4.0).
	if r.Restaurants[0].Name != "Tacos El Mariachi" {
		t.Errorf("first = %s", r.Restaurants[0].Name)
	}
}

func TestHandleMessage_SearchNoMatch(t *testing.T) {
	f := setupAgent(t)
	r, err := f.agent.HandleMessage(context.Background(), customer, "search cheap sushi")
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != "adjust_preferences" {
		t.Fatalf("action = %s", r.Action)
	}
	if !strings.Contains(r.Text, "japanese food, budget prices") {
		t.Errorf("text = %q", r.Text)
	}
}

func TestHandleMessage_Menu(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	r, err := f.agent.HandleMessage(ctx, customer, "what's on the menu at sushi zen?")
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != "show_menu" || len(r.Dishes) != 3 || !strings.Contains(r.Text, "Ramen - $16.00") {
		t.Errorf("reply = %+v", r)
	}

	r, err = f.agent.HandleMessage(ctx, customer, "menu please")
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != "show_popular_dishes" || len(r.Dishes) != 8 {
		t.Errorf("popular reply = %s with %d dishes", r.Action, len(r.Dishes))
	}
}

func TestHandleMessage_OrderFlow(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	r, err := f.agent.HandleMessage(ctx, customer, "I want a pizza margherita")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if r.Action != "order_confirmed" || r.Order == nil {
		t.Fatalf("reply = %+v", r)
	}
	if r.Order.ID != "ORD-0000000A" || r.Order.Total.StringFixed(2) != "12.50" {
		t.Errorf("order = %+v", r.Order)
	}
	if !strings.Contains(r.Text, "Estimated delivery: 19:30") {
		t.Errorf("text = %q", r.Text)
	}
	if len(f.watcher.watched) != 1 || f.tracker.Len() != 1 {
		t.Errorf("watched %d, tracked %d", len(f.watcher.watched), f.tracker.Len())
	}
	if got := f.gateway.Charged("visa-4242").StringFixed(2); got != "12.50" {
		t.Errorf("charged = %s", got)
	}

	// Tracking without an id resolves the latest order.
	f.now = f.now.Add(21 * time.Second)
	r, err = f.agent.HandleMessage(ctx, customer, "where is my food? status")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if r.Status == nil || r.Status.State != fsm.OrderStatePreparing {
		t.Fatalf("status = %+v", r.Status)
	}

	r, err = f.agent.HandleMessage(ctx, customer, "cancel ORD-0000000A")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if r.Action != "order_cancelled" {
		t.Errorf("action = %s", r.Action)
	}

	r, err = f.agent.HandleMessage(ctx, customer, "cancel ORD-0000000A")
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != "cancel_rejected" {
		t.Errorf("second cancel action = %s", r.Action)
	}
}

func TestHandleMessage_OrderWithoutProductSuggests(t *testing.T) {
	f := setupAgent(t)
	r, err := f.agent.HandleMessage(context.Background(), customer, "I'm hungry, something mexican")
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != "show_restaurants" || len(r.Restaurants) != 1 || r.Restaurants[0].Name != "Tacos El Mariachi" {
		t.Errorf("reply = %+v", r)
	}
	if len(f.watcher.watched) != 0 {
		t.Error("no order should have been placed")
	}
}

func TestHandleMessage_DeclinedPayment(t *testing.T) {
	f := setupAgent(t)
	r, err := f.agent.HandleMessage(context.Background(), customer, "I want ramen, pay with visa-0002")
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != "payment_failed" || !strings.Contains(r.Text, "declined") {
		t.Errorf("reply = %+v", r)
	}
	if f.tracker.Len() != 0 || len(f.watcher.watched) != 0 {
		t.Error("declined payment must not seed tracking")
	}
}

func TestConfirmOrder(t *testing.T) {
	tests := []struct {
		name    string
		product string
		method  string
		wantErr error
	}{
		{"default method", "sz-ramen", "", nil},
		{"wallet", "gg-buddha", "wallet-pay", nil},
		{"declined", "sz-ramen", "visa-0002", ErrPaymentFailed},
		{"unknown method", "sz-ramen", "amex-1", ErrPaymentFailed},
		{"unknown product", "nope", "", ErrUnknownProduct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAgent(t)
			ctx := context.Background()
			order, err := f.agent.ConfirmOrder(ctx, customer, tt.product, tt.method)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if f.tracker.Len() != 0 {
					t.Error("failed order was tracked")
				}
				return
			}
			if err != nil {
				t.Fatalf("ConfirmOrder: %v", err)
			}
			if order.State != fsm.OrderStateConfirming {
				t.Errorf("state = %s", order.State)
			}
			history, err := f.db.OrderHistory(ctx, order.ID)
			if err != nil || len(history) != 1 || history[0].FromState != "" {
				t.Errorf("history = %+v, err = %v", history, err)
			}
		})
	}
}

func TestConfirmOrder_PaymentErrorKeepsGatewayCause(t *testing.T) {
	f := setupAgent(t)
	_, err := f.agent.ConfirmOrder(context.Background(), customer, "sz-ramen", "visa-0002")
	if !errors.Is(err, payment.ErrDeclined) {
		t.Errorf("err = %v, want it to wrap payment.ErrDeclined", err)
	}
}

func TestTrack(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	r, err := f.agent.Track(ctx, customer, "")
	if err != nil || r.Action != "no_orders" {
		t.Fatalf("no orders: %+v, %v", r, err)
	}

	r, err = f.agent.Track(ctx, customer, "ORD-DEADBEEF")
	if err != nil || r.Action != "order_not_found" {
		t.Fatalf("unknown: %+v, %v", r, err)
	}
	if f.tracker.Len() != 0 {
		t.Error("tracking an unknown order must not create it")
	}

	// Finished orders are answered from history.
	if _, err := f.db.RecordOrderEvent(ctx, db.OrderEvent{OrderID: "ORD-00000001", Customer: customer, ToState: fsm.OrderStateConfirming}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.db.RecordOrderEvent(ctx, db.OrderEvent{OrderID: "ORD-00000001", Customer: customer, FromState: fsm.OrderStateEnRoute, ToState: fsm.OrderStateDelivered}); err != nil {
		t.Fatal(err)
	}
	r, err = f.agent.Track(ctx, customer, "ord-00000001")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status == nil || r.Status.State != fsm.OrderStateDelivered || !strings.Contains(r.Text, "delivered") {
		t.Errorf("reply = %+v", r)
	}
}

func TestConfirmOrder_WatchFailure(t *testing.T) {
	f := setupAgent(t)
	f.watcher.err = tracking.ErrMonitorStopped
	_, err := f.agent.ConfirmOrder(context.Background(), customer, "sz-ramen", "")
	if !errors.Is(err, tracking.ErrMonitorStopped) {
		t.Errorf("err = %v, want ErrMonitorStopped", err)
	}
	if n := f.tracker.Len(); n != 0 {
		t.Errorf("tracker holds %d orders, want 0", n)
	}
	if got := f.gateway.Charged("visa-4242"); !got.IsZero() {
		t.Errorf("charged = %s, want the charge refunded", got.StringFixed(2))
	}
	if _, err := f.db.OrderHistory(context.Background(), "ORD-0000000A"); !errors.Is(err, db.ErrOrderNotFound) {
		t.Errorf("history err = %v, want ErrOrderNotFound", err)
	}
}

func TestOrders_OtherCustomer(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()
	if _, err := f.agent.ConfirmOrder(ctx, customer, "sz-ramen", ""); err != nil {
		t.Fatalf("ConfirmOrder: %v", err)
	}

	tests := []struct {
		name string
		run  func(customer, id string) (Reply, error)
	}{
		{"track", func(c, id string) (Reply, error) { return f.agent.Track(ctx, c, id) }},
		{"cancel", func(c, id string) (Reply, error) { return f.agent.CancelOrder(ctx, c, id) }},
		{"message", func(c, id string) (Reply, error) { return f.agent.HandleMessage(ctx, c, "cancel "+id) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.run("mallory", "ORD-0000000A")
			if err != nil {
				t.Fatal(err)
			}
			if r.Action != "order_not_found" || r.Status != nil {
				t.Errorf("reply = %+v, want order_not_found", r)
			}
			st, err := f.tracker.QueryState(ctx, "ORD-0000000A")
			if err != nil || st.State == fsm.OrderStateCancelled {
				t.Errorf("order state = %+v, %v", st, err)
			}
		})
	}

	// The owner still reaches the order.
	r, err := f.agent.CancelOrder(ctx, customer, "ord-0000000a")
	if err != nil || r.Action != "order_cancelled" {
		t.Errorf("owner cancel = %+v, %v", r, err)
	}
}
