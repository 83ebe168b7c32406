// Package delivery is the food ordering agent: it searches restaurants,
// takes paid orders and answers tracking questions.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/buildtall-systems/pidebot/internal/catalog"
	"github.com/buildtall-systems/pidebot/internal/db"
	"github.com/buildtall-systems/pidebot/internal/fsm"
	"github.com/buildtall-systems/pidebot/internal/payment"
	"github.com/buildtall-systems/pidebot/internal/prompts"
	"github.com/buildtall-systems/pidebot/internal/tracking"
)

var (
	// ErrPaymentFailed wraps the gateway's reason when a charge fails.
	ErrPaymentFailed  = errors.New("payment failed")
	ErrUnknownProduct = errors.New("unknown product")

	errNotOwned = errors.New("order belongs to another customer")
)

var (
	orderRef  = regexp.MustCompile(`(?i)\bORD-[0-9A-F]{8}\b`)
	methodRef = regexp.MustCompile(`(?i)\b(?:pay with|paying with|using|pagar con|con)\s+([a-z]+-[a-z0-9]+)`)
)

type Charger interface {
	Charge(ctx context.Context, methodID string, amount decimal.Decimal) payment.ChargeResult
	Refund(ctx context.Context, methodID string, amount decimal.Decimal) error
}

type Tracker interface {
	Register(order tracking.Order)
	Forget(orderID string)
	QueryState(ctx context.Context, orderID string) (tracking.Status, error)
}

type Watcher interface {
	Watch(ctx context.Context, order tracking.Order) error
	Cancel(ctx context.Context, orderID string) error
}

type OrderStore interface {
	RecordOrderEvent(ctx context.Context, e db.OrderEvent) (*db.OrderEvent, error)
	OrderHistory(ctx context.Context, orderID string) ([]db.OrderEvent, error)
	LatestOrderID(ctx context.Context, customer string) (string, error)
}

// Deps are the collaborators an Agent works with.
type Deps struct {
	Restaurants *catalog.Restaurants
	Gateway     Charger
	Tracker     Tracker
	Monitor     Watcher
	Store       OrderStore
	Prompts     *prompts.Manager
}

type Options struct {
	DefaultMethod string
	Now           func() time.Time
}

// Reply is the agent's answer to one message.
type Reply struct {
	Text        string
	Intent      Intent
	Action      string
	Restaurants []catalog.Restaurant
	Dishes      []catalog.Product
	Order       *tracking.Order
	Status      *tracking.Status
}

type Agent struct {
	Deps
	defaultMethod string
	now           func() time.Time
}

func New(deps Deps, opts Options) *Agent {
	if opts.DefaultMethod == "" {
		opts.DefaultMethod = "visa-4242"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Prompts == nil {
		deps.Prompts = prompts.NewManager()
	}
	return &Agent{Deps: deps, defaultMethod: opts.DefaultMethod, now: opts.Now}
}

// HandleMessage answers a free-text customer message.
func (a *Agent) HandleMessage(ctx context.Context, customer, text string) (Reply, error) {
	intent := Classify(text)
	var (
		r   Reply
		err error
	)
	switch intent {
	case IntentSearch:
		r = a.search(text)
	case IntentMenu:
		r = a.menu(text)
	case IntentNewOrder:
		r, err = a.order(ctx, customer, text)
	case IntentTrack:
		r, err = a.Track(ctx, customer, orderRef.FindString(text))
	case IntentCancel:
		r, err = a.CancelOrder(ctx, customer, orderRef.FindString(text))
	default:
		r = Reply{
			Text:   a.Prompts.MustRender("delivery_welcome", nil),
			Action: "clarify_intent",
		}
	}
	r.Intent = intent
	return r, err
}

func (a *Agent) search(text string) Reply {
	prefs := Preferences(text)
	found := catalog.TopRated(a.Restaurants.Filter(prefs), 5)
	if len(found) == 0 {
		return Reply{
			Text:   a.Prompts.MustRender("delivery_no_restaurants", map[string]any{"search_criteria": describe(prefs)}),
			Action: "adjust_preferences",
		}
	}
	return Reply{
		Text: a.Prompts.MustRender("delivery_restaurant_suggestions", map[string]any{
			"cuisine":         prefs.Cuisine,
			"restaurant_list": prompts.FormatRestaurants(found),
		}),
		Action:      "show_restaurants",
		Restaurants: found,
	}
}

func (a *Agent) menu(text string) Reply {
	if rest, ok := a.Restaurants.Mentioned(text); ok {
		return Reply{
			Text: a.Prompts.MustRender("delivery_menu", map[string]any{
				"restaurant_name": rest.Name,
				"menu_items":      prompts.FormatMenu(rest.Menu),
				"price_range":     rest.Price,
				"rating":          fmt.Sprintf("%.1f", rest.Rating),
				"delivery_time":   rest.DeliveryMinutes,
			}),
			Action:      "show_menu",
			Restaurants: []catalog.Restaurant{rest},
			Dishes:      rest.Menu,
		}
	}
	dishes := a.Restaurants.PopularDishes(8)
	return Reply{
		Text:   a.Prompts.MustRender("delivery_popular_dishes", map[string]any{"dishes": prompts.FormatMenu(dishes)}),
		Action: "show_popular_dishes",
		Dishes: dishes,
	}
}

func (a *Agent) order(ctx context.Context, customer, text string) (Reply, error) {
	vendor := ""
	if rest, ok := a.Restaurants.Mentioned(text); ok {
		vendor = rest.Name
	}
	products := a.Restaurants.Search(text, vendor)
	if len(products) == 0 {
		// Nothing specific named: suggest where to order from.
		prefs := Preferences(text)
		top := catalog.TopRated(a.Restaurants.Filter(prefs), 3)
		if len(top) == 0 {
			return Reply{
				Text:   a.Prompts.MustRender("delivery_no_restaurants", map[string]any{"search_criteria": describe(prefs)}),
				Action: "adjust_preferences",
			}, nil
		}
		return Reply{
			Text: a.Prompts.MustRender("delivery_restaurant_suggestions", map[string]any{
				"cuisine":         prefs.Cuisine,
				"restaurant_list": prompts.FormatRestaurants(top),
			}),
			Action:      "show_restaurants",
			Restaurants: top,
		}, nil
	}

	method := a.defaultMethod
	if m := methodRef.FindStringSubmatch(text); m != nil {
		method = strings.ToLower(m[1])
	}

	return a.Place(ctx, customer, products[0].ID, method)
}

// Place confirms an order for one product and renders the reply. A declined
// charge is answered, not returned as an error.
func (a *Agent) Place(ctx context.Context, customer, productID, methodID string) (Reply, error) {
	order, err := a.ConfirmOrder(ctx, customer, productID, methodID)
	if errors.Is(err, ErrPaymentFailed) {
		return Reply{
			Text:   a.Prompts.MustRender("delivery_payment_failed", map[string]any{"reason": strings.TrimPrefix(err.Error(), ErrPaymentFailed.Error()+": ")}),
			Intent: IntentNewOrder,
			Action: "payment_failed",
		}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	return Reply{
		Text: a.Prompts.MustRender("delivery_order_confirmation", map[string]any{
			"order_id":   order.ID,
			"item":       order.ProductName,
			"restaurant": order.Restaurant,
			"total":      order.Total.StringFixed(2),
			"method":     order.PaymentMethod,
			"eta":        a.eta(order.Restaurant).Format("15:04"),
		}),
		Intent: IntentNewOrder,
		Action: "order_confirmed",
		Order:  &order,
	}, nil
}

// ConfirmOrder charges the customer for one product and starts tracking the
// paid order. Nothing is tracked when the charge fails, and the charge is
// refunded when the order cannot be watched.
func (a *Agent) ConfirmOrder(ctx context.Context, customer, productID, methodID string) (tracking.Order, error) {
	product, ok := a.Restaurants.Product(productID)
	if !ok {
		return tracking.Order{}, fmt.Errorf("%s: %w", productID, ErrUnknownProduct)
	}
	if methodID == "" {
		methodID = a.defaultMethod
	}

	res := a.Gateway.Charge(ctx, methodID, product.Price)
	if !res.Success {
		log.Printf("delivery: charge for %s on %s failed: %s", product.ID, methodID, res.Error)
		return tracking.Order{}, fmt.Errorf("%w: %w", ErrPaymentFailed, res.Err)
	}

	order := tracking.Order{
		ID:            res.OrderID,
		Customer:      customer,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Restaurant:    product.Vendor,
		Total:         res.Amount,
		State:         fsm.OrderStateConfirming,
		PaymentMethod: res.Method,
		CreatedAt:     a.now(),
	}

	a.Tracker.Register(order)
	if err := a.Monitor.Watch(ctx, order); err != nil {
		a.Tracker.Forget(order.ID)
		if rerr := a.Gateway.Refund(context.WithoutCancel(ctx), res.Method, res.Amount); rerr != nil {
			log.Printf("delivery: refunding order %s on %s: %v", order.ID, res.Method, rerr)
		}
		return tracking.Order{}, fmt.Errorf("watching order %s: %w", order.ID, err)
	}
	if _, err := a.Store.RecordOrderEvent(ctx, db.OrderEvent{
		OrderID:   order.ID,
		Customer:  customer,
		ToState:   order.State,
		Detail:    fmt.Sprintf("%s from %s, %s on %s", product.Name, product.Vendor, order.Total.StringFixed(2), res.Method),
		CreatedAt: order.CreatedAt,
	}); err != nil {
		// The order is paid and watched; only its history row is missing.
		log.Printf("delivery: recording order %s: %v", order.ID, err)
	}

	log.Printf("delivery: order %s confirmed for %s", order.ID, customer)
	return order, nil
}

// resolve picks the order a message is about. An empty orderID means the
// customer's latest order. Orders placed by someone else resolve to
// errNotOwned, which callers answer exactly like an unknown order.
func (a *Agent) resolve(ctx context.Context, customer, orderID string) (string, error) {
	if orderID == "" {
		return a.Store.LatestOrderID(ctx, customer)
	}
	id := strings.ToUpper(orderID)
	if customer == "" {
		return id, nil
	}
	history, err := a.Store.OrderHistory(ctx, id)
	if errors.Is(err, db.ErrOrderNotFound) {
		return id, fmt.Errorf("%s: %w", id, errNotOwned)
	}
	if err != nil {
		return id, err
	}
	if history[0].Customer != customer {
		log.Printf("delivery: %s asked about order %s held by another customer", customer, id)
		return id, fmt.Errorf("%s: %w", id, errNotOwned)
	}
	return id, nil
}

// Track reports an order's state. An empty orderID means the customer's
// latest order.
func (a *Agent) Track(ctx context.Context, customer, orderID string) (Reply, error) {
	id, err := a.resolve(ctx, customer, orderID)
	switch {
	case errors.Is(err, db.ErrOrderNotFound):
		return Reply{Text: "You have no orders yet. Tell me what you'd like to eat!", Action: "no_orders"}, nil
	case errors.Is(err, errNotOwned):
		return orderNotFound(id), nil
	case err != nil:
		return Reply{}, err
	}

	history, err := a.Store.OrderHistory(ctx, id)
	if errors.Is(err, db.ErrOrderNotFound) {
		return orderNotFound(id), nil
	}
	if err != nil {
		return Reply{}, err
	}

	// Finished orders are no longer held by the tracker.
	if last := history[len(history)-1]; fsm.IsTerminal(last.ToState) {
		st := tracking.Status{OrderID: id, State: last.ToState, LastChange: last.CreatedAt}
		return Reply{Text: tracking.StateMessage(id, last.ToState), Action: "tracking_info", Status: &st}, nil
	}

	st, err := a.Tracker.QueryState(ctx, id)
	if err != nil {
		return Reply{}, fmt.Errorf("tracking %s: %w", id, err)
	}
	return Reply{
		Text: a.Prompts.MustRender("delivery_tracking_update", map[string]any{
			"order_id": id,
			"status":   strings.ReplaceAll(st.State, "_", " "),
			"eta":      st.EstimatedDelivery.Format("15:04"),
		}),
		Action: "tracking_info",
		Status: &st,
	}, nil
}

// CancelOrder cancels an active order through the monitor, which notifies
// the customer.
func (a *Agent) CancelOrder(ctx context.Context, customer, orderID string) (Reply, error) {
	id, err := a.resolve(ctx, customer, orderID)
	switch {
	case errors.Is(err, db.ErrOrderNotFound):
		return Reply{Text: "You have no orders to cancel.", Action: "no_orders"}, nil
	case errors.Is(err, errNotOwned):
		return orderNotFound(id), nil
	case err != nil:
		return Reply{}, err
	}

	err = a.Monitor.Cancel(ctx, id)
	switch {
	case errors.Is(err, tracking.ErrOrderNotFound), errors.Is(err, tracking.ErrInvalidTransition):
		return Reply{Text: fmt.Sprintf("Order %s can no longer be cancelled.", id), Action: "cancel_rejected"}, nil
	case err != nil:
		return Reply{}, fmt.Errorf("cancelling %s: %w", id, err)
	}
	return Reply{
		Text:   a.Prompts.MustRender("delivery_cancelled", map[string]any{"order_id": id}),
		Action: "order_cancelled",
	}, nil
}

func orderNotFound(id string) Reply {
	return Reply{Text: fmt.Sprintf("I couldn't find order %s.", id), Action: "order_not_found"}
}

func (a *Agent) eta(restaurant string) time.Time {
	for _, r := range a.Restaurants.All() {
		if r.Name == restaurant {
			return a.now().Add(time.Duration(r.DeliveryMinutes) * time.Minute)
		}
	}
	return a.now().Add(30 * time.Minute)
}
