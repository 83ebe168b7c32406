package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/buildtall-systems/pidebot/internal/agents/delivery"
	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/db"
	"github.com/buildtall-systems/pidebot/internal/execmon"
	"github.com/buildtall-systems/pidebot/internal/fsm"
	"github.com/buildtall-systems/pidebot/internal/tracking"
)

type CreateOrderReq struct {
	Customer  string `json:"customer"`
	ProductID string `json:"product_id"`
	Method    string `json:"method"`
}

type OrderResp struct {
	OrderID    string          `json:"order_id"`
	Customer   string          `json:"customer,omitempty"`
	Product    string          `json:"product,omitempty"`
	Restaurant string          `json:"restaurant,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Method     string          `json:"method,omitempty"`
	State      string          `json:"state"`
	Message    string          `json:"message"`
}

type OrderStatusResp struct {
	OrderID string       `json:"order_id"`
	State   string       `json:"state"`
	Message string       `json:"message,omitempty"`
	ETA     *time.Time   `json:"eta,omitempty"`
	Cached  bool         `json:"cached"`
	History []OrderEvent `json:"history,omitempty"`
}

type MonitorResp struct {
	Polling  bool        `json:"polling"`
	Sessions int         `json:"sessions"`
	Passes   int         `json:"passes"`
	Failures int         `json:"failures"`
	Orders   []OrderResp `json:"orders"`
}

type OrderEvent struct {
	From   string    `json:"from,omitempty"`
	To     string    `json:"to"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if !decode(w, r, &req) {
		return
	}
	if req.Customer == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	a := h.App
	order, err := execmon.Do(ctx, a.Exec, commands.AgentDelivery, "http_order", len(req.ProductID), func(ctx context.Context) (tracking.Order, error) {
		return a.Delivery.ConfirmOrder(ctx, req.Customer, req.ProductID, req.Method)
	})
	switch {
	case errors.Is(err, delivery.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, delivery.ErrPaymentFailed):
		writeError(w, http.StatusPaymentRequired, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, OrderResp{
		OrderID:    order.ID,
		Customer:   order.Customer,
		Product:    order.ProductName,
		Restaurant: order.Restaurant,
		Total:      order.Total,
		Method:     order.PaymentMethod,
		State:      order.State,
		Message:    tracking.StateMessage(order.ID, order.State),
	})
}

// getOrder and cancelOrder act for the customer named in ?customer= when it
// is set. Orders held by anyone else are reported as not found.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := strings.ToUpper(chi.URLParam(r, "id"))
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a := h.App
	customer := r.URL.Query().Get("customer")
	history, err := a.DB.OrderHistory(ctx, orderID)
	if errors.Is(err, db.ErrOrderNotFound) || (err == nil && customer != "" && history[0].Customer != customer) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if a.StatusCache != nil {
		if state, ok, err := a.StatusCache.Status(ctx, orderID); err == nil && ok {
			writeJSON(w, http.StatusOK, OrderStatusResp{OrderID: orderID, State: state, Cached: true})
			return
		}
	}

	reply, err := execmon.Do(ctx, a.Exec, commands.AgentDelivery, "http_track", len(orderID), func(ctx context.Context) (delivery.Reply, error) {
		return a.Delivery.Track(ctx, customer, orderID)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := OrderStatusResp{OrderID: orderID, Message: reply.Text}
	if reply.Status != nil {
		resp.State = reply.Status.State
		if !reply.Status.EstimatedDelivery.IsZero() {
			eta := reply.Status.EstimatedDelivery
			resp.ETA = &eta
		}
	}
	for _, e := range history {
		resp.History = append(resp.History, OrderEvent{From: e.FromState, To: e.ToState, Detail: e.Detail, At: e.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := strings.ToUpper(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	a := h.App
	customer := r.URL.Query().Get("customer")
	reply, err := execmon.Do(ctx, a.Exec, commands.AgentDelivery, "http_cancel", len(orderID), func(ctx context.Context) (delivery.Reply, error) {
		return a.Delivery.CancelOrder(ctx, customer, orderID)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch reply.Action {
	case "order_cancelled":
	case "order_not_found":
		writeError(w, http.StatusNotFound, reply.Text)
		return
	default:
		writeError(w, http.StatusConflict, reply.Text)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "state": fsm.OrderStateCancelled, "message": reply.Text})
}

func (h *Handler) getMonitor(w http.ResponseWriter, r *http.Request) {
	if !h.App.Running() {
		writeError(w, http.StatusServiceUnavailable, "monitor not running")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	snap, err := h.App.Monitor.Snapshot(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	resp := MonitorResp{
		Polling:  snap.Running,
		Sessions: snap.Sessions,
		Passes:   snap.Passes,
		Failures: snap.Failures,
		Orders:   make([]OrderResp, 0, len(snap.Orders)),
	}
	for _, o := range snap.Orders {
		resp.Orders = append(resp.Orders, OrderResp{
			OrderID:    o.ID,
			Customer:   o.Customer,
			Product:    o.ProductName,
			Restaurant: o.Restaurant,
			Total:      o.Total,
			Method:     o.PaymentMethod,
			State:      o.State,
			Message:    tracking.StateMessage(o.ID, o.State),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
