// Package payment is a simulated payment gateway. Nothing leaves the process.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrDeclined      = errors.New("payment declined")
	ErrOverLimit     = errors.New("amount exceeds method limit")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrOverRefund    = errors.New("refund exceeds captured amount")
)

type MethodKind string

const (
	KindCard   MethodKind = "card"
	KindWallet MethodKind = "wallet"
)

type Method struct {
	ID      string
	Kind    MethodKind
	Label   string
	Limit   decimal.Decimal
	Decline bool
}

// ChargeResult reports the outcome of a charge. OrderID is only set on
// success.
type ChargeResult struct {
	Success bool
	OrderID string
	Method  string
	Amount  decimal.Decimal
	Error   string
	Err     error
}

type Gateway struct {
	mu      sync.Mutex
	methods map[string]Method
	charged map[string]decimal.Decimal
	newID   func() string
}

func NewGateway(methods []Method) *Gateway {
	g := &Gateway{
		methods: make(map[string]Method, len(methods)),
		charged: make(map[string]decimal.Decimal),
		newID:   NewOrderID,
	}
	for _, m := range methods {
		g.methods[m.ID] = m
	}
	return g
}

// DefaultMethods are the demo cards and wallets.
func DefaultMethods() []Method {
	return []Method{
		{ID: "visa-4242", Kind: KindCard, Label: "Visa ending 4242", Limit: decimal.NewFromInt(500)},
		{ID: "mc-5555", Kind: KindCard, Label: "Mastercard ending 5555", Limit: decimal.NewFromInt(1000)},
		{ID: "wallet-pay", Kind: KindWallet, Label: "Digital wallet", Limit: decimal.NewFromInt(300)},
		{ID: "visa-0002", Kind: KindCard, Label: "Visa ending 0002", Limit: decimal.NewFromInt(500), Decline: true},
	}
}

// NewOrderID returns an ORD- prefixed id built from a random UUID.
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// SetIDGenerator replaces the order id source.
func (g *Gateway) SetIDGenerator(fn func() string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.newID = fn
}

func (g *Gateway) Method(id string) (Method, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.methods[id]
	return m, ok
}

// Charge authorizes amount on the method. Failures are reported in the
// result, never retried.
func (g *Gateway) Charge(ctx context.Context, methodID string, amount decimal.Decimal) ChargeResult {
	res := ChargeResult{Method: methodID, Amount: amount}
	if err := ctx.Err(); err != nil {
		return res.fail(err)
	}
	if !amount.IsPositive() {
		return res.fail(ErrInvalidAmount)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.methods[methodID]
	switch {
	case !ok:
		return res.fail(fmt.Errorf("%s: %w", methodID, ErrUnknownMethod))
	case m.Decline:
		return res.fail(fmt.Errorf("%s: %w", m.Label, ErrDeclined))
	case amount.GreaterThan(m.Limit):
		return res.fail(fmt.Errorf("%s over %s limit %s: %w", amount.StringFixed(2), m.Label, m.Limit.StringFixed(2), ErrOverLimit))
	}

	g.charged[methodID] = g.charged[methodID].Add(amount)
	res.Success = true
	res.OrderID = g.newID()
	return res
}

// Refund returns amount from a method's captured total.
func (g *Gateway) Refund(ctx context.Context, methodID string, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.methods[methodID]; !ok {
		return fmt.Errorf("%s: %w", methodID, ErrUnknownMethod)
	}
	captured := g.charged[methodID]
	if amount.GreaterThan(captured) {
		return fmt.Errorf("%s over captured %s: %w", amount.StringFixed(2), captured.StringFixed(2), ErrOverRefund)
	}
	g.charged[methodID] = captured.Sub(amount)
	return nil
}

// Charged reports the running total captured on a method.
func (g *Gateway) Charged(methodID string) decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.charged[methodID]
}

func (r ChargeResult) fail(err error) ChargeResult {
	r.Success = false
	r.Err = err
	r.Error = err.Error()
	return r
}
