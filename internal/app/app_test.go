package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/buildtall-systems/pidebot/internal/config"
	"github.com/buildtall-systems/pidebot/internal/fsm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("tracking.poll_interval", "20ms")
	v.Set("tracking.advance_after", "1h")
	cfg, err := config.LoadFrom(v)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := New(testConfig(t), Options{Console: &out})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func TestNew_WiresAgents(t *testing.T) {
	a, _ := newTestApp(t)
	if a.Delivery == nil || a.Reservation == nil || a.Design == nil || a.Scaffold == nil {
		t.Fatal("agent missing")
	}
	// console (required) and history (best effort)
	if got := a.Notifier.Len(); got != 2 {
		t.Errorf("sinks = %d, want 2", got)
	}
	if a.StatusCache != nil {
		t.Error("redis cache wired without an address")
	}
}

func TestNew_InvalidMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tracking.UnknownOrders = "lenient"
	if _, err := New(cfg, Options{}); err == nil {
		t.Fatal("expected error for unknown tracking mode")
	}
}

func TestApp_OrderFlow(t *testing.T) {
	a, out := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	order, err := a.Delivery.ConfirmOrder(ctx, "console", "pid-margherita", "visa-4242")
	if err != nil {
		t.Fatalf("ConfirmOrder: %v", err)
	}

	if _, err := a.Delivery.CancelOrder(ctx, "console", order.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte(fsm.OrderStateCancelled)) {
		t.Errorf("console output missing cancellation:\n%s", out.String())
	}

	stats, err := a.Stats(ctx, time.Time{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !stats.MonitorRunning {
		t.Error("monitor not reported running")
	}
	if len(stats.Monitor.Orders) != 0 {
		t.Errorf("active orders = %d, want 0", len(stats.Monitor.Orders))
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestApp_StatsWithoutRun(t *testing.T) {
	a, _ := newTestApp(t)
	stats, err := a.Stats(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.MonitorRunning {
		t.Error("monitor reported running before Run")
	}
}
