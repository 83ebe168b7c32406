package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T, overrides map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t, nil))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Database.Path != ":memory:" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Tracking.AdvanceAfter != 20*time.Second || cfg.Tracking.PollInterval != 3*time.Second || cfg.Tracking.ETA != 30*time.Minute {
		t.Errorf("tracking = %+v", cfg.Tracking)
	}
	if cfg.Tracking.BackoffBase != time.Second || cfg.Tracking.BackoffMax != 10*time.Second {
		t.Errorf("backoff = %v..%v", cfg.Tracking.BackoffBase, cfg.Tracking.BackoffMax)
	}
	if cfg.Tracking.UnknownOrders != "auto-create" {
		t.Errorf("unknown orders = %q", cfg.Tracking.UnknownOrders)
	}
	if cfg.Layout.GridStep != 0.5 || cfg.Layout.Clearance != 0.3 || cfg.Layout.WallMargin != 0.2 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if len(cfg.Nostr.Relays) != 1 || cfg.Nostr.Relays[0] != "wss://relay.damus.io" {
		t.Errorf("relays = %v", cfg.Nostr.Relays)
	}
	if cfg.Monitor.MaxResponseTime != 30*time.Second {
		t.Errorf("max response time = %v", cfg.Monitor.MaxResponseTime)
	}
}

func TestLoadFrom_CommaSeparatedLists(t *testing.T) {
	cfg, err := LoadFrom(newViper(t, map[string]any{
		"notify.kafka.brokers": "k1:9092, k2:9092",
		"nostr.relays":         []string{"wss://a", "wss://b,wss://c"},
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(cfg.Notify.KafkaBrokers) != 2 || cfg.Notify.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Notify.KafkaBrokers)
	}
	if len(cfg.Nostr.Relays) != 3 {
		t.Errorf("relays = %v", cfg.Nostr.Relays)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"bad mode", "tracking.unknown_orders", "lenient", "unknown_orders"},
		{"zero poll", "tracking.poll_interval", "0s", "poll_interval"},
		{"negative clearance", "layout.clearance", -0.1, "clearance"},
		{"zero step", "layout.grid_step", 0, "grid_step"},
		{"backoff outlasts advance", "tracking.backoff_max", "17s", "backoff_max"},
		{"slow poll", "tracking.poll_interval", "20s", "advance_after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(newViper(t, map[string]any{tt.key: tt.val}))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestResolveSecret(t *testing.T) {
	const secretHex = "234702910939c3394838131938e8da0dcfec369df3e51990263eae626aa73f87"
	const pubkeyHex = "1eca03bebec0590b918861b4431d57ff574702fa8cb015ccd566b509e9480c42"

	cfg := &Config{}
	if err := cfg.resolveSecret(""); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("empty secret err = %v", err)
	}
	if err := cfg.resolveSecret(secretHex); err != nil {
		t.Fatalf("resolveSecret: %v", err)
	}
	if cfg.Nostr.BotPubkeyHex != pubkeyHex {
		t.Errorf("pubkey = %s, want %s", cfg.Nostr.BotPubkeyHex, pubkeyHex)
	}
	if !strings.HasPrefix(cfg.Nostr.BotNpub, "npub1") {
		t.Errorf("npub = %s", cfg.Nostr.BotNpub)
	}
}
