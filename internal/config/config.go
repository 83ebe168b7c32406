package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/spf13/viper"
)

// ErrMissingSecret indicates the bot key was not provided.
var ErrMissingSecret = errors.New("nostr bot secret not set (PIDEBOT_NOSTR_BOT_SECRET)")

// Config holds all application configuration.
type Config struct {
	Verbose  bool
	Database DatabaseConfig
	Nostr    NostrConfig
	Tracking TrackingConfig
	Payment  PaymentConfig
	Layout   LayoutConfig
	Notify   NotifyConfig
	HTTP     HTTPConfig
	Logging  LoggingConfig
	Monitor  MonitorConfig
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string
}

// NostrConfig holds Nostr-related settings. The secret is only filled in by
// LoadWithSecrets.
type NostrConfig struct {
	Relays       []string
	Admins       []string // npubs allowed to run admin commands
	BotSecretHex string
	BotPubkeyHex string
	BotNpub      string
}

// TrackingConfig drives the simulated order lifecycle and its monitor.
type TrackingConfig struct {
	AdvanceAfter  time.Duration
	PollInterval  time.Duration
	ETA           time.Duration
	UnknownOrders string // auto-create or strict
	BackoffBase   time.Duration
	BackoffMax    time.Duration
}

type PaymentConfig struct {
	DefaultMethod string
}

// LayoutConfig holds the furniture placer's grid settings, in metres.
type LayoutConfig struct {
	GridStep   float64
	Clearance  float64
	WallMargin float64
}

type NotifyConfig struct {
	Console      bool
	Nostr        bool
	KafkaBrokers []string
	KafkaTopic   string
	RedisAddr    string
	RedisTTL     time.Duration
}

type HTTPConfig struct {
	Addr string
}

type LoggingConfig struct {
	File string
}

// MonitorConfig configures execution monitoring of agent calls.
type MonitorConfig struct {
	MaxResponseTime time.Duration
}

// SetDefaults registers defaults on v so that environment variables bind to
// every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("database.path", ":memory:")
	v.SetDefault("nostr.relays", []string{"wss://relay.damus.io"})
	v.SetDefault("nostr.admins", []string{})
	v.SetDefault("nostr.bot_secret", "")
	v.SetDefault("tracking.advance_after", "20s")
	v.SetDefault("tracking.poll_interval", "3s")
	v.SetDefault("tracking.eta", "30m")
	v.SetDefault("tracking.unknown_orders", "auto-create")
	v.SetDefault("tracking.backoff_base", "1s")
	v.SetDefault("tracking.backoff_max", "10s")
	v.SetDefault("payment.default_method", "visa-4242")
	v.SetDefault("layout.grid_step", 0.5)
	v.SetDefault("layout.clearance", 0.3)
	v.SetDefault("layout.wall_margin", 0.2)
	v.SetDefault("notify.console", true)
	v.SetDefault("notify.nostr", true)
	v.SetDefault("notify.kafka.brokers", []string{})
	v.SetDefault("notify.kafka.topic", "pidebot.order-status")
	v.SetDefault("notify.redis.addr", "")
	v.SetDefault("notify.redis.ttl", "24h")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("logging.file", "")
	v.SetDefault("monitor.max_response_time", "30s")
}

// Load reads configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Verbose: v.GetBool("verbose"),
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Nostr: NostrConfig{
			Relays: stringList(v, "nostr.relays"),
			Admins: stringList(v, "nostr.admins"),
		},
		Tracking: TrackingConfig{
			AdvanceAfter:  v.GetDuration("tracking.advance_after"),
			PollInterval:  v.GetDuration("tracking.poll_interval"),
			ETA:           v.GetDuration("tracking.eta"),
			UnknownOrders: v.GetString("tracking.unknown_orders"),
			BackoffBase:   v.GetDuration("tracking.backoff_base"),
			BackoffMax:    v.GetDuration("tracking.backoff_max"),
		},
		Payment: PaymentConfig{
			DefaultMethod: v.GetString("payment.default_method"),
		},
		Layout: LayoutConfig{
			GridStep:   v.GetFloat64("layout.grid_step"),
			Clearance:  v.GetFloat64("layout.clearance"),
			WallMargin: v.GetFloat64("layout.wall_margin"),
		},
		Notify: NotifyConfig{
			Console:      v.GetBool("notify.console"),
			Nostr:        v.GetBool("notify.nostr"),
			KafkaBrokers: stringList(v, "notify.kafka.brokers"),
			KafkaTopic:   v.GetString("notify.kafka.topic"),
			RedisAddr:    v.GetString("notify.redis.addr"),
			RedisTTL:     v.GetDuration("notify.redis.ttl"),
		},
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
		Logging: LoggingConfig{
			File: v.GetString("logging.file"),
		},
		Monitor: MonitorConfig{
			MaxResponseTime: v.GetDuration("monitor.max_response_time"),
		},
	}

	// Apply defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = ":memory:"
	}
	if len(cfg.Nostr.Relays) == 0 {
		cfg.Nostr.Relays = []string{"wss://relay.damus.io"}
	}
	if cfg.Tracking.UnknownOrders == "" {
		cfg.Tracking.UnknownOrders = "auto-create"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// LoadWithSecrets loads configuration and resolves the bot key, which may be
// given as hex or nsec.
func LoadWithSecrets() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	secret := strings.TrimSpace(viper.GetString("nostr.bot_secret"))
	if err := cfg.resolveSecret(secret); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolveSecret(secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if strings.HasPrefix(secret, "nsec") {
		prefix, value, err := nip19.Decode(secret)
		if err != nil || prefix != "nsec" {
			return fmt.Errorf("decoding nsec: %w", err)
		}
		secret = value.(string)
	}

	pub, err := nostr.GetPublicKey(secret)
	if err != nil {
		return fmt.Errorf("deriving bot pubkey: %w", err)
	}
	npub, err := nip19.EncodePublicKey(pub)
	if err != nil {
		return fmt.Errorf("encoding bot npub: %w", err)
	}

	c.Nostr.BotSecretHex = secret
	c.Nostr.BotPubkeyHex = pub
	c.Nostr.BotNpub = npub
	return nil
}

// Validate lists every problem with the configuration.
func (c *Config) Validate() []string {
	var problems []string
	switch c.Tracking.UnknownOrders {
	case "auto-create", "strict":
	default:
		problems = append(problems, fmt.Sprintf("tracking.unknown_orders must be auto-create or strict, got %q", c.Tracking.UnknownOrders))
	}
	if c.Tracking.AdvanceAfter <= 0 {
		problems = append(problems, "tracking.advance_after must be positive")
	}
	if c.Tracking.PollInterval <= 0 {
		problems = append(problems, "tracking.poll_interval must be positive")
	}
	if c.Tracking.ETA <= 0 {
		problems = append(problems, "tracking.eta must be positive")
	}
	if c.Tracking.BackoffMax < c.Tracking.BackoffBase {
		problems = append(problems, "tracking.backoff_max must not be below tracking.backoff_base")
	}
	// A retried pass must still land before the order is due to advance.
	if c.Tracking.PollInterval > 0 && c.Tracking.PollInterval+c.Tracking.BackoffMax >= c.Tracking.AdvanceAfter {
		problems = append(problems, fmt.Sprintf("tracking.poll_interval + tracking.backoff_max (%s) must be below tracking.advance_after (%s)",
			c.Tracking.PollInterval+c.Tracking.BackoffMax, c.Tracking.AdvanceAfter))
	}
	if c.Layout.GridStep <= 0 {
		problems = append(problems, "layout.grid_step must be positive")
	}
	if c.Layout.Clearance < 0 {
		problems = append(problems, "layout.clearance must not be negative")
	}
	if c.Layout.WallMargin < 0 {
		problems = append(problems, "layout.wall_margin must not be negative")
	}
	if len(c.Notify.KafkaBrokers) > 0 && c.Notify.KafkaTopic == "" {
		problems = append(problems, "notify.kafka.topic is required when brokers are set")
	}
	return problems
}

// stringList accepts both list values and comma separated strings, which is
// what environment variables provide.
func stringList(v *viper.Viper, key string) []string {
	raw := v.GetStringSlice(key)
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if t := strings.TrimSpace(part); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
