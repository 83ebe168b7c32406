// Package app builds the long-lived services every transport shares.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buildtall-systems/pidebot/internal/agents/delivery"
	"github.com/buildtall-systems/pidebot/internal/agents/design"
	"github.com/buildtall-systems/pidebot/internal/agents/reservation"
	"github.com/buildtall-systems/pidebot/internal/agents/scaffold"
	"github.com/buildtall-systems/pidebot/internal/catalog"
	"github.com/buildtall-systems/pidebot/internal/config"
	"github.com/buildtall-systems/pidebot/internal/db"
	"github.com/buildtall-systems/pidebot/internal/execmon"
	"github.com/buildtall-systems/pidebot/internal/layout"
	"github.com/buildtall-systems/pidebot/internal/notify"
	"github.com/buildtall-systems/pidebot/internal/payment"
	"github.com/buildtall-systems/pidebot/internal/prompts"
	"github.com/buildtall-systems/pidebot/internal/tracking"
)

// App holds one instance of every service. Build it once with New and
// release it with Close.
type App struct {
	Config      *config.Config
	DB          *db.DB
	Exec        *execmon.Monitor
	Prompts     *prompts.Manager
	Restaurants *catalog.Restaurants
	Furniture   *catalog.Furniture
	Gateway     *payment.Gateway
	Tracker     *tracking.Tracker
	Monitor     *tracking.Monitor
	Notifier    *notify.Fanout
	StatusCache *notify.Redis

	Delivery    *delivery.Agent
	Reservation *reservation.Agent
	Design      *design.Agent
	Scaffold    *scaffold.Agent

	running atomic.Bool
	closers []io.Closer
}

type Options struct {
	// Console receives colored order notifications when notify.console is on.
	Console io.Writer
	Color   bool
	Now     func() time.Time
}

// New opens the database and wires the agents to it.
func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	database, err := db.OpenAndMigrate(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a := &App{Config: cfg, DB: database}
	a.closers = append(a.closers, database)

	mode, err := tracking.ParseMode(cfg.Tracking.UnknownOrders)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Exec = execmon.New(database, execmon.Options{MaxResponseTime: cfg.Monitor.MaxResponseTime, Now: opts.Now})
	if cfg.Verbose {
		a.Exec.OnExecution(func(e db.Execution) {
			log.Printf("execution %s: %s/%s %s in %v", e.ID, e.Agent, e.Kind, e.Status, e.Duration)
		})
	}

	a.Prompts = prompts.NewManager()
	a.Restaurants = catalog.DefaultRestaurants()
	a.Furniture = catalog.DefaultFurniture()
	a.Gateway = payment.NewGateway(payment.DefaultMethods())

	a.Notifier = notify.NewFanout()
	if cfg.Notify.Console {
		a.Notifier.AddRequired(notify.NewConsole(opts.Console, opts.Color))
	}
	a.Notifier.AddBestEffort(notify.NewHistory(database))
	if len(cfg.Notify.KafkaBrokers) > 0 {
		k := notify.NewKafka(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		a.Notifier.AddBestEffort(k)
		a.closers = append(a.closers, k)
		log.Printf("notifications: kafka topic %s on %v", cfg.Notify.KafkaTopic, cfg.Notify.KafkaBrokers)
	}
	if cfg.Notify.RedisAddr != "" {
		client := notify.NewRedisClient(cfg.Notify.RedisAddr)
		a.StatusCache = notify.NewRedis(client, cfg.Notify.RedisTTL)
		a.Notifier.AddBestEffort(a.StatusCache)
		a.closers = append(a.closers, redisCloser{client})
		log.Printf("notifications: redis status cache at %s", cfg.Notify.RedisAddr)
	}

	a.Tracker = tracking.NewTracker(tracking.TrackerOptions{
		AdvanceAfter: cfg.Tracking.AdvanceAfter,
		ETA:          cfg.Tracking.ETA,
		Mode:         mode,
		Now:          opts.Now,
	})
	a.Monitor = tracking.NewMonitor(a.Tracker, tracking.MonitorOptions{
		PollInterval: cfg.Tracking.PollInterval,
		BackoffBase:  cfg.Tracking.BackoffBase,
		BackoffMax:   cfg.Tracking.BackoffMax,
		Notify:       notify.MonitorFunc(a.Notifier),
	})

	placer := layout.NewPlacer(layout.Options{
		GridStep:   cfg.Layout.GridStep,
		Clearance:  cfg.Layout.Clearance,
		WallMargin: cfg.Layout.WallMargin,
	})

	a.Delivery = delivery.New(delivery.Deps{
		Restaurants: a.Restaurants,
		Gateway:     a.Gateway,
		Tracker:     a.Tracker,
		Monitor:     a.Monitor,
		Store:       database,
		Prompts:     a.Prompts,
	}, delivery.Options{DefaultMethod: cfg.Payment.DefaultMethod, Now: opts.Now})
	a.Reservation = reservation.New(database, a.Prompts, reservation.Options{Now: opts.Now})
	a.Design = design.New(a.Furniture, placer, a.Prompts, design.Options{Now: opts.Now})
	a.Scaffold = scaffold.New(a.Prompts, scaffold.Options{Now: opts.Now})

	return a, nil
}

// AddSink attaches a notification sink whose failures make the monitor
// retry. Call it before Run.
func (a *App) AddSink(s notify.Sink) {
	a.Notifier.AddRequired(s)
}

// Run drives the order monitor until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.running.Store(true)
	defer a.running.Store(false)
	err := a.Monitor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Running reports whether Run is active.
func (a *App) Running() bool {
	return a.running.Load()
}

// Close releases the database and any sink connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type redisCloser struct{ c *redis.Client }

func (r redisCloser) Close() error { return r.c.Close() }
