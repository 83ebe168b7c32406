package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/config"
	"github.com/buildtall-systems/pidebot/internal/dm"
	"github.com/buildtall-systems/pidebot/internal/fsm"
	"github.com/buildtall-systems/pidebot/internal/nostr"
	"github.com/buildtall-systems/pidebot/internal/notify"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the pidebot Nostr service",
	Long: `Start the pidebot Nostr bot. Connects to relays, answers encrypted DMs
and pushes order status updates back to customers until interrupted.`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithSecrets()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.Printf("pidebot starting...")
	log.Printf("bot npub: %s", cfg.Nostr.BotNpub)
	log.Printf("relays: %v", cfg.Nostr.Relays)
	log.Printf("database: %s", cfg.Database.Path)

	messenger, err := dm.NewMessenger(cfg.Nostr.BotSecretHex)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	log.Printf("database ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	hwm, err := a.DB.GetHighWaterMark(ctx)
	if err != nil {
		return fmt.Errorf("reading high water mark: %w", err)
	}
	var since time.Time
	if hwm > 0 {
		since = time.Unix(hwm, 0)
	}

	relayMgr := nostr.NewRelayManager(cfg.Nostr.Relays, cfg.Nostr.BotPubkeyHex, since)
	if err := relayMgr.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to relays: %w", err)
	}
	defer relayMgr.Close()

	if cfg.Notify.Nostr {
		a.AddSink(notify.NewNostr(messenger, relayMgr))
	}

	b := newBot(a, messenger, relayMgr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error {
		b.dedup.CleanupLoop(gctx, time.Minute)
		return nil
	})
	g.Go(func() error { return b.loop(gctx, relayMgr.DMEvents()) })

	log.Printf("pidebot running, waiting for events...")
	return g.Wait()
}

// bot answers DMs one at a time.
type bot struct {
	app       *app.App
	messenger *dm.Messenger
	publisher nostr.Publisher
	dedup     *nostr.Deduplicator
	proc      *fsm.MessageProcessorFSM
}

func newBot(a *app.App, m *dm.Messenger, p nostr.Publisher) *bot {
	b := &bot{
		app:       a,
		messenger: m,
		publisher: p,
		dedup:     nostr.NewDeduplicator(10 * time.Minute),
		proc:      fsm.NewMessageProcessorFSM(),
	}
	if a.Config.Verbose {
		for _, s := range []string{fsm.ProcessorStateHandlingMessage, fsm.ProcessorStateSendingReply} {
			state := s
			b.proc.OnEnter(state, func() { log.Printf("processor: %s", state) })
		}
	}
	return b
}

func (b *bot) loop(ctx context.Context, events <-chan *gonostr.Event) error {
	for {
		select {
		case <-ctx.Done():
			log.Printf("shutting down...")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event == nil {
				continue
			}
			b.handle(ctx, event)
		}
	}
}

// handle processes a single DM event end to end. Failures are logged; the
// loop keeps going.
func (b *bot) handle(ctx context.Context, event *gonostr.Event) {
	if b.dedup.Seen(event.ID) {
		return
	}
	fresh, err := b.app.DB.TryProcess(ctx, event.ID, event.Kind, int64(event.CreatedAt))
	if err != nil {
		log.Printf("failed to record event %s: %v", event.ID, err)
		return
	}
	if !fresh {
		log.Printf("event %s already processed", event.ID)
		return
	}

	msg, err := b.messenger.Open(ctx, event)
	if err != nil {
		log.Printf("failed to open DM %s: %v", event.ID, err)
		return
	}

	senderNpub, _ := nip19.EncodePublicKey(msg.Sender)
	log.Printf("DM from %s: %s", senderNpub, msg.Content)

	cmd := commands.Parse(msg.Content)
	if cmd == nil {
		log.Printf("empty message, ignoring")
		return
	}

	if err := b.proc.Event(ctx, fsm.ProcessorEventMessageReceived); err != nil {
		log.Printf("processor stuck in %s, resetting: %v", b.proc.Current(), err)
		b.proc.Reset()
		_ = b.proc.Event(ctx, fsm.ProcessorEventMessageReceived)
	}

	sender := commands.NostrSender(msg.Sender, b.app.Config.Nostr.Admins)
	log.Printf("executing command: %s for %s", cmd.Name, senderNpub)
	result := commands.Execute(ctx, b.app, cmd, sender)

	reply := result.Message
	if result.Error != nil {
		log.Printf("command error for %s: %v", senderNpub, result.Error)
		reply = commands.ErrorText(b.app, result.Error)
	}
	_ = b.proc.Event(ctx, fsm.ProcessorEventMessageHandled)

	if err := b.reply(ctx, msg, reply); err != nil {
		log.Printf("failed to reply to %s: %v", senderNpub, err)
		_ = b.proc.Event(ctx, fsm.ProcessorEventError)
		return
	}
	_ = b.proc.Event(ctx, fsm.ProcessorEventReplySent)

	if err := b.app.DB.SetHighWaterMark(ctx, int64(event.CreatedAt)); err != nil {
		log.Printf("failed to store high water mark: %v", err)
	}
}

// reply answers over the same protocol the customer used.
func (b *bot) reply(ctx context.Context, msg dm.Message, text string) error {
	ev, err := b.messenger.Seal(ctx, msg.Sender, text, msg.Protocol)
	if err != nil {
		return err
	}
	return b.publisher.Publish(ctx, ev)
}
