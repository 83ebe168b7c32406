// Package nostr connects the bot to its relays.
package nostr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sethvargo/go-retry"
)

// ErrNoRelays indicates no relay could be reached.
var ErrNoRelays = errors.New("failed to connect to any relays")

// Publisher sends a signed event to relays.
type Publisher interface {
	Publish(ctx context.Context, event *nostr.Event) error
}

// RelayManager handles connections to multiple Nostr relays and fans their
// DM subscriptions into one channel.
type RelayManager struct {
	relayURLs    []string
	botPubkeyHex string
	since        nostr.Timestamp
	relays       []*nostr.Relay
	mu           sync.RWMutex

	dmEvents chan *nostr.Event // kind:1059 and kind:4 addressed to the bot

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// GiftWrapLookback is how far before the last processed event the
// subscription starts. Gift wraps carry a randomized created_at up to two
// days in the past.
const GiftWrapLookback = 48 * time.Hour

// NewRelayManager creates a relay manager. since is the last processed event
// time; the subscription starts GiftWrapLookback before it. A zero since sets
// no lower bound.
func NewRelayManager(relayURLs []string, botPubkeyHex string, since time.Time) *RelayManager {
	var ts nostr.Timestamp
	if !since.IsZero() {
		ts = nostr.Timestamp(since.Unix())
	}
	return &RelayManager{
		relayURLs:    relayURLs,
		botPubkeyHex: botPubkeyHex,
		since:        ts,
		dmEvents:     make(chan *nostr.Event, 100),
	}
}

// Connect establishes connections to all configured relays and starts subscriptions.
func (rm *RelayManager) Connect(ctx context.Context) error {
	rm.ctx, rm.cancel = context.WithCancel(ctx)

	var connected int
	for _, url := range rm.relayURLs {
		relay, err := nostr.RelayConnect(rm.ctx, url)
		if err != nil {
			log.Printf("failed to connect to %s: %v", url, err)
			continue
		}

		rm.mu.Lock()
		rm.relays = append(rm.relays, relay)
		rm.mu.Unlock()

		connected++
		log.Printf("connected to %s", url)

		rm.wg.Add(1)
		go rm.subscribeRelay(relay)
	}

	if connected == 0 {
		return ErrNoRelays
	}

	log.Printf("connected to %d/%d relays", connected, len(rm.relayURLs))
	return nil
}

func (rm *RelayManager) filters() []nostr.Filter {
	f := nostr.Filter{
		Kinds: []int{nostr.KindGiftWrap, nostr.KindEncryptedDirectMessage},
		Tags:  nostr.TagMap{"p": []string{rm.botPubkeyHex}},
	}
	if rm.since > 0 {
		s := rm.since - nostr.Timestamp(GiftWrapLookback/time.Second)
		f.Since = &s
	}
	return []nostr.Filter{f}
}

// subscribeRelay keeps one relay subscribed, reconnecting with capped
// exponential backoff.
func (rm *RelayManager) subscribeRelay(relay *nostr.Relay) {
	defer rm.wg.Done()

	for {
		sub, err := relay.Subscribe(rm.ctx, rm.filters())
		if err != nil {
			log.Printf("subscription failed on %s: %v", relay.URL, err)
		} else {
			log.Printf("subscribed to events on %s", relay.URL)
			if !rm.drain(relay, sub) {
				return
			}
			log.Printf("subscription closed on %s, reconnecting...", relay.URL)
		}

		if err := rm.reconnect(relay); err != nil {
			return
		}
	}
}

// drain forwards events until the subscription closes. It reports false when
// the manager is shutting down.
func (rm *RelayManager) drain(relay *nostr.Relay, sub *nostr.Subscription) bool {
	for {
		select {
		case <-rm.ctx.Done():
			sub.Unsub()
			return false
		case event, ok := <-sub.Events:
			if !ok {
				return true
			}
			select {
			case rm.dmEvents <- event:
			default:
				log.Printf("dm event channel full, dropping event %s from %s", event.ID, relay.URL)
			}
		}
	}
}

// reconnect retries relay.Connect until it succeeds or the manager stops.
func (rm *RelayManager) reconnect(relay *nostr.Relay) error {
	b := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
	return retry.Do(rm.ctx, b, func(ctx context.Context) error {
		if err := relay.Connect(ctx); err != nil {
			log.Printf("reconnect to %s failed: %v", relay.URL, err)
			return retry.RetryableError(err)
		}
		log.Printf("reconnected to %s", relay.URL)
		return nil
	})
}

// DMEvents returns inbound DM events from every relay. The same event may
// arrive once per relay.
func (rm *RelayManager) DMEvents() <-chan *nostr.Event {
	return rm.dmEvents
}

// Publish sends an event to all connected relays.
func (rm *RelayManager) Publish(ctx context.Context, event *nostr.Event) error {
	rm.mu.RLock()
	relays := make([]*nostr.Relay, len(rm.relays))
	copy(relays, rm.relays)
	rm.mu.RUnlock()

	var lastErr error
	var published int

	for _, relay := range relays {
		if err := relay.Publish(ctx, *event); err != nil {
			lastErr = err
			log.Printf("publish to %s failed: %v", relay.URL, err)
			continue
		}
		published++
	}

	if published == 0 {
		return fmt.Errorf("failed to publish to any relay: %w", lastErr)
	}

	log.Printf("published event %s to %d relays", event.ID, published)
	return nil
}

// Close gracefully shuts down all relay connections.
func (rm *RelayManager) Close() {
	if rm.cancel != nil {
		rm.cancel()
	}

	rm.wg.Wait()

	rm.mu.Lock()
	for _, relay := range rm.relays {
		_ = relay.Close()
	}
	rm.relays = nil
	rm.mu.Unlock()

	close(rm.dmEvents)

	log.Printf("relay manager closed")
}
