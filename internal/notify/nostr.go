package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/sethvargo/go-retry"

	"github.com/buildtall-systems/pidebot/internal/dm"
	"github.com/buildtall-systems/pidebot/internal/nostr"
)

// Nostr DMs each notification to the customer's pubkey.
type Nostr struct {
	messenger *dm.Messenger
	publisher nostr.Publisher
	attempts  uint64
	base      time.Duration
}

func NewNostr(m *dm.Messenger, p nostr.Publisher) *Nostr {
	return &Nostr{messenger: m, publisher: p, attempts: 3, base: 500 * time.Millisecond}
}

// Notify publishes a gift-wrapped DM, retrying relay failures. Customers
// that are not hex pubkeys (console or HTTP users) are skipped.
func (s *Nostr) Notify(ctx context.Context, n Notification) error {
	if n.Customer == "" {
		return ErrNoRecipient
	}
	if !gonostr.IsValidPublicKey(n.Customer) {
		return nil
	}

	ev, err := s.messenger.Seal(ctx, n.Customer, n.Message, dm.ProtocolNIP17)
	if err != nil {
		return fmt.Errorf("sealing notification for %s: %w", n.OrderID, err)
	}

	b := retry.WithMaxRetries(s.attempts, retry.NewExponential(s.base))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			log.Printf("notification publish for %s failed: %v", n.OrderID, err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publishing notification for %s: %w", n.OrderID, err)
	}
	return nil
}
