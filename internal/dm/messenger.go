// Package dm opens inbound Nostr direct messages and seals replies.
package dm

import (
	"context"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/keyer"
	"github.com/nbd-wtf/go-nostr/nip04"
	"github.com/nbd-wtf/go-nostr/nip59"
)

// ErrUnsupportedKind indicates an event that is not a direct message.
var ErrUnsupportedKind = errors.New("unsupported dm kind")

// Protocol indicates which DM protocol a message arrived with, and so which
// one its reply must use.
type Protocol int

const (
	ProtocolNIP04 Protocol = Protocol(nostr.KindEncryptedDirectMessage) // kind:4
	ProtocolNIP17 Protocol = Protocol(nostr.KindGiftWrap)               // kind:1059
)

// Message is a decrypted inbound DM.
type Message struct {
	EventID  string
	Sender   string
	Content  string
	Protocol Protocol
	SentAt   nostr.Timestamp
}

// Messenger holds the bot key and does all DM crypto.
type Messenger struct {
	kr        nostr.Keyer
	secretHex string
	pubkeyHex string
}

func NewMessenger(secretHex string) (*Messenger, error) {
	kr, err := keyer.NewPlainKeySigner(secretHex)
	if err != nil {
		return nil, fmt.Errorf("creating keyer: %w", err)
	}
	pub, err := nostr.GetPublicKey(secretHex)
	if err != nil {
		return nil, fmt.Errorf("deriving pubkey: %w", err)
	}
	return &Messenger{kr: kr, secretHex: secretHex, pubkeyHex: pub}, nil
}

func (m *Messenger) PublicKey() string { return m.pubkeyHex }

// Open decrypts a kind:1059 gift wrap or a legacy kind:4 DM.
func (m *Messenger) Open(ctx context.Context, ev *nostr.Event) (Message, error) {
	switch ev.Kind {
	case nostr.KindGiftWrap:
		rumor, err := nip59.GiftUnwrap(*ev, func(pubkey, ciphertext string) (string, error) {
			return m.kr.Decrypt(ctx, ciphertext, pubkey)
		})
		if err != nil {
			return Message{}, fmt.Errorf("unwrapping gift: %w", err)
		}
		return Message{
			EventID:  ev.ID,
			Sender:   rumor.PubKey,
			Content:  rumor.Content,
			Protocol: ProtocolNIP17,
			SentAt:   rumor.CreatedAt,
		}, nil

	case nostr.KindEncryptedDirectMessage:
		shared, err := nip04.ComputeSharedSecret(ev.PubKey, m.secretHex)
		if err != nil {
			return Message{}, fmt.Errorf("computing shared secret: %w", err)
		}
		plain, err := nip04.Decrypt(ev.Content, shared)
		if err != nil {
			return Message{}, fmt.Errorf("decrypting message: %w", err)
		}
		return Message{
			EventID:  ev.ID,
			Sender:   ev.PubKey,
			Content:  plain,
			Protocol: ProtocolNIP04,
			SentAt:   ev.CreatedAt,
		}, nil
	}
	return Message{}, fmt.Errorf("kind %d: %w", ev.Kind, ErrUnsupportedKind)
}

// Seal builds a signed, ready-to-publish DM to recipient.
func (m *Messenger) Seal(ctx context.Context, recipientHex, text string, proto Protocol) (*nostr.Event, error) {
	if proto == ProtocolNIP04 {
		return m.sealLegacy(ctx, recipientHex, text)
	}

	// rumor (kind:14) -> seal (kind:13) -> gift wrap (kind:1059)
	rumor := nostr.Event{
		PubKey:    m.pubkeyHex,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindDirectMessage,
		Tags:      nostr.Tags{nostr.Tag{"p", recipientHex}},
		Content:   text,
	}
	wrap, err := nip59.GiftWrap(
		rumor,
		recipientHex,
		func(plaintext string) (string, error) {
			return m.kr.Encrypt(ctx, plaintext, recipientHex)
		},
		func(event *nostr.Event) error {
			return m.kr.SignEvent(ctx, event)
		},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("gift wrapping reply: %w", err)
	}
	return &wrap, nil
}

func (m *Messenger) sealLegacy(ctx context.Context, recipientHex, text string) (*nostr.Event, error) {
	shared, err := nip04.ComputeSharedSecret(recipientHex, m.secretHex)
	if err != nil {
		return nil, fmt.Errorf("computing shared secret: %w", err)
	}
	ciphertext, err := nip04.Encrypt(text, shared)
	if err != nil {
		return nil, fmt.Errorf("encrypting message: %w", err)
	}
	ev := &nostr.Event{
		PubKey:    m.pubkeyHex,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindEncryptedDirectMessage,
		Tags:      nostr.Tags{nostr.Tag{"p", recipientHex}},
		Content:   ciphertext,
	}
	if err := m.kr.SignEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("signing event: %w", err)
	}
	return ev, nil
}
