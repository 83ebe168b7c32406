package commands

import (
	"errors"
	"regexp"

	"github.com/nbd-wtf/go-nostr/nip19"
)

// ErrAdminOnly is returned for admin commands from other senders.
var ErrAdminOnly = errors.New("admin command requires admin privileges")

// Sender identifies who sent a message. ID is the customer key orders and
// reservations are filed under.
type Sender struct {
	ID    string
	Admin bool
}

var hexPubkey = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsAdmin checks if the given npub is in the admin list.
func IsAdmin(npub string, admins []string) bool {
	for _, admin := range admins {
		if admin == npub {
			return true
		}
	}
	return false
}

// NostrSender builds the sender for a hex pubkey, granting admin when its
// npub is listed.
func NostrSender(pubkeyHex string, admins []string) Sender {
	s := Sender{ID: pubkeyHex}
	if !hexPubkey.MatchString(pubkeyHex) {
		return s
	}
	npub, err := nip19.EncodePublicKey(pubkeyHex)
	if err != nil {
		return s
	}
	s.Admin = IsAdmin(npub, admins)
	return s
}

// CanExecute returns an error if the sender lacks permission to run the command.
func CanExecute(cmd *Command, sender Sender) error {
	if cmd.IsAdminCommand() && !sender.Admin {
		return ErrAdminOnly
	}
	return nil
}
