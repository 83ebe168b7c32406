package commands

import (
	"strings"
)

// Command represents a parsed user message.
type Command struct {
	Name string   // command name (lowercase), CmdChat for free text
	Args []string // words after the command name
	Text string   // text after the command name, line breaks kept
	Raw  string   // the whole message, trimmed
}

// Known command names
const (
	CmdHelp     = "help"
	CmdOrder    = "order"
	CmdTrack    = "track"
	CmdCancel   = "cancel"
	CmdReserve  = "reserve"
	CmdDesign   = "design"
	CmdScaffold = "scaffold"

	// Admin commands
	CmdStatus = "status"
	CmdStats  = "stats"

	// CmdChat marks free text routed by content.
	CmdChat = "chat"
)

// bare commands only count when sent without arguments, so "status of
// ORD-..." or "help me find sushi" stay free text.
var bare = map[string]bool{CmdHelp: true, CmdStatus: true, CmdStats: true}

var known = map[string]bool{
	CmdHelp: true, CmdOrder: true, CmdTrack: true, CmdCancel: true,
	CmdReserve: true, CmdDesign: true, CmdScaffold: true,
	CmdStatus: true, CmdStats: true,
}

// Parse extracts a command from message content.
// Returns nil if the message is empty or contains only whitespace.
func Parse(content string) *Command {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	parts := strings.Fields(content)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	rest := strings.TrimSpace(content[len(parts[0]):])

	if !known[name] || (bare[name] && len(parts) > 1) {
		return &Command{Name: CmdChat, Args: parts, Text: content, Raw: content}
	}
	return &Command{Name: name, Args: parts[1:], Text: rest, Raw: content}
}

// IsAdminCommand returns true if the command requires admin privileges.
func (c *Command) IsAdminCommand() bool {
	switch c.Name {
	case CmdStatus, CmdStats:
		return true
	default:
		return false
	}
}

// IsValid returns true if the command name is recognized.
func (c *Command) IsValid() bool {
	return known[c.Name] || c.Name == CmdChat
}
