package commands

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantNil  bool
		wantName string
		wantArgs []string
		wantText string
	}{
		{
			name:    "empty string",
			input:   "",
			wantNil: true,
		},
		{
			name:    "whitespace only",
			input:   "   \t\n  ",
			wantNil: true,
		},
		{
			name:     "single command",
			input:    "help",
			wantName: CmdHelp,
			wantArgs: []string{},
		},
		{
			name:     "command with args",
			input:    "order pid-margherita visa-4242",
			wantName: CmdOrder,
			wantArgs: []string{"pid-margherita", "visa-4242"},
			wantText: "pid-margherita visa-4242",
		},
		{
			name:     "uppercase normalized to lowercase",
			input:    "TRACK ORD-1A2B3C4D",
			wantName: CmdTrack,
			wantArgs: []string{"ORD-1A2B3C4D"},
			wantText: "ORD-1A2B3C4D",
		},
		{
			name:     "slash prefix stripped",
			input:    "/design dining_room 4x4 2000",
			wantName: CmdDesign,
			wantArgs: []string{"dining_room", "4x4", "2000"},
			wantText: "dining_room 4x4 2000",
		},
		{
			name:     "line breaks kept in text",
			input:    "scaffold\nmodel: User\n- name: string",
			wantName: CmdScaffold,
			wantArgs: []string{"model:", "User", "-", "name:", "string"},
			wantText: "model: User\n- name: string",
		},
		{
			name:     "free text becomes chat",
			input:    "I want Italian food",
			wantName: CmdChat,
			wantArgs: []string{"I", "want", "Italian", "food"},
			wantText: "I want Italian food",
		},
		{
			name:     "help with words is chat",
			input:    "help me find sushi",
			wantName: CmdChat,
			wantArgs: []string{"help", "me", "find", "sushi"},
			wantText: "help me find sushi",
		},
		{
			name:     "status with words is chat",
			input:    "status of ORD-1A2B3C4D",
			wantName: CmdChat,
			wantArgs: []string{"status", "of", "ORD-1A2B3C4D"},
			wantText: "status of ORD-1A2B3C4D",
		},
		{
			name:     "bare stats",
			input:    "  stats  ",
			wantName: CmdStats,
			wantArgs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)

			if tt.wantNil {
				if got != nil {
					t.Errorf("Parse(%q) = %+v, want nil", tt.input, got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Parse(%q) = nil, want command", tt.input)
			}
			if got.Name != tt.wantName {
				t.Errorf("Parse(%q).Name = %q, want %q", tt.input, got.Name, tt.wantName)
			}
			if len(got.Args) != len(tt.wantArgs) {
				t.Fatalf("Parse(%q).Args = %v, want %v", tt.input, got.Args, tt.wantArgs)
			}
			for i, arg := range got.Args {
				if arg != tt.wantArgs[i] {
					t.Errorf("Parse(%q).Args[%d] = %q, want %q", tt.input, i, arg, tt.wantArgs[i])
				}
			}
			if got.Text != tt.wantText {
				t.Errorf("Parse(%q).Text = %q, want %q", tt.input, got.Text, tt.wantText)
			}
		})
	}
}

func TestCommand_IsAdminCommand(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{CmdStatus, true},
		{CmdStats, true},
		{CmdHelp, false},
		{CmdOrder, false},
		{CmdDesign, false},
		{CmdChat, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &Command{Name: tt.name}
			if got := cmd.IsAdminCommand(); got != tt.want {
				t.Errorf("IsAdminCommand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommand_IsValid(t *testing.T) {
	for _, name := range []string{CmdHelp, CmdOrder, CmdTrack, CmdCancel, CmdReserve, CmdDesign, CmdScaffold, CmdStatus, CmdStats, CmdChat} {
		if !(&Command{Name: name}).IsValid() {
			t.Errorf("%q should be valid", name)
		}
	}
	if (&Command{Name: "inventory"}).IsValid() {
		t.Error("inventory should not be valid")
	}
}
