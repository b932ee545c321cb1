package moderation

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func infoMessage(content string, roles ...Role) Message {
	return Message{ID: "cmd", ChannelID: cmdChannel, AuthorID: "user", AuthorName: "user", Content: content, Roles: roles}
}

func infoConfig() Config {
	cfg := testConfig()
	cfg.TokenLevels = []string{"lvl-1", "lvl-2", "lvl-3"}
	return cfg
}

func newInfo() (*Info, *fakeChat) {
	chat := &fakeChat{}
	return NewInfo(infoConfig(), chat, log.New(io.Discard)), chat
}

func TestInfo_Balance(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  string
	}{
		{"no roles", nil, "<@user>, your token balance is: 0"},
		{"other roles only", []Role{{ID: "m", Name: "Member"}}, "<@user>, your token balance is: 0"},
		{
			name: "two tokens",
			roles: []Role{
				{ID: "lvl-1", Name: "Playlist Token (Lvl 1)"},
				{ID: "m", Name: "Member"},
				{ID: "lvl-3", Name: "Playlist Token (Lvl 3)"},
			},
			want: "<@user>, your token balance is: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, chat := newInfo()

			info.Handle(context.Background(), infoMessage(BalanceCommand, tt.roles...))

			if len(chat.sent) != 1 || chat.sent[0] != tt.want {
				t.Errorf("sent = %q, want [%q]", chat.sent, tt.want)
			}
		})
	}
}

func TestInfo_Level(t *testing.T) {
	member := Role{ID: "m", Name: "Member"}
	tok := func(id string) Role { return Role{ID: id, Name: "Playlist Token " + id} }

	tests := []struct {
		name  string
		roles []Role
		want  string
	}{
		{"not a member", nil, "<@user>, according to my calculations... you're not even a member o.O"},
		{"no tokens", []Role{member}, "<@user>, you have no tokens."},
		{"one token", []Role{member, tok("lvl-2")}, "<@user>, you have a level 10 token."},
		{"two tokens", []Role{tok("lvl-1"), tok("lvl-3")}, "<@user>, you have a level 5 and 15 token."},
		{"three tokens", []Role{tok("lvl-3"), tok("lvl-1"), tok("lvl-2")}, "<@user>, you have a level 15, 5 and 10 token."},
		{"unknown level", []Role{tok("retired")}, "<@user>, I couldn't work out the level of your token(s)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, chat := newInfo()

			info.Handle(context.Background(), infoMessage(LevelCommand, tt.roles...))

			if len(chat.sent) != 1 || chat.sent[0] != tt.want {
				t.Errorf("sent = %q, want [%q]", chat.sent, tt.want)
			}
		})
	}
}

func TestTokenLevel(t *testing.T) {
	levels := []string{"a", "b", "c", "d"}
	tests := []struct {
		roleID string
		want   int
		wantOK bool
	}{
		{"a", 5, true},
		{"b", 10, true},
		{"d", 20, true},
		{"z", 0, false},
	}
	for _, tt := range tests {
		got, ok := tokenLevel(levels, tt.roleID)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("tokenLevel(%q) = %d, %v, want %d, %v", tt.roleID, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestJoinAnd(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"5"}, "5"},
		{[]string{"5", "10"}, "5 and 10"},
		{[]string{"5", "10", "15"}, "5, 10 and 15"},
	}
	for _, tt := range tests {
		if got := joinAnd(tt.in); got != tt.want {
			t.Errorf("joinAnd(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInfo_Help(t *testing.T) {
	info, chat := newInfo()

	info.Handle(context.Background(), infoMessage(HelpCommand))

	if len(chat.embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(chat.embeds))
	}
	embed := chat.embeds[0]
	if embed.Title != "TokenBot" || embed.Color != embedColor {
		t.Errorf("embed = %+v", embed)
	}
	if len(embed.Fields) != 1 || !strings.Contains(embed.Fields[0].Value, "<#"+helpChannel+">") {
		t.Errorf("fields = %+v, want help channel mention", embed.Fields)
	}
}

func TestInfo_Commands(t *testing.T) {
	info, chat := newInfo()

	info.Handle(context.Background(), infoMessage(CommandsCommand))

	if len(chat.embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(chat.embeds))
	}
	fields := chat.embeds[0].Fields
	if len(fields)%3 != 0 {
		t.Errorf("%d fields, want a multiple of 3", len(fields))
	}
	var names []string
	for _, f := range fields {
		if f != blankField {
			names = append(names, f.Name)
		}
	}
	want := []string{BalanceCommand, CommandsCommand, HelpCommand, LevelCommand}
	if strings.Join(names, " ") != strings.Join(want, " ") {
		t.Errorf("commands = %v, want %v", names, want)
	}
}

func TestInfo_Ignores(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"other channel", Message{ChannelID: subChannel, Content: BalanceCommand}},
		{"bot author", Message{ChannelID: cmdChannel, Content: HelpCommand, AuthorBot: true}},
		{"unknown command", Message{ChannelID: cmdChannel, Content: "]dance"}},
		{"command inside text", Message{ChannelID: cmdChannel, Content: "try ]help"}},
		{"review command", Message{ChannelID: cmdChannel, Content: ReviewCommand}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, chat := newInfo()

			info.Handle(context.Background(), tt.msg)

			if len(chat.sent) != 0 || len(chat.embeds) != 0 {
				t.Errorf("unexpected reply: sent=%q embeds=%d", chat.sent, len(chat.embeds))
			}
		})
	}
}

func TestInfo_SendFailureIsLogged(t *testing.T) {
	chat := &fakeChat{sendErr: errBoom}
	info := NewInfo(infoConfig(), chat, log.New(io.Discard))

	info.Handle(context.Background(), infoMessage(BalanceCommand))

	if len(chat.sent) != 0 {
		t.Errorf("sent = %q, want nothing", chat.sent)
	}
}
