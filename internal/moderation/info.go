package moderation

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// Informational commands answered in the commands channel.
const (
	BalanceCommand  = "]balance"
	LevelCommand    = "]level"
	HelpCommand     = "]help"
	CommandsCommand = "]commands"
)

// embedColor is the accent color of informational embeds.
const embedColor = 0xFFB271

const commandsThumbnail = "https://static.wikia.nocookie.net/great-characters/images/2/22/" +
	"Fujiwara.Chika.full.2474576.png/revision/latest/top-crop/width/360/height/450?cb=20191102191124"

// blankField pads an embed row; the chat platform rejects empty names.
var blankField = EmbedField{Name: "\u200b", Value: "\u200b", Inline: true}

var commandList = []struct{ name, description string }{
	{BalanceCommand, "Token balance"},
	{CommandsCommand, "List of commands"},
	{HelpCommand, "Help info"},
	{LevelCommand, "Token level(s)"},
}

// Info answers the informational commands.
type Info struct {
	cfg      Config
	chat     Chat
	logger   *log.Logger
	handlers map[string]func(context.Context, Message) error
}

// NewInfo creates an Info.
func NewInfo(cfg Config, chat Chat, logger *log.Logger) *Info {
	if logger == nil {
		logger = log.Default()
	}
	i := &Info{cfg: cfg, chat: chat, logger: logger}
	i.handlers = map[string]func(context.Context, Message) error{
		BalanceCommand:  i.balance,
		LevelCommand:    i.level,
		HelpCommand:     i.help,
		CommandsCommand: i.commands,
	}
	return i
}

// Handle replies if msg is one of the informational commands posted in
// the commands channel.
func (i *Info) Handle(ctx context.Context, msg Message) {
	if msg.AuthorBot || msg.ChannelID != i.cfg.CommandsChannelID {
		return
	}
	command := strings.TrimSpace(msg.Content)
	handler, ok := i.handlers[command]
	if !ok {
		return
	}
	if err := handler(ctx, msg); err != nil {
		i.logger.Error("answering command", "command", command, "user", msg.AuthorName, "err", err)
	}
}

func (i *Info) balance(ctx context.Context, msg Message) error {
	n := len(i.cfg.tokenRoles(msg.Roles))
	return i.chat.SendMessage(ctx, msg.ChannelID,
		fmt.Sprintf("<@%s>, your token balance is: %d", msg.AuthorID, n))
}

func (i *Info) level(ctx context.Context, msg Message) error {
	return i.chat.SendMessage(ctx, msg.ChannelID, levelReply(msg.AuthorID, msg.Roles, i.cfg))
}

// tokenLevel maps an entitlement role to its level: the n-th configured
// role (1-based) is level 5n.
func tokenLevel(levels []string, roleID string) (int, bool) {
	idx := slices.Index(levels, roleID)
	if idx < 0 {
		return 0, false
	}
	return (idx + 1) * 5, true
}

func levelReply(userID string, roles []Role, cfg Config) string {
	if len(roles) == 0 {
		return fmt.Sprintf("<@%s>, according to my calculations... you're not even a member o.O", userID)
	}
	held := cfg.tokenRoles(roles)
	if len(held) == 0 {
		return fmt.Sprintf("<@%s>, you have no tokens.", userID)
	}

	var levels []string
	for _, r := range held {
		if lvl, ok := tokenLevel(cfg.TokenLevels, r.ID); ok {
			levels = append(levels, fmt.Sprint(lvl))
		}
	}
	if len(levels) == 0 {
		return fmt.Sprintf("<@%s>, I couldn't work out the level of your token(s).", userID)
	}
	return fmt.Sprintf("<@%s>, you have a level %s token.", userID, joinAnd(levels))
}

// joinAnd joins items as "a", "a and b" or "a, b and c".
func joinAnd(items []string) string {
	if len(items) < 2 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func (i *Info) help(ctx context.Context, msg Message) error {
	text := fmt.Sprintf("\nHi, i'm TokenBot and I was built to help manage submissions on this server ^_^\n\n"+
		"To learn how to submit, check out the <#%s> channel for full instructions.\n\n"+
		"I also provide some commands `%s` that you may use, check them out!",
		i.cfg.HelpChannelID, CommandsCommand)

	return i.chat.SendEmbed(ctx, msg.ChannelID, Embed{
		Title:  "TokenBot",
		Color:  embedColor,
		Fields: []EmbedField{{Name: "`Version 1.0`", Value: text, Inline: true}},
	})
}

func (i *Info) commands(ctx context.Context, msg Message) error {
	embed := Embed{
		Title:     "TokenBot Commands",
		Color:     embedColor,
		Thumbnail: commandsThumbnail,
	}
	for _, c := range commandList {
		embed.Fields = append(embed.Fields, EmbedField{Name: c.name, Value: "`" + c.description + "`", Inline: true})
	}
	for len(embed.Fields)%3 != 0 {
		embed.Fields = append(embed.Fields, blankField)
	}
	return i.chat.SendEmbed(ctx, msg.ChannelID, embed)
}
