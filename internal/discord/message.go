package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/justestif/go-spotify-submission-bot/internal/moderation"
)

func (a *Adapter) toMessage(ctx context.Context, m *discordgo.Message) moderation.Message {
	msg := moderation.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.AuthorBot = m.Author.Bot
	}
	if m.Member == nil || m.GuildID == "" {
		return msg
	}

	for _, id := range m.Member.Roles {
		msg.Roles = append(msg.Roles, moderation.Role{ID: id, Name: a.roleName(ctx, m.GuildID, id)})
	}
	return msg
}

// roleName resolves a role ID, refetching the guild's roles on a miss.
// Unknown roles resolve to an empty name.
func (a *Adapter) roleName(ctx context.Context, guildID, roleID string) string {
	a.mu.Lock()
	name, ok := a.roles[guildID][roleID]
	a.mu.Unlock()
	if ok {
		return name
	}

	if a.session != nil && a.session.State != nil {
		if role, err := a.session.State.Role(guildID, roleID); err == nil {
			a.cacheRole(guildID, role)
			return role.Name
		}
	}

	roles, err := a.api.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		a.logger.Warn("fetching guild roles", "guild", guildID, "err", err)
		return ""
	}
	for _, role := range roles {
		a.cacheRole(guildID, role)
		if role.ID == roleID {
			name = role.Name
		}
	}
	return name
}

func (a *Adapter) cacheRole(guildID string, role *discordgo.Role) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.roles[guildID] == nil {
		a.roles[guildID] = make(map[string]string)
	}
	a.roles[guildID][role.ID] = role.Name
}

func toEmbed(e moderation.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title: e.Title,
		Color: e.Color,
	}
	if e.Thumbnail != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}
