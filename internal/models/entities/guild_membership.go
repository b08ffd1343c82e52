package entities

import "fmt"

// GuildMembership is one guild from the user's membership snapshot.
type GuildMembership struct {
	GuildID     string `json:"guild_id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Owner       bool   `json:"owner"`
	Permissions int64  `json:"permissions"`
}

// IconURL returns the CDN url of the guild icon, or "" when the guild has none.
func (g GuildMembership) IconURL() string {
	if g.Icon == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/icons/%s/%s.png?size=128", g.GuildID, g.Icon)
}

// FindGuild returns the membership entry for guildID.
func FindGuild(memberships []GuildMembership, guildID string) (GuildMembership, bool) {
	for _, m := range memberships {
		if m.GuildID == guildID {
			return m, true
		}
	}
	return GuildMembership{}, false
}
