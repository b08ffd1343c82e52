package services

import (
	"fmt"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"

	"github.com/bwmarrin/discordgo"
)

// moderationPermissions are the permission bits that make a member a Moderator.
const moderationPermissions int64 = discordgo.PermissionManageChannels |
	discordgo.PermissionManageGuild |
	discordgo.PermissionKickMembers |
	discordgo.PermissionBanMembers |
	discordgo.PermissionManageMessages |
	discordgo.PermissionManageNicknames |
	discordgo.PermissionManageRoles |
	discordgo.PermissionManageWebhooks

// ClassifyMembership maps one guild membership to the user's role in that guild.
func ClassifyMembership(m entities.GuildMembership) constants.GuildRole {
	switch {
	case m.Owner:
		return constants.RoleOwner
	case m.Permissions&discordgo.PermissionAdministrator != 0:
		return constants.RoleAdministrator
	case m.Permissions&moderationPermissions != 0:
		return constants.RoleModerator
	default:
		return constants.RoleMember
	}
}

// ClassifyRole finds guildID in the user's membership snapshot and classifies it.
// A user without membership in the guild gets a NotFound error, which callers
// treat as "not authorized for this guild".
func ClassifyRole(userID, guildID string, memberships []entities.GuildMembership) (constants.GuildRole, entities.GuildMembership, error) {
	m, ok := entities.FindGuild(memberships, guildID)
	if !ok {
		return "", entities.GuildMembership{}, common.NotFound(
			constants.ErrCodeNotGuildMember,
			fmt.Sprintf("user %s is not a member of guild %s", userID, guildID),
		)
	}
	return ClassifyMembership(m), m, nil
}
