package bot

import (
	"context"
	"fmt"

	"servercv/dashboard/internal/logging"

	"github.com/bwmarrin/discordgo"
)

const setupCommandName = "setup"

type NotificationConfigWriter interface {
	Upsert(ctx context.Context, serverID, channelID string, roleID *string) error
}

type InteractionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

var administratorPermission int64 = discordgo.PermissionAdministrator

// SetupCommand is /setup channel [role]. Discord hides it from members
// without the Administrator permission.
func SetupCommand() *discordgo.ApplicationCommand {
	dmAllowed := false
	return &discordgo.ApplicationCommand{
		Name:                     setupCommandName,
		Description:              "Setup notifications for new experience requests",
		DefaultMemberPermissions: &administratorPermission,
		DMPermission:             &dmAllowed,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "The channel to send notifications to",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				Required:     true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Optional role to ping",
			},
		},
	}
}

// setupRequest is what a /setup invocation asks for.
type setupRequest struct {
	serverID  string
	channelID string
	roleID    *string
}

func parseSetup(i *discordgo.InteractionCreate) (setupRequest, string) {
	if i.GuildID == "" {
		return setupRequest{}, "This command can only be used inside a server."
	}
	// DefaultMemberPermissions can be overridden per guild, so check again.
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return setupRequest{}, "You need the Administrator permission to use this command."
	}

	req := setupRequest{serverID: i.GuildID}
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "channel":
			if id, ok := opt.Value.(string); ok {
				req.channelID = id
			}
		case "role":
			if id, ok := opt.Value.(string); ok && id != "" {
				req.roleID = &id
			}
		}
	}
	if req.channelID == "" {
		return setupRequest{}, "Please choose a channel."
	}
	return req, ""
}

func setupReply(req setupRequest) string {
	msg := fmt.Sprintf("✅ Notifications for new experience requests will be sent to <#%s>.", req.channelID)
	if req.roleID != nil {
		msg += fmt.Sprintf("\n🔔 Role to ping: <@&%s>", *req.roleID)
	}
	return msg
}

// SetupHandler answers /setup interactions.
type SetupHandler struct {
	configs NotificationConfigWriter
}

func NewSetupHandler(configs NotificationConfigWriter) *SetupHandler {
	return &SetupHandler{configs: configs}
}

func (h *SetupHandler) Handle(ctx context.Context, r InteractionResponder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.ApplicationCommandData().Name != setupCommandName {
		return
	}

	req, problem := parseSetup(i)
	if problem != "" {
		replyEphemeral(r, i, problem)
		return
	}

	if err := h.configs.Upsert(ctx, req.serverID, req.channelID, req.roleID); err != nil {
		logging.Error("Failed to save notification config", "server_id", req.serverID, "error", err)
		replyEphemeral(r, i, "❌ Could not save the notification settings. Please try again.")
		return
	}

	logging.Info("Notification config saved", "server_id", req.serverID, "channel_id", req.channelID)
	replyEphemeral(r, i, setupReply(req))
}

func replyEphemeral(r InteractionResponder, i *discordgo.InteractionCreate, content string) {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Error("Failed to respond to interaction", "error", err)
	}
}
