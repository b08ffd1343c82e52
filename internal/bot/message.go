package bot

import (
	"fmt"
	"strings"
	"time"

	"servercv/dashboard/internal/constants"
	gormModels "servercv/dashboard/internal/models/gorm"

	"github.com/bwmarrin/discordgo"
)

const (
	colorPending  = 0xF1C40F
	colorApproved = 0x2ECC71
	colorRejected = 0xE74C3C
)

// manageURL is the dashboard page where the server's requests are reviewed.
func manageURL(baseURL, serverID string) string {
	return strings.TrimRight(baseURL, "/") + "/servers/" + serverID
}

func formatDuration(exp *gormModels.Experience) string {
	start := fmt.Sprintf("%d/%d", exp.StartMonth, exp.StartYear)
	if exp.IsOngoing() {
		return start + " - Present"
	}
	return fmt.Sprintf("%s - %d/%d", start, *exp.EndMonth, *exp.EndYear)
}

// truncateField cuts s to the embed field limit, counting runes.
func truncateField(s string) string {
	runes := []rune(s)
	if len(runes) <= constants.NotificationDescriptionMax {
		return s
	}
	return string(runes[:constants.NotificationDescriptionMax-3]) + "..."
}

func rolePing(roleID *string) (string, *discordgo.MessageAllowedMentions) {
	if roleID == nil || *roleID == "" {
		return "", &discordgo.MessageAllowedMentions{}
	}
	return "<@&" + *roleID + ">", &discordgo.MessageAllowedMentions{Roles: []string{*roleID}}
}

// NewRequestMessage announces a submitted request to the server's reviewers.
func NewRequestMessage(exp *gormModels.Experience, roleID *string, baseURL string, at time.Time) *discordgo.MessageSend {
	serverName := exp.ServerName
	if serverName == "" {
		serverName = "Unknown Server"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("<@%s> `(%s)`", exp.UserID, exp.UserID)},
		{Name: "Role", Value: truncateField(exp.RoleTitle), Inline: true},
		{Name: "Duration", Value: formatDuration(exp), Inline: true},
	}
	if exp.Description != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Description", Value: truncateField(exp.Description)})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name:  "Actions",
		Value: fmt.Sprintf("[View & Manage Request](%s)", manageURL(baseURL, exp.ServerID)),
	})

	content, mentions := rolePing(roleID)
	return &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: mentions,
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "New Experience Request",
			Description: fmt.Sprintf("A new experience request has been submitted for **%s**.", serverName),
			Color:       colorPending,
			Timestamp:   at.UTC().Format(time.RFC3339),
			Fields:      fields,
		}},
	}
}

// NewDecisionMessage is the short notice posted when a request is approved or rejected.
// exp is nil when the record is already gone.
func NewDecisionMessage(kind constants.EventKind, exp *gormModels.Experience, recordID string, at time.Time) *discordgo.MessageSend {
	verb, color := "approved", colorApproved
	if kind == constants.EventRequestRejected {
		verb, color = "rejected", colorRejected
	}

	description := fmt.Sprintf("Experience request `%s` was %s.", recordID, verb)
	if exp != nil {
		description = fmt.Sprintf("The **%s** request from <@%s> was %s.", exp.RoleTitle, exp.UserID, verb)
	}

	return &discordgo.MessageSend{
		AllowedMentions: &discordgo.MessageAllowedMentions{},
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Experience Request " + strings.ToUpper(verb[:1]) + verb[1:],
			Description: description,
			Color:       color,
			Timestamp:   at.UTC().Format(time.RFC3339),
		}},
	}
}
