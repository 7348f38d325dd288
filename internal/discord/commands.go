package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ApplicationCommands returns the bot's slash command set
func ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "info",
			Description: "Returns the users details",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "discord_id",
					Description: "The discord id of the user",
					Required:    true,
				},
			},
		},
		{
			Name:        "setrole",
			Description: "Sets the verified role for the server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role to set",
					Required:    true,
				},
			},
		},
		{
			Name:        "displayrole",
			Description: "Displays the verified role for the server",
		},
		{
			Name:        "sync",
			Description: "Re-syncs every user on the server",
		},
		{
			Name:        "setproviders",
			Description: "Sets the verification providers for the server in the form of <provider>,<provider>,...",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "providers",
					Description: "The providers to set",
					Required:    true,
				},
			},
		},
		{
			Name:        "listproviders",
			Description: "Lists the verification providers for the server",
		},
		{
			Name:        "supportedproviders",
			Description: "Lists the supported verification providers",
		},
		{
			Name:        "verify",
			Description: "Get a personal link to verify your accounts",
		},
	}
}

// RegisterCommands bulk-replaces the application command set. Idempotent, so
// it runs on every startup.
func RegisterCommands(session *discordgo.Session, appID string) error {
	_, err := session.ApplicationCommandBulkOverwrite(appID, "", ApplicationCommands())
	if err != nil {
		return fmt.Errorf("failed to register application commands: %w", err)
	}
	return nil
}
