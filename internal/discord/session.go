package discord

import (
	"fmt"
	"os"

	"social-link/gatekeeper/internal/logging"
	"social-link/gatekeeper/internal/metrics"

	"github.com/bwmarrin/discordgo"
)

// NewSession builds the gateway session with the intents the bot needs:
// guild metadata, member events and messages
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	session.StateEnabled = true
	return session, nil
}

// BindLifecycleHandlers wires the ready/guild handlers: presence pointing at
// the linking site, and the guild gauge
func BindLifecycleHandlers(session *discordgo.Session, metricsReg *metrics.MetricsRegistry) {
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Discord session ready",
			"username", r.User.Username,
			"guilds", len(r.Guilds),
		)

		siteURL := os.Getenv("LINK_SITE_URL")
		if siteURL == "" {
			siteURL = "https://www.social-link.xyz"
		}
		if err := s.UpdateGameStatus(0, siteURL); err != nil {
			logging.Warn("Failed to set presence", "error", err.Error())
		}

		if metricsReg != nil {
			metricsReg.GuildsServed.Set(float64(len(r.Guilds)))
		}
	})

	session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if metricsReg != nil {
			metricsReg.GuildsServed.Set(float64(len(s.State.Guilds)))
		}
	})

	session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if metricsReg != nil {
			metricsReg.GuildsServed.Set(float64(len(s.State.Guilds)))
		}
	})
}
