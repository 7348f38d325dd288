package discord

import (
	"errors"

	"social-link/gatekeeper/internal/services"

	"github.com/bwmarrin/discordgo"
)

// SessionGateway adapts a discordgo session to the reconciler's RoleGateway.
// Role add/remove on Discord are idempotent: granting an already-held role or
// revoking an absent one succeeds without changing state.
type SessionGateway struct {
	session *discordgo.Session
}

// Ensure SessionGateway implements RoleGateway
var _ services.RoleGateway = (*SessionGateway)(nil)

// NewSessionGateway wraps a connected session
func NewSessionGateway(session *discordgo.Session) *SessionGateway {
	return &SessionGateway{session: session}
}

// GuildIDs lists every guild the bot currently occupies, from session state
func (g *SessionGateway) GuildIDs() []string {
	guilds := g.session.State.Guilds
	ids := make([]string, 0, len(guilds))
	for _, guild := range guilds {
		ids = append(ids, guild.ID)
	}
	return ids
}

// IsMember resolves the member from state first, then the REST API. An
// unknown member is a normal outcome, not an error.
func (g *SessionGateway) IsMember(guildID string, discordID string) (bool, error) {
	if member, err := g.session.State.Member(guildID, discordID); err == nil && member != nil {
		return true, nil
	}

	_, err := g.session.GuildMember(guildID, discordID)
	if err != nil {
		if isUnknownMember(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddRole grants the role to the member
func (g *SessionGateway) AddRole(guildID string, discordID string, roleID string) error {
	return g.session.GuildMemberRoleAdd(guildID, discordID, roleID)
}

// RemoveRole revokes the role from the member
func (g *SessionGateway) RemoveRole(guildID string, discordID string, roleID string) error {
	return g.session.GuildMemberRoleRemove(guildID, discordID, roleID)
}

func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownMember ||
			restErr.Message.Code == discordgo.ErrCodeUnknownUser
	}
	return false
}
