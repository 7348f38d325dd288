package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"social-link/gatekeeper/internal/common"
	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/db/repositories"
	"social-link/gatekeeper/internal/logging"
	"social-link/gatekeeper/internal/services"

	"github.com/bwmarrin/discordgo"
)

const linkTokenTTL = 15 * time.Minute

// CommandHandler dispatches slash commands and member events into the
// services. Every command answers with exactly one reply, either the
// confirmation or the specific rejection reason.
type CommandHandler struct {
	reconciler  *services.ReconcilerService
	settingsSvc *common.ServerSettingsService
	linkRepo    *repositories.LinkRepository
	signer      *common.LinkURLSigner
	developerID string
}

// NewCommandHandler creates a new command handler. developerID is the
// operator override for permission-gated commands.
func NewCommandHandler(
	reconciler *services.ReconcilerService,
	settingsSvc *common.ServerSettingsService,
	linkRepo *repositories.LinkRepository,
	signer *common.LinkURLSigner,
	developerID string,
) *CommandHandler {
	return &CommandHandler{
		reconciler:  reconciler,
		settingsSvc: settingsSvc,
		linkRepo:    linkRepo,
		signer:      signer,
		developerID: developerID,
	}
}

// Bind attaches the interaction and member-join handlers to the session
func (h *CommandHandler) Bind(session *discordgo.Session) {
	session.AddHandler(h.onInteractionCreate)
	session.AddHandler(h.onGuildMemberAdd)
}

func (h *CommandHandler) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	logging.Info("Member joined, reconciling", "discord_id", m.User.ID, "guild_id", m.GuildID)
	h.reconciler.ReconcileUser(context.Background(), m.User.ID)
}

func (h *CommandHandler) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := i.ApplicationCommandData()

	switch data.Name {
	case "info":
		h.handleInfo(ctx, s, i, data)
	case "setrole":
		h.handleSetRole(ctx, s, i, data)
	case "displayrole":
		h.handleDisplayRole(ctx, s, i)
	case "sync":
		h.handleSync(ctx, s, i)
	case "setproviders":
		h.handleSetProviders(ctx, s, i, data)
	case "listproviders":
		h.handleListProviders(ctx, s, i)
	case "supportedproviders":
		h.reply(s, i, "Currently supports "+joinProviders(constants.SupportedProviders()))
	case "verify":
		h.handleVerify(s, i)
	}
}

func (h *CommandHandler) handleInfo(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	discordID := constants.NormalizeDiscordID(data.Options[0].StringValue())

	links, err := h.linkRepo.GetActiveLinksByDiscordID(ctx, discordID, constants.SupportedProviders())
	if err != nil {
		logging.Warn("Info lookup failed", "discord_id", discordID, "error", err.Error())
		h.reply(s, i, "No user found")
		return
	}

	linked := make(map[constants.Provider]string, len(links))
	for _, link := range links {
		if _, exists := linked[link.Provider]; !exists {
			linked[link.Provider] = link.ProviderID
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Discord ID: %s", discordID)
	for _, p := range constants.SupportedProviders() {
		value := linked[p]
		if value == "" {
			value = "not linked"
		}
		fmt.Fprintf(&b, "\n%s: %s", titleCase(p.String()), value)
	}
	h.reply(s, i, b.String())
}

func (h *CommandHandler) handleSetRole(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.canManageRoles(i) {
		h.reply(s, i, "You do not have permission to do this")
		return
	}

	role := data.Options[0].RoleValue(s, i.GuildID)
	if role == nil {
		h.reply(s, i, "No role given")
		return
	}

	if err := h.settingsSvc.SetVerifiedRole(ctx, i.GuildID, role.ID); err != nil {
		logging.Error("Failed to set verified role", "guild_id", i.GuildID, "error", err.Error())
		h.reply(s, i, "Failed to set verified role")
		return
	}

	h.reply(s, i, "Verified role set")
	h.reconcileGuildMembers(ctx, s, i.GuildID)
}

func (h *CommandHandler) handleDisplayRole(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	policy, err := h.settingsSvc.GetGuildPolicy(ctx, i.GuildID)
	if err != nil || policy == nil || policy.RoleID == "" {
		h.reply(s, i, "No role set")
		return
	}

	role, err := s.State.Role(i.GuildID, policy.RoleID)
	if err != nil || role == nil {
		h.reply(s, i, "No role set")
		return
	}

	h.reply(s, i, fmt.Sprintf("Role set to %s", role.Name))
}

func (h *CommandHandler) handleSync(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.canManageRoles(i) {
		h.reply(s, i, "You do not have permission to do this")
		return
	}

	h.reply(s, i, "Resyncing users")
	h.reconcileGuildMembers(ctx, s, i.GuildID)
}

func (h *CommandHandler) handleSetProviders(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.canManageRoles(i) {
		h.reply(s, i, "You do not have permission to do this")
		return
	}

	providers, err := constants.ParseProviderList(data.Options[0].StringValue())
	if err != nil {
		// the whole set is rejected together, never filtered
		h.reply(s, i, "Invalid provider options")
		return
	}

	if err := h.settingsSvc.SetRequiredProviders(ctx, i.GuildID, providers); err != nil {
		logging.Error("Failed to set providers", "guild_id", i.GuildID, "error", err.Error())
		h.reply(s, i, "Failed to set providers")
		return
	}

	h.reply(s, i, "Providers set to "+joinProviders(providers))
	h.reconcileGuildMembers(ctx, s, i.GuildID)
}

func (h *CommandHandler) handleListProviders(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	policy, err := h.settingsSvc.GetGuildPolicy(ctx, i.GuildID)
	if err != nil || policy == nil {
		h.reply(s, i, "No providers set")
		return
	}

	h.reply(s, i, "Providers set to "+joinProviders(policy.RequiredProviders()))
}

func (h *CommandHandler) handleVerify(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.User == nil {
		return
	}

	url, err := h.signer.GenerateLinkURL(i.Member.User.ID, linkTokenTTL)
	if err != nil {
		logging.Error("Failed to sign link URL", "discord_id", i.Member.User.ID, "error", err.Error())
		h.reply(s, i, "Could not create a verification link, try again later")
		return
	}

	// only the requester should see their personal link
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Link your accounts here (valid 15 minutes): " + url,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Warn("Failed to respond to interaction", "error", err.Error())
	}
}

// reconcileGuildMembers walks every member of the guild and reconciles each
// one sequentially. Sequential on purpose: it bounds the Discord API burst
// rate during a full resync.
func (h *CommandHandler) reconcileGuildMembers(ctx context.Context, s *discordgo.Session, guildID string) {
	after := ""
	for {
		members, err := s.GuildMembers(guildID, after, 1000)
		if err != nil {
			logging.Warn("Failed to list guild members", "guild_id", guildID, "error", err.Error())
			return
		}
		if len(members) == 0 {
			return
		}

		for _, member := range members {
			h.reconciler.ReconcileUser(ctx, member.User.ID)
		}

		after = members[len(members)-1].User.ID
	}
}

func (h *CommandHandler) canManageRoles(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.User != nil && h.developerID != "" && i.Member.User.ID == h.developerID {
		return true
	}
	return i.Member.Permissions&discordgo.PermissionManageRoles != 0
}

func (h *CommandHandler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		logging.Warn("Failed to respond to interaction", "error", err.Error())
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinProviders(providers []constants.Provider) string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}
