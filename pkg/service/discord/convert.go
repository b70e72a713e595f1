package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

func toGuild(g *discordgo.Guild) *model.Guild {
	return &model.Guild{
		ID:      types.GuildID(g.ID),
		Name:    g.Name,
		OwnerID: types.UserID(g.OwnerID),
	}
}

func toRole(r *discordgo.Role) *model.Role {
	return &model.Role{
		ID:       types.RoleID(r.ID),
		Name:     r.Name,
		Position: r.Position,
	}
}

func toMember(m *discordgo.Member) *model.Member {
	roleIDs := make([]types.RoleID, 0, len(m.Roles))
	for _, id := range m.Roles {
		roleIDs = append(roleIDs, types.RoleID(id))
	}
	return &model.Member{
		UserID:  types.UserID(m.User.ID),
		Label:   m.User.String(),
		RoleIDs: roleIDs,
	}
}

func toBan(b *discordgo.GuildBan) *model.Ban {
	return &model.Ban{
		UserID: types.UserID(b.User.ID),
		Label:  b.User.String(),
		Reason: b.Reason,
	}
}

// toActor folds the @everyone role and the member's roles into a
// capability set and the highest role position.
func toActor(guild *model.Guild, m *discordgo.Member, roles []*discordgo.Role) *model.Actor {
	byID := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		if r != nil {
			byID[r.ID] = r
		}
	}

	var (
		perms   int64
		highest int
	)
	if everyone, ok := byID[guild.ID.String()]; ok {
		perms |= everyone.Permissions
	}
	for _, id := range m.Roles {
		r, ok := byID[id]
		if !ok {
			continue
		}
		perms |= r.Permissions
		if r.Position > highest {
			highest = r.Position
		}
	}

	member := toMember(m)
	actor := &model.Actor{
		Member:          member,
		HighestPosition: highest,
		IsOwner:         guild.OwnerID != "" && guild.OwnerID == member.UserID,
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		actor.Capabilities = types.AllCapabilities()
		return actor
	}
	if perms&discordgo.PermissionManageRoles != 0 {
		actor.Capabilities = actor.Capabilities.With(types.CapabilityManageRoles)
	}
	if perms&discordgo.PermissionBanMembers != 0 {
		actor.Capabilities = actor.Capabilities.With(types.CapabilityManageBans)
	}
	return actor
}

func restError(err error) *discordgo.RESTError {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		return restErr
	}
	return nil
}

func isNotFound(err error) bool {
	restErr := restError(err)
	if restErr == nil {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownGuild, discordgo.ErrCodeUnknownRole:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func isForbidden(err error) bool {
	restErr := restError(err)
	return restErr != nil && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}

// apiError replaces a REST error with one whose message is the platform's
// own explanation, keeping status and code as values.
func apiError(err error) error {
	restErr := restError(err)
	if restErr == nil || restErr.Message == nil || restErr.Message.Message == "" {
		return err
	}

	opts := []goerr.Option{goerr.V("code", restErr.Message.Code)}
	if restErr.Response != nil {
		opts = append(opts, goerr.V("status", restErr.Response.StatusCode))
	}
	return goerr.New(restErr.Message.Message, opts...)
}
