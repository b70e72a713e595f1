package interfaces

import (
	"context"

	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

// GuildConnector opens authenticated sessions against the chat platform
type GuildConnector interface {
	// Connect authenticates with token and blocks until the session is ready
	Connect(ctx context.Context, token types.BotToken) (GuildSession, error)
}

// GuildSession is one live platform session owned by a single request.
// Lookups of absent guilds or roles return errors tagged with
// model.ErrTagNotFound.
type GuildSession interface {
	Guild(ctx context.Context, guildID types.GuildID) (*model.Guild, error)
	// Self returns the session's own membership with its capabilities
	Self(ctx context.Context, guild *model.Guild) (*model.Actor, error)
	Members(ctx context.Context, guildID types.GuildID) ([]*model.Member, error)
	Role(ctx context.Context, guildID types.GuildID, roleID types.RoleID) (*model.Role, error)
	Bans(ctx context.Context, guildID types.GuildID) ([]*model.Ban, error)

	AddMemberRole(ctx context.Context, guildID types.GuildID, userID types.UserID, roleID types.RoleID, reason string) error
	RemoveMemberRole(ctx context.Context, guildID types.GuildID, userID types.UserID, roleID types.RoleID, reason string) error
	Unban(ctx context.Context, guildID types.GuildID, userID types.UserID, reason string) error

	// Close releases the underlying connection
	Close() error
}
