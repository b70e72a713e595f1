package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

const (
	// DefaultReadyTimeout bounds the wait for the gateway READY event
	DefaultReadyTimeout = 30 * time.Second

	// pageSize is the maximum page size of the member and ban list endpoints
	pageSize = 1000
)

// restClient is the subset of the Discord REST API used by Session.
// *discordgo.Session satisfies it.
type restClient interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildBans(guildID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.GuildBan, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
	Close() error
}

var _ restClient = (*discordgo.Session)(nil)

// Connector opens discordgo sessions
type Connector struct {
	readyTimeout time.Duration
}

// ConnectorOption is a functional option for Connector
type ConnectorOption func(*Connector)

// WithReadyTimeout sets how long Connect waits for the READY event
func WithReadyTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) {
		if d > 0 {
			c.readyTimeout = d
		}
	}
}

// NewConnector creates a new Connector
func NewConnector(opts ...ConnectorOption) *Connector {
	c := &Connector{
		readyTimeout: DefaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens a gateway session with token and waits until it is ready
func (c *Connector) Connect(ctx context.Context, token types.BotToken) (interfaces.GuildSession, error) {
	dg, err := discordgo.New("Bot " + token.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create discord session", goerr.T(model.ErrTagAuthentication))
	}
	dg.Identify.Intents = discordgo.IntentsGuilds
	dg.ShouldReconnectOnError = false

	ready := make(chan *discordgo.Ready, 1)
	removeHandler := dg.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		select {
		case ready <- r:
		default:
		}
	})

	if err := dg.Open(); err != nil {
		removeHandler()
		return nil, goerr.Wrap(err, "failed to open discord session", goerr.T(model.ErrTagAuthentication))
	}

	timer := time.NewTimer(c.readyTimeout)
	defer timer.Stop()

	select {
	case r := <-ready:
		if r.User == nil {
			_ = dg.Close()
			return nil, goerr.New("ready event has no user", goerr.T(model.ErrTagAuthentication))
		}
		ctxlog.From(ctx).Debug("Discord session ready",
			"user_id", r.User.ID,
			"user", r.User.String(),
			"guilds", len(r.Guilds),
		)
		return newSession(dg, types.UserID(r.User.ID)), nil

	case <-timer.C:
		_ = dg.Close()
		return nil, goerr.New("timed out waiting for discord session",
			goerr.V("timeout", c.readyTimeout),
			goerr.T(model.ErrTagAuthentication))

	case <-ctx.Done():
		_ = dg.Close()
		return nil, goerr.Wrap(ctx.Err(), "cancelled while waiting for discord session")
	}
}

// Session adapts a discordgo session to interfaces.GuildSession
type Session struct {
	client restClient
	selfID types.UserID
}

func newSession(client restClient, selfID types.UserID) *Session {
	return &Session{
		client: client,
		selfID: selfID,
	}
}

// Guild fetches the guild. A guild the bot cannot see is reported as not found.
func (s *Session) Guild(ctx context.Context, guildID types.GuildID) (*model.Guild, error) {
	g, err := s.client.Guild(guildID.String(), discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) || isForbidden(err) {
			return nil, goerr.Wrap(model.ErrGuildNotFound, "failed to get guild", goerr.V("guildID", guildID))
		}
		return nil, goerr.Wrap(apiError(err), "failed to get guild", goerr.V("guildID", guildID))
	}
	return toGuild(g), nil
}

// Self returns the session user's membership in guild
func (s *Session) Self(ctx context.Context, guild *model.Guild) (*model.Actor, error) {
	member, err := s.client.GuildMember(guild.ID.String(), s.selfID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, goerr.Wrap(apiError(err), "failed to get own membership",
			goerr.V("guildID", guild.ID),
			goerr.V("userID", s.selfID),
		)
	}

	roles, err := s.client.GuildRoles(guild.ID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, goerr.Wrap(apiError(err), "failed to get guild roles", goerr.V("guildID", guild.ID))
	}

	return toActor(guild, member, roles), nil
}

// Members lists every guild member in enumeration order
func (s *Session) Members(ctx context.Context, guildID types.GuildID) ([]*model.Member, error) {
	var (
		members []*model.Member
		after   string
	)

	for {
		page, err := s.client.GuildMembers(guildID.String(), after, pageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, goerr.Wrap(apiError(err), "failed to list guild members",
				goerr.V("guildID", guildID),
				goerr.V("after", after),
			)
		}

		for _, m := range page {
			if m == nil || m.User == nil {
				continue
			}
			members = append(members, toMember(m))
			after = m.User.ID
		}

		if len(page) < pageSize {
			return members, nil
		}
	}
}

// Role resolves a role by ID
func (s *Session) Role(ctx context.Context, guildID types.GuildID, roleID types.RoleID) (*model.Role, error) {
	roles, err := s.client.GuildRoles(guildID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, goerr.Wrap(apiError(err), "failed to get guild roles", goerr.V("guildID", guildID))
	}

	for _, r := range roles {
		if r != nil && r.ID == roleID.String() {
			return toRole(r), nil
		}
	}

	return nil, goerr.Wrap(model.ErrRoleNotFound, "failed to resolve role",
		goerr.V("guildID", guildID),
		goerr.V("roleID", roleID),
	)
}

// Bans lists every ban of the guild in enumeration order
func (s *Session) Bans(ctx context.Context, guildID types.GuildID) ([]*model.Ban, error) {
	var (
		bans  []*model.Ban
		after string
	)

	for {
		page, err := s.client.GuildBans(guildID.String(), pageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, goerr.Wrap(apiError(err), "failed to list guild bans",
				goerr.V("guildID", guildID),
				goerr.V("after", after),
			)
		}

		for _, b := range page {
			if b == nil || b.User == nil {
				continue
			}
			bans = append(bans, toBan(b))
			after = b.User.ID
		}

		if len(page) < pageSize {
			return bans, nil
		}
	}
}

// AddMemberRole grants roleID to userID
func (s *Session) AddMemberRole(ctx context.Context, guildID types.GuildID, userID types.UserID, roleID types.RoleID, reason string) error {
	if err := s.client.GuildMemberRoleAdd(guildID.String(), userID.String(), roleID.String(), requestOptions(ctx, reason)...); err != nil {
		return goerr.Wrap(apiError(err), "failed to add member role",
			goerr.V("guildID", guildID),
			goerr.V("userID", userID),
			goerr.V("roleID", roleID),
		)
	}
	return nil
}

// RemoveMemberRole revokes roleID from userID
func (s *Session) RemoveMemberRole(ctx context.Context, guildID types.GuildID, userID types.UserID, roleID types.RoleID, reason string) error {
	if err := s.client.GuildMemberRoleRemove(guildID.String(), userID.String(), roleID.String(), requestOptions(ctx, reason)...); err != nil {
		return goerr.Wrap(apiError(err), "failed to remove member role",
			goerr.V("guildID", guildID),
			goerr.V("userID", userID),
			goerr.V("roleID", roleID),
		)
	}
	return nil
}

// Unban lifts the ban on userID
func (s *Session) Unban(ctx context.Context, guildID types.GuildID, userID types.UserID, reason string) error {
	if err := s.client.GuildBanDelete(guildID.String(), userID.String(), requestOptions(ctx, reason)...); err != nil {
		return goerr.Wrap(apiError(err), "failed to remove ban",
			goerr.V("guildID", guildID),
			goerr.V("userID", userID),
		)
	}
	return nil
}

// Close closes the gateway connection
func (s *Session) Close() error {
	if err := s.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close discord session")
	}
	return nil
}

func requestOptions(ctx context.Context, reason string) []discordgo.RequestOption {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return opts
}
