package discord

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

// Memory is an in-memory chat platform implementing interfaces.GuildConnector.
// Bot members registered with PutBot are not part of the member listing.
type Memory struct {
	mu       sync.RWMutex
	tokens   map[types.BotToken]types.UserID
	guilds   map[types.GuildID]*memoryGuild
	failures map[types.UserID]error
	stats    MemoryStats
}

// MemoryStats counts platform interactions
type MemoryStats struct {
	Opened    int
	Closed    int
	Mutations int
}

type memoryGuild struct {
	guild   model.Guild
	roles   map[types.RoleID]model.Role
	members []*model.Member
	bans    []*model.Ban
	actors  map[types.UserID]*model.Actor
}

// NewMemory creates an empty in-memory platform
func NewMemory() *Memory {
	return &Memory{
		tokens:   make(map[types.BotToken]types.UserID),
		guilds:   make(map[types.GuildID]*memoryGuild),
		failures: make(map[types.UserID]error),
	}
}

var _ interfaces.GuildConnector = (*Memory)(nil)

// PutGuild registers a guild
func (m *Memory) PutGuild(guild model.Guild) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.guilds[guild.ID] = &memoryGuild{
		guild:  guild,
		roles:  make(map[types.RoleID]model.Role),
		actors: make(map[types.UserID]*model.Actor),
	}
}

// PutRole registers a role in a guild
func (m *Memory) PutRole(guildID types.GuildID, role model.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.guilds[guildID]; ok {
		g.roles[role.ID] = role
	}
}

// PutMember appends a member to a guild's listing
func (m *Memory) PutMember(guildID types.GuildID, member model.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.guilds[guildID]; ok {
		member.RoleIDs = slices.Clone(member.RoleIDs)
		g.members = append(g.members, &member)
	}
}

// PutBan appends a ban to a guild
func (m *Memory) PutBan(guildID types.GuildID, ban model.Ban) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.guilds[guildID]; ok {
		g.bans = append(g.bans, &ban)
	}
}

// PutBot registers a credential and its membership in a guild
func (m *Memory) PutBot(token types.BotToken, guildID types.GuildID, userID types.UserID, caps types.CapabilitySet, highestPosition int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[token] = userID
	if g, ok := m.guilds[guildID]; ok {
		g.actors[userID] = &model.Actor{
			Member:          &model.Member{UserID: userID, Label: userID.String()},
			Capabilities:    caps,
			HighestPosition: highestPosition,
			IsOwner:         g.guild.OwnerID == userID,
		}
	}
}

// FailOn makes every mutation targeting userID return err
func (m *Memory) FailOn(userID types.UserID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[userID] = err
}

// Stats returns a snapshot of the interaction counters
func (m *Memory) Stats() MemoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.stats
}

// MemberRoles returns the current roles of a member
func (m *Memory) MemberRoles(guildID types.GuildID, userID types.UserID) []types.RoleID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return nil
	}
	for _, member := range g.members {
		if member.UserID == userID {
			return slices.Clone(member.RoleIDs)
		}
	}
	return nil
}

// BanCount returns the number of remaining bans in a guild
func (m *Memory) BanCount(guildID types.GuildID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if g, ok := m.guilds[guildID]; ok {
		return len(g.bans)
	}
	return 0
}

// Connect opens a session for a registered token
func (m *Memory) Connect(ctx context.Context, token types.BotToken) (interfaces.GuildSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.tokens[token]
	if !ok {
		return nil, goerr.New("invalid bot token", goerr.T(model.ErrTagAuthentication))
	}

	m.stats.Opened++
	return &memorySession{mem: m, selfID: userID}, nil
}

type memorySession struct {
	mem    *Memory
	selfID types.UserID
	closed bool
}

func (s *memorySession) guild(guildID types.GuildID) (*memoryGuild, error) {
	if s.closed {
		return nil, goerr.New("session is closed")
	}
	g, ok := s.mem.guilds[guildID]
	if !ok {
		return nil, goerr.Wrap(model.ErrGuildNotFound, "failed to get guild", goerr.V("guildID", guildID))
	}
	return g, nil
}

func (s *memorySession) Guild(ctx context.Context, guildID types.GuildID) (*model.Guild, error) {
	s.mem.mu.RLock()
	defer s.mem.mu.RUnlock()

	g, err := s.guild(guildID)
	if err != nil {
		return nil, err
	}
	guild := g.guild
	return &guild, nil
}

func (s *memorySession) Self(ctx context.Context, guild *model.Guild) (*model.Actor, error) {
	s.mem.mu.RLock()
	defer s.mem.mu.RUnlock()

	g, err := s.guild(guild.ID)
	if err != nil {
		return nil, err
	}
	actor, ok := g.actors[s.selfID]
	if !ok {
		return nil, goerr.New("bot is not a member of the guild", goerr.V("guildID", guild.ID))
	}
	copied := *actor
	return &copied, nil
}

func (s *memorySession) Members(ctx context.Context, guildID types.GuildID) ([]*model.Member, error) {
	s.mem.mu.RLock()
	defer s.mem.mu.RUnlock()

	g, err := s.guild(guildID)
	if err != nil {
		return nil, err
	}
	members := make([]*model.Member, 0, len(g.members))
	for _, member := range g.members {
		copied := *member
		copied.RoleIDs = slices.Clone(member.RoleIDs)
		members = append(members, &copied)
	}
	return members, nil
}

func (s *memorySession) Role(ctx context.Context, guildID types.GuildID, roleID types.RoleID) (*model.Role, error) {
	s.mem.mu.RLock()
	defer s.mem.mu.RUnlock()

	g, err := s.guild(guildID)
	if err != nil {
		return nil, err
	}
	role, ok := g.roles[roleID]
	if !ok {
		return nil, goerr.Wrap(model.ErrRoleNotFound, "failed to resolve role", goerr.V("roleID", roleID))
	}
	return &role, nil
}

func (s *memorySession) Bans(ctx context.Context, guildID types.GuildID) ([]*model.Ban, error) {
	s.mem.mu.RLock()
	defer s.mem.mu.RUnlock()

	g, err := s.guild(guildID)
	if err != nil {
		return nil, err
	}
	bans := make([]*model.Ban, 0, len(g.bans))
	for _, ban := range g.bans {
		copied := *ban
		bans = append(bans, &copied)
	}
	return bans, nil
}

func (s *memorySession) AddMemberRole(ctx context.Context, guildID types.GuildID, userID types.UserID, roleID types.RoleID, reason string) error {
	return s.mutateMember(guildID, userID, func(member *model.Member) {
		if !member.HasRole(roleID) {
			member.RoleIDs = append(member.RoleIDs, roleID)
		}
	})
}

func (s *memorySession) RemoveMemberRole(ctx context.Context, guildID types.GuildID, userID types.UserID, roleID types.RoleID, reason string) error {
	return s.mutateMember(guildID, userID, func(member *model.Member) {
		member.RoleIDs = slices.DeleteFunc(member.RoleIDs, func(id types.RoleID) bool {
			return id == roleID
		})
	})
}

func (s *memorySession) mutateMember(guildID types.GuildID, userID types.UserID, apply func(*model.Member)) error {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()

	g, err := s.guild(guildID)
	if err != nil {
		return err
	}
	s.mem.stats.Mutations++
	if err := s.mem.failures[userID]; err != nil {
		return err
	}
	for _, member := range g.members {
		if member.UserID == userID {
			apply(member)
			return nil
		}
	}
	return goerr.New("Unknown Member", goerr.V("userID", userID))
}

func (s *memorySession) Unban(ctx context.Context, guildID types.GuildID, userID types.UserID, reason string) error {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()

	g, err := s.guild(guildID)
	if err != nil {
		return err
	}
	s.mem.stats.Mutations++
	if err := s.mem.failures[userID]; err != nil {
		return err
	}
	before := len(g.bans)
	g.bans = slices.DeleteFunc(g.bans, func(b *model.Ban) bool {
		return b.UserID == userID
	})
	if len(g.bans) == before {
		return goerr.New("Unknown Ban", goerr.V("userID", userID))
	}
	return nil
}

func (s *memorySession) Close() error {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()

	s.mem.stats.Closed++
	s.closed = true
	return nil
}
