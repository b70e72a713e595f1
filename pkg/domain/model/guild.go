package model

import "github.com/secmon-lab/guildsweep/pkg/domain/types"

// Guild is the resolved target guild
type Guild struct {
	ID      types.GuildID
	Name    string
	OwnerID types.UserID
}

// Role is a positioned role within a guild
type Role struct {
	ID       types.RoleID
	Name     string
	Position int
}

// Member is one guild member
type Member struct {
	UserID  types.UserID
	Label   string
	RoleIDs []types.RoleID
}

// HasRole reports whether the member currently holds the role
func (m *Member) HasRole(roleID types.RoleID) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Ban is a ban record on the guild
type Ban struct {
	UserID types.UserID
	Label  string
	Reason string
}

// Actor is the credential's own membership in the target guild
type Actor struct {
	Member          *Member
	Capabilities    types.CapabilitySet
	HighestPosition int
	IsOwner         bool
}

// Can reports whether the actor holds the capability
func (a *Actor) Can(c types.Capability) bool {
	return a.IsOwner || a.Capabilities.Has(c)
}

// Outranks reports whether the actor may manage the role. The check is
// strict: a role at the actor's own highest position is rejected.
func (a *Actor) Outranks(role *Role) bool {
	if a.IsOwner {
		return true
	}
	return role.Position < a.HighestPosition
}
