package model

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

// OperationKind identifies one of the bulk workflows
type OperationKind string

const (
	OperationAddRole    OperationKind = "add_role"
	OperationRemoveRole OperationKind = "remove_role"
	OperationUnban      OperationKind = "unban"
)

// IsValid checks if the operation kind is known
func (k OperationKind) IsValid() bool {
	switch k {
	case OperationAddRole, OperationRemoveRole, OperationUnban:
		return true
	default:
		return false
	}
}

// RequiresRole reports whether the operation needs a role argument
func (k OperationKind) RequiresRole() bool {
	return k == OperationAddRole || k == OperationRemoveRole
}

// RequiredCapability returns the platform permission the actor must hold
func (k OperationKind) RequiredCapability() types.Capability {
	if k == OperationUnban {
		return types.CapabilityManageBans
	}
	return types.CapabilityManageRoles
}

// Verb is used when rendering a per-item failure
func (k OperationKind) Verb() string {
	switch k {
	case OperationAddRole:
		return "add role to"
	case OperationRemoveRole:
		return "remove role from"
	case OperationUnban:
		return "unban"
	default:
		return string(k)
	}
}

// MutationRequest is the validated input of one bulk workflow
type MutationRequest struct {
	Kind    OperationKind
	Token   types.BotToken
	GuildID types.GuildID
	RoleID  types.RoleID
	// Reason is forwarded to the guild audit log when set
	Reason string
}

// Validate checks required fields before any external call is made
func (r *MutationRequest) Validate() error {
	if !r.Kind.IsValid() {
		return goerr.New("unknown operation", goerr.V("kind", r.Kind), goerr.T(ErrTagValidation))
	}
	if err := r.ValidateTarget(); err != nil {
		return err
	}
	if r.Kind.RequiresRole() && r.RoleID.IsEmpty() {
		return goerr.New("role ID is required", goerr.T(ErrTagValidation), WithLabel(LabelMissingRole))
	}
	return nil
}

// ValidateTarget checks only the credential and the guild
func (r *MutationRequest) ValidateTarget() error {
	if r.Token.IsEmpty() {
		return goerr.New("bot token is required", goerr.T(ErrTagValidation), WithLabel(LabelMissingToken))
	}
	if r.GuildID.IsEmpty() {
		return goerr.New("guild ID is required", goerr.T(ErrTagValidation), WithLabel(LabelMissingGuild))
	}
	return nil
}

// LogValue returns structured log value without the credential
func (r MutationRequest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(r.Kind)),
		slog.String("guild_id", r.GuildID.String()),
		slog.String("role_id", r.RoleID.String()),
		slog.Bool("has_token", !r.Token.IsEmpty()),
		slog.Bool("has_reason", r.Reason != ""),
	)
}
