package model

import (
	"fmt"

	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

// RoleBatchResponse is returned by the role add/remove workflows
type RoleBatchResponse struct {
	Success      bool         `json:"success"`
	RoleID       types.RoleID `json:"roleId"`
	RoleName     string       `json:"roleName"`
	TotalMembers int          `json:"totalMembers"`
	SuccessCount int          `json:"successCount"`
	SkipCount    int          `json:"skipCount"`
	ErrorCount   int          `json:"errorCount"`
	Errors       []string     `json:"errors"`
	Detail       string       `json:"detail"`
}

// UnbanBatchResponse is returned by the unban workflow
type UnbanBatchResponse struct {
	Success       bool     `json:"success"`
	TotalBans     int      `json:"totalBans"`
	SuccessCount  int      `json:"successCount"`
	ErrorCount    int      `json:"errorCount"`
	Errors        []string `json:"errors"`
	UnbannedUsers []string `json:"unbannedUsers"`
	Detail        string   `json:"detail"`
}

// ErrorResponse is the body of every non-200 response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

// NewRoleBatchResponse shapes a finished role batch
func NewRoleBatchResponse(kind OperationKind, role *Role, result *BatchResult) *RoleBatchResponse {
	return &RoleBatchResponse{
		Success:      true,
		RoleID:       role.ID,
		RoleName:     role.Name,
		TotalMembers: result.Total,
		SuccessCount: result.SuccessCount,
		SkipCount:    result.SkipCount,
		ErrorCount:   result.ErrorCount,
		Errors:       result.ErrorMessages(MaxReportedErrors),
		Detail:       roleSummary(kind, role, result),
	}
}

// NewUnbanBatchResponse shapes a finished unban batch
func NewUnbanBatchResponse(guild *Guild, result *BatchResult) *UnbanBatchResponse {
	return &UnbanBatchResponse{
		Success:       true,
		TotalBans:     result.Total,
		SuccessCount:  result.SuccessCount,
		ErrorCount:    result.ErrorCount,
		Errors:        result.ErrorMessages(MaxReportedErrors),
		UnbannedUsers: result.SucceededLabels(MaxReportedUnbans),
		Detail:        unbanSummary(guild, result),
	}
}

// NewEmptyUnbanResponse is returned when the guild has no bans
func NewEmptyUnbanResponse(guild *Guild) *UnbanBatchResponse {
	return &UnbanBatchResponse{
		Success:       true,
		Errors:        []string{},
		UnbannedUsers: []string{},
		Detail:        fmt.Sprintf("No banned users found in %s", guildName(guild)),
	}
}

func roleSummary(kind OperationKind, role *Role, result *BatchResult) string {
	switch kind {
	case OperationRemoveRole:
		return fmt.Sprintf("Removed role %q from %d of %d members (%d did not have it, %d failed)",
			role.Name, result.SuccessCount, result.Total, result.SkipCount, result.ErrorCount)
	default:
		return fmt.Sprintf("Added role %q to %d of %d members (%d already had it, %d failed)",
			role.Name, result.SuccessCount, result.Total, result.SkipCount, result.ErrorCount)
	}
}

func unbanSummary(guild *Guild, result *BatchResult) string {
	return fmt.Sprintf("Unbanned %d of %d users in %s (%d failed)",
		result.SuccessCount, result.Total, guildName(guild), result.ErrorCount)
}

func guildName(guild *Guild) string {
	if guild == nil {
		return "guild"
	}
	if guild.Name != "" {
		return guild.Name
	}
	return "guild " + guild.ID.String()
}
