package types

import (
	"log/slog"
	"strings"
)

// BotToken is the platform credential supplied with each request
type BotToken string

// String returns the raw token value
func (t BotToken) String() string {
	return string(t)
}

// IsEmpty reports whether the token is missing or blank
func (t BotToken) IsEmpty() bool {
	return strings.TrimSpace(string(t)) == ""
}

// LogValue never exposes the token itself
func (t BotToken) LogValue() slog.Value {
	if t.IsEmpty() {
		return slog.StringValue("")
	}
	return slog.StringValue("[REDACTED]")
}

// GuildID represents a guild identifier
type GuildID string

// String returns the string representation
func (id GuildID) String() string {
	return string(id)
}

// IsEmpty reports whether the ID is missing or blank
func (id GuildID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// RoleID represents a guild role identifier
type RoleID string

// String returns the string representation
func (id RoleID) String() string {
	return string(id)
}

// IsEmpty reports whether the ID is missing or blank
func (id RoleID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// UserID represents a platform user identifier
type UserID string

// String returns the string representation
func (id UserID) String() string {
	return string(id)
}

// JobID identifies one bulk run in logs
type JobID string

// String returns the string representation
func (id JobID) String() string {
	return string(id)
}
