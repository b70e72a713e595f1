package discord

import "github.com/secmon-lab/guildsweep/pkg/domain/types"

// NewSessionWithClient builds a Session over a fake REST client
func NewSessionWithClient(client restClient, selfID types.UserID) *Session {
	return newSession(client, selfID)
}
