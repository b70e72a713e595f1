package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/guildsweep/pkg/domain/model"
)

// GuildAdmin runs the bulk guild workflows
type GuildAdmin interface {
	AddRoleToAll(ctx context.Context, req *model.MutationRequest) (*model.RoleBatchResponse, error)
	RemoveRoleFromAll(ctx context.Context, req *model.MutationRequest) (*model.RoleBatchResponse, error)
	UnbanAll(ctx context.Context, req *model.MutationRequest) (*model.UnbanBatchResponse, error)
}

// Pacer suspends the caller between two successful mutations
type Pacer interface {
	// Pause returns early with ctx's error if ctx is done first
	Pause(ctx context.Context, d time.Duration) error
}
