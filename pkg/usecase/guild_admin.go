package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
	"github.com/secmon-lab/guildsweep/pkg/utils/async"
	"github.com/secmon-lab/guildsweep/pkg/utils/pacing"
)

// GuildAdminConfig holds configuration for GuildAdmin
type GuildAdminConfig struct {
	pacing model.Pacing
	pacer  interfaces.Pacer
}

// GuildAdminOption is a functional option for configuring GuildAdmin
type GuildAdminOption func(*GuildAdminConfig)

// WithPacing overrides intervals and the batch timeout
func WithPacing(p model.Pacing) GuildAdminOption {
	return func(c *GuildAdminConfig) {
		c.pacing = p
	}
}

// WithPacer replaces the real timer, mainly for tests
func WithPacer(p interfaces.Pacer) GuildAdminOption {
	return func(c *GuildAdminConfig) {
		c.pacer = p
	}
}

// GuildAdmin implements the bulk guild workflows
type GuildAdmin struct {
	connector interfaces.GuildConnector
	config    *GuildAdminConfig
	engine    *bulkEngine
}

var _ interfaces.GuildAdmin = (*GuildAdmin)(nil)

// NewGuildAdmin creates a new GuildAdmin
func NewGuildAdmin(connector interfaces.GuildConnector, opts ...GuildAdminOption) *GuildAdmin {
	config := &GuildAdminConfig{
		pacing: model.DefaultPacing(),
		pacer:  pacing.NewTimer(),
	}
	for _, opt := range opts {
		opt(config)
	}

	return &GuildAdmin{
		connector: connector,
		config:    config,
		engine:    &bulkEngine{pacer: config.pacer},
	}
}

// AddRoleToAll grants the requested role to every guild member lacking it
func (uc *GuildAdmin) AddRoleToAll(ctx context.Context, req *model.MutationRequest) (*model.RoleBatchResponse, error) {
	return uc.runRoleBatch(ctx, model.OperationAddRole, req)
}

// RemoveRoleFromAll revokes the requested role from every member holding it
func (uc *GuildAdmin) RemoveRoleFromAll(ctx context.Context, req *model.MutationRequest) (*model.RoleBatchResponse, error) {
	return uc.runRoleBatch(ctx, model.OperationRemoveRole, req)
}

// UnbanAll lifts every ban of the guild
func (uc *GuildAdmin) UnbanAll(ctx context.Context, req *model.MutationRequest) (*model.UnbanBatchResponse, error) {
	req, ctx, cancel, err := uc.begin(ctx, model.OperationUnban, req)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var resp *model.UnbanBatchResponse
	err = withSession(ctx, uc.connector, req.Token, func(ctx context.Context, sess interfaces.GuildSession) error {
		guild, _, err := checkActor(ctx, sess, req)
		if err != nil {
			return err
		}

		bans, err := sess.Bans(ctx, guild.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to list bans", goerr.V("guildID", guild.ID))
		}

		if len(bans) == 0 {
			ctxlog.From(ctx).Info("No bans to lift")
			resp = model.NewEmptyUnbanResponse(guild)
			return nil
		}

		targets := make([]model.BatchTarget, 0, len(bans))
		for _, ban := range bans {
			targets = append(targets, model.BatchTarget{UserID: ban.UserID, Label: ban.Label})
		}

		result, err := uc.engine.run(ctx, req.Kind, uc.config.pacing.Interval(req.Kind), targets,
			func(ctx context.Context, target model.BatchTarget) error {
				return sess.Unban(ctx, guild.ID, target.UserID, req.Reason)
			})
		logResult(ctx, result)
		if err != nil {
			return err
		}

		resp = model.NewUnbanBatchResponse(guild, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (uc *GuildAdmin) runRoleBatch(ctx context.Context, kind model.OperationKind, req *model.MutationRequest) (*model.RoleBatchResponse, error) {
	req, ctx, cancel, err := uc.begin(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var resp *model.RoleBatchResponse
	err = withSession(ctx, uc.connector, req.Token, func(ctx context.Context, sess interfaces.GuildSession) error {
		guild, actor, err := checkActor(ctx, sess, req)
		if err != nil {
			return err
		}

		role, err := checkRole(ctx, sess, guild, actor, req)
		if err != nil {
			return err
		}

		members, err := sess.Members(ctx, guild.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to list members", goerr.V("guildID", guild.ID))
		}

		targets := make([]model.BatchTarget, 0, len(members))
		for _, member := range members {
			has := member.HasRole(role.ID)
			targets = append(targets, model.BatchTarget{
				UserID:    member.UserID,
				Label:     member.Label,
				Satisfied: has == (kind == model.OperationAddRole),
			})
		}

		mutate := func(ctx context.Context, target model.BatchTarget) error {
			if kind == model.OperationRemoveRole {
				return sess.RemoveMemberRole(ctx, guild.ID, target.UserID, role.ID, req.Reason)
			}
			return sess.AddMemberRole(ctx, guild.ID, target.UserID, role.ID, req.Reason)
		}

		result, err := uc.engine.run(ctx, kind, uc.config.pacing.Interval(kind), targets, mutate)
		logResult(ctx, result)
		if err != nil {
			return err
		}

		resp = model.NewRoleBatchResponse(kind, role, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// begin validates req for kind, detaches ctx from the caller, bounds it by
// the batch timeout and tags the logger with a job ID.
func (uc *GuildAdmin) begin(ctx context.Context, kind model.OperationKind, req *model.MutationRequest) (*model.MutationRequest, context.Context, context.CancelFunc, error) {
	if req == nil {
		return nil, ctx, func() {}, goerr.New("request is required", goerr.T(model.ErrTagValidation))
	}

	scoped := *req
	scoped.Kind = kind
	if err := scoped.Validate(); err != nil {
		return nil, ctx, func() {}, err
	}

	// A started batch runs to completion even if the client goes away;
	// only the batch timeout stops it.
	ctx = async.Detach(ctx)
	cancel := context.CancelFunc(func() {})
	if uc.config.pacing.BatchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, uc.config.pacing.BatchTimeout)
	}

	logger := ctxlog.From(ctx).With(
		"job_id", newJobID(),
		"operation", kind,
		"guild_id", scoped.GuildID,
	)
	if kind.RequiresRole() {
		logger = logger.With("role_id", scoped.RoleID)
	}
	ctx = ctxlog.With(ctx, logger)
	logger.Info("Starting bulk operation")

	return &scoped, ctx, cancel, nil
}

func logResult(ctx context.Context, result *model.BatchResult) {
	if result == nil {
		return
	}
	ctxlog.From(ctx).Info("Bulk operation finished",
		"total", result.Total,
		"success", result.SuccessCount,
		"skipped", result.SkipCount,
		"errors", result.ErrorCount,
	)
}

func newJobID() types.JobID {
	id, err := uuid.NewV7()
	if err != nil {
		return types.JobID(uuid.NewString())
	}
	return types.JobID(id.String())
}
