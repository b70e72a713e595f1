package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
)

// checkActor resolves the guild and the session's own membership and
// verifies the capability required by req.Kind.
func checkActor(ctx context.Context, sess interfaces.GuildSession, req *model.MutationRequest) (*model.Guild, *model.Actor, error) {
	guild, err := sess.Guild(ctx, req.GuildID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to resolve guild", goerr.V("guildID", req.GuildID))
	}

	actor, err := sess.Self(ctx, guild)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to resolve own membership", goerr.V("guildID", guild.ID))
	}

	required := req.Kind.RequiredCapability()
	if !actor.Can(required) {
		return nil, nil, goerr.New(fmt.Sprintf("bot lacks the %q permission in this guild", required.String()),
			goerr.V("guildID", guild.ID),
			goerr.V("capability", required.String()),
			goerr.T(model.ErrTagForbidden),
			model.WithLabel(model.LabelMissingPermission),
		)
	}

	return guild, actor, nil
}

// checkRole resolves the target role and requires the actor to outrank it
func checkRole(ctx context.Context, sess interfaces.GuildSession, guild *model.Guild, actor *model.Actor, req *model.MutationRequest) (*model.Role, error) {
	role, err := sess.Role(ctx, guild.ID, req.RoleID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve role", goerr.V("roleID", req.RoleID))
	}

	if !actor.Outranks(role) {
		return nil, goerr.New(
			fmt.Sprintf("role %q (position %d) must be below the bot's highest role (position %d)",
				role.Name, role.Position, actor.HighestPosition),
			goerr.V("roleID", role.ID),
			goerr.V("rolePosition", role.Position),
			goerr.V("actorPosition", actor.HighestPosition),
			goerr.T(model.ErrTagForbidden),
			model.WithLabel(model.LabelPrecedenceViolation),
		)
	}

	return role, nil
}
