package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
)

type mutateFunc func(ctx context.Context, target model.BatchTarget) error

// bulkEngine applies one mutation per target in order
type bulkEngine struct {
	pacer interfaces.Pacer
}

// run visits targets sequentially. Satisfied targets are skipped without a
// call or a pause, failures are recorded and never abort the batch, and
// each success is followed by a pause of interval before the next target.
// Only a done ctx stops the loop early; the returned error then reports
// how far the batch got.
func (e *bulkEngine) run(ctx context.Context, kind model.OperationKind, interval time.Duration, targets []model.BatchTarget, mutate mutateFunc) (*model.BatchResult, error) {
	logger := ctxlog.From(ctx)
	result := model.NewBatchResult(len(targets))

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return result, stopped(err, result)
		}

		if target.Satisfied {
			result.RecordSkip()
			continue
		}

		if err := mutate(ctx, target); err != nil {
			failure := model.ItemFailure{
				ItemID: target.UserID,
				Label:  target.Label,
				Verb:   kind.Verb(),
				Reason: model.RootCause(err).Error(),
			}
			result.RecordFailure(failure)
			logger.Warn("Bulk mutation failed",
				"user_id", target.UserID,
				"user", target.Label,
				"error", err,
			)
			continue
		}

		result.RecordSuccess(target)

		if i == len(targets)-1 {
			break
		}
		if err := e.pacer.Pause(ctx, interval); err != nil {
			return result, stopped(err, result)
		}
	}

	return result, nil
}

func stopped(err error, result *model.BatchResult) error {
	return goerr.Wrap(err, fmt.Sprintf("batch stopped after %d of %d items (%d succeeded, %d skipped, %d failed)",
		result.Processed(), result.Total, result.SuccessCount, result.SkipCount, result.ErrorCount),
		goerr.V("processed", result.Processed()),
		goerr.V("total", result.Total),
	)
}
