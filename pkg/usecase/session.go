package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

// sessionGuard releases a session at most once
type sessionGuard struct {
	sess interfaces.GuildSession
	once sync.Once
	err  error
}

func (g *sessionGuard) release() error {
	g.once.Do(func() {
		g.err = g.sess.Close()
	})
	return g.err
}

// withSession opens one session for token, runs fn with it and releases
// the session on every exit path of fn, including a panic.
func withSession(ctx context.Context, connector interfaces.GuildConnector, token types.BotToken, fn func(ctx context.Context, sess interfaces.GuildSession) error) error {
	sess, err := connector.Connect(ctx, token)
	if err != nil {
		return goerr.Wrap(err, "failed to open platform session")
	}

	guard := &sessionGuard{sess: sess}
	defer func() {
		if err := guard.release(); err != nil {
			ctxlog.From(ctx).Warn("Failed to release platform session", "error", err)
		}
	}()

	return fn(ctx, sess)
}
