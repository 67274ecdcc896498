// Package dependencies wires the shared infrastructure for the command
// layer: config, logging, the durable store, rate limiting, the HTTP client,
// the response cache and the providers built on top of them.
package dependencies

import (
	"context"

	"go.uber.org/fx"

	"github.com/clipforge/clipforge/conf"
	"github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/pkg/kvstore"
)

var Module = fx.Module("dependencies",
	fx.Provide(conf.Load),
	fx.Provide(func(cfg conf.Config) log.Config { return cfg.Log }),
	fx.Provide(log.New),
	fx.Provide(NewStore),
	fx.Provide(NewLimiter),
	fx.Provide(NewHTTPClient),
	fx.Provide(NewResponseCache),
	fx.Provide(NewScriptGenerator),
	fx.Invoke(func(lc fx.Lifecycle, store *kvstore.Store, logger *log.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				err := store.Close()
				_ = logger.Sync()

				return err
			},
		})
	}),
)
