package lock

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/salesdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lock",
	fx.Provide(NewLocker),
)

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

// NewLocker returns a Redis-backed locker when REDIS_ADDR is set, otherwise a
// process-local one.
func NewLocker(p Params) Locker {
	log := p.Log.Named("lock")
	if !p.Cfg.Redis.Enabled() {
		log.Info("redis not configured, using in-process locks")
		return NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Cfg.Redis.Addr,
		Password: p.Cfg.Redis.Password,
		DB:       p.Cfg.Redis.DB,
	})
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", p.Cfg.Redis.Addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	log.Info("using redis locks", zap.String("addr", p.Cfg.Redis.Addr))
	return NewRedisLocker(client)
}
