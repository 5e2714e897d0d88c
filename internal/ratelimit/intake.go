package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/salesdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyLeadIntake = "salesdesk:ratelimit:intake:%s"

// IntakeLimiter throttles lead creation per client. A nil limiter allows everything.
type IntakeLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

// NewIntakeLimiter returns nil unless Redis and a positive intake rate are configured.
func NewIntakeLimiter(p Params) (*IntakeLimiter, error) {
	limitCfg := p.Cfg.RateLimit
	if !p.Cfg.Redis.Enabled() || limitCfg.IntakeRate <= 0 {
		return nil, nil
	}
	if limitCfg.IntakeBurst <= 0 {
		return nil, ErrInvalidLimit
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Cfg.Redis.Addr,
		Password: p.Cfg.Redis.Password,
		DB:       p.Cfg.Redis.DB,
	})
	p.Lc.Append(fx.StopHook(client.Close))

	p.Log.Named("ratelimit").Info("lead intake rate limit enabled",
		zap.Float64("rate_per_second", limitCfg.IntakeRate),
		zap.Int("burst", limitCfg.IntakeBurst),
	)
	return NewIntakeLimiterWithClient(client, limitCfg.IntakeRate, limitCfg.IntakeBurst), nil
}

func NewIntakeLimiterWithClient(client redis.UniversalClient, rate float64, burst int) *IntakeLimiter {
	return &IntakeLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *IntakeLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *IntakeLimiter) Allow(ctx context.Context, clientKey string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyLeadIntake, strings.TrimSpace(clientKey)), l.rate, l.burst)
}
