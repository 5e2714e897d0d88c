package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/config"
	"github.com/smallbiznis/salesdesk/internal/lock"
	"github.com/smallbiznis/salesdesk/internal/migration"
	"github.com/smallbiznis/salesdesk/internal/observability"
	"github.com/smallbiznis/salesdesk/internal/scheduler"
	"github.com/smallbiznis/salesdesk/internal/seed"
	"github.com/smallbiznis/salesdesk/internal/server"
	"github.com/smallbiznis/salesdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		seed.Module,
		clock.Module,
		lock.Module,

		// HTTP surface and the domain modules behind it
		server.Module,

		// Background jobs
		scheduler.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
