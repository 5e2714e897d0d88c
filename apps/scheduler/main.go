package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation"
	"github.com/smallbiznis/salesdesk/internal/allocationrule"
	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/config"
	"github.com/smallbiznis/salesdesk/internal/lead"
	"github.com/smallbiznis/salesdesk/internal/lock"
	"github.com/smallbiznis/salesdesk/internal/observability"
	"github.com/smallbiznis/salesdesk/internal/productgroup"
	"github.com/smallbiznis/salesdesk/internal/salesemployee"
	"github.com/smallbiznis/salesdesk/internal/scheduler"
	"github.com/smallbiznis/salesdesk/internal/specialization"
	"github.com/smallbiznis/salesdesk/pkg/db"
	"go.uber.org/fx"
)

// The scheduler worker runs the daily reset and bulk distribution jobs
// without serving HTTP. Run it alongside API replicas started with
// SCHEDULER_ENABLED=false; the reset ledger and the bulk lock keep
// several workers from double-running a job.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		// Domain services required by the jobs
		productgroup.Module,
		salesemployee.Module,
		specialization.Module,
		lead.Module,
		allocationrule.Module,
		allocation.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
