package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module seeds demo data on startup when SEED_DEMO is set. It must come after
// the migration module so the tables exist.
var Module = fx.Module("seed",
	fx.Invoke(func(cfg config.Config, db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
		if !cfg.SeedDemo {
			return nil
		}
		if err := EnsureDemoData(context.Background(), db, node); err != nil {
			return err
		}
		log.Named("seed").Info("demo data ready")
		return nil
	}),
)
