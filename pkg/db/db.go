package db

import (
	"fmt"
	"time"

	"github.com/smallbiznis/salesdesk/internal/config"
	"github.com/smallbiznis/salesdesk/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

// New opens the configured database with pool limits and the
// tracing and metrics plugins installed.
func New(p Params) (*gorm.DB, error) {
	conn, err := Open(p.Cfg, true)
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.StopHook(func() error {
		p.Log.Info("closing database connections")
		return sqlDB.Close()
	}))

	p.Log.Info("database connected",
		zap.String("dialect", conn.Dialector.Name()),
		zap.Int("max_open_conns", p.Cfg.DBMaxOpenConn),
	)
	return conn, nil
}

// Open builds a *gorm.DB from cfg. Instrumentation registers global collectors,
// so callers opening more than one handle per process pass instrument=false.
func Open(cfg config.Config, instrument bool) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if conn.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Second)
	}

	if !instrument {
		return conn, nil
	}

	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.DBName))); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}
	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          cfg.DBName,
		RefreshInterval: 15,
		StartServer:     false,
	})); err != nil {
		return nil, fmt.Errorf("install metrics plugin: %w", err)
	}
	return conn, nil
}
