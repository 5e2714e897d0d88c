package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	allocationdomain "github.com/smallbiznis/salesdesk/internal/allocation/domain"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&productgroupdomain.ProductGroup{},
		&salesemployeedomain.SalesEmployee{},
		&salesemployeedomain.CounterReset{},
		&specializationdomain.Specialization{},
		&allocationruledomain.AllocationRule{},
		&leaddomain.Lead{},
		&allocationdomain.AssignmentEvent{},
	}
}

// AutoMigrate builds the schema from the gorm models. It serves sqlite and
// mysql, which the embedded SQL does not target.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Apply picks the migration strategy for the connected dialect.
func Apply(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() != "postgres" {
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
