package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"coursebuilder/internal/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DBConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string
}

// Open connects to the configured database and migrates the schema.
func Open(ctx context.Context, cfg DBConfig, log *logger.Logger) (*gorm.DB, error) {
	log = logger.OrNop(log).With("service", "store")
	gcfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		db, err = openSQLite(ctx, cfg.DSN, gcfg)
	case DriverPostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("postgres: missing dsn")
		}
		log.Info("Connecting to Postgres...")
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q (want sqlite or postgres)", cfg.Driver)
	}
	if err != nil {
		log.Error("Failed to open database", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		log.Error("Auto migration failed", "error", err)
		return nil, err
	}
	log.Info("Database ready", "driver", db.Dialector.Name())
	return db, nil
}

func openSQLite(ctx context.Context, path string, gcfg *gorm.Config) (*gorm.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "coursebuilder.db"
	}
	// modernc.org/sqlite driver name is "sqlite".
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps pragmas and transactions on the same handle.
	sqlDB.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	return gorm.Open(gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", Conn: sqlDB}), gcfg)
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&courseRow{},
		&moduleRow{},
		&lessonRow{},
		&blockRow{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
