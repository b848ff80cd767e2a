package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/khelo/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Default.LogMode(logger.Warn))
}

// NewQuietDatabase opens the database with SQL logging disabled. The CLI
// commands use it so their output stays readable.
func NewQuietDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Default.LogMode(logger.Silent))
}

func open(dbPath string, gormLogger logger.Interface) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(withBusyTimeout(dbPath)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Record{},
		&entities.SyncProgress{},
		&entities.AnalysisRecord{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// busyTimeoutMillis lets a connection wait for another process's write
// instead of failing with "database is locked".
const busyTimeoutMillis = 5000

func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", dsn, sep, busyTimeoutMillis)
}

// Ping checks that the underlying connection is usable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
