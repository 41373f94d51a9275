package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated in-memory SQLite database
func SetupTestDB() (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	// every pooled connection to :memory: would see its own empty database
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get test database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := MigrateDB(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func CleanupTestDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// TruncateAllTables deletes every row of every migrated model
func TruncateAllTables(conn *gorm.DB) error {
	all := conn.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range Models() {
		if err := all.Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
