package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/indiancoinstore/coinstore-backend/config"
	appLogger "github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// slowQuery is logged at warn level
const slowQuery = 200 * time.Millisecond

// Initialize opens the postgres connection used by the postgres cart backend
func Initialize(cfg *config.DatabaseConfig) error {
	appLogger.Info("Connecting to database", map[string]interface{}{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.DBName,
		"user":     cfg.User,
	})

	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: queryLogger{},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = conn
	appLogger.Info("Database connection established successfully", map[string]interface{}{
		"max_idle_conns":    cfg.MaxIdleConns,
		"max_open_conns":    cfg.MaxOpenConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})
	return nil
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}

// queryLogger sends gorm's failures and slow queries to the app logger
type queryLogger struct{}

func (l queryLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (queryLogger) Info(_ context.Context, msg string, args ...interface{}) {
	appLogger.Debug(fmt.Sprintf(msg, args...))
}

func (queryLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	appLogger.Warn(fmt.Sprintf(msg, args...))
}

func (queryLogger) Error(_ context.Context, msg string, args ...interface{}) {
	appLogger.Error(fmt.Sprintf(msg, args...), nil)
}

func (queryLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		appLogger.Error("Query failed", err, map[string]interface{}{
			"sql":         sql,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		})
	case elapsed > slowQuery:
		sql, rows := fc()
		appLogger.Warn("Slow query", map[string]interface{}{
			"sql":         sql,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
}
