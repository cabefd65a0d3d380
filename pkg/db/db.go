package db

import (
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/instill-ai/recording-backend/config"
)

var db *gorm.DB
var once sync.Once

// GetSharedConnection returns the process-wide database connection.
func GetSharedConnection() *gorm.DB {
	once.Do(func() {
		var err error
		db, err = GetConnection(config.Config.Database, config.Config.Server.Debug)
		if err != nil {
			panic(err)
		}
	})
	return db
}

// GetConnection opens a pooled PostgreSQL connection.
func GetConnection(databaseConfig config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=%s",
		databaseConfig.Host,
		databaseConfig.Username,
		databaseConfig.Password,
		databaseConfig.Name,
		databaseConfig.Port,
		databaseConfig.TimeZone,
	)

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(databaseConfig.Pool.IdleConnections)
	sqlDB.SetMaxOpenConns(databaseConfig.Pool.MaxConnections)
	sqlDB.SetConnMaxLifetime(databaseConfig.Pool.ConnLifeTime)

	return conn, nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
