package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"presensi.app/presensi/presensi/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// ParseLogLevel maps a config value to a LogLevel; unknown values fall back
// to warn.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "info":
		return LogLevelInfo
	default:
		return LogLevelWarn
	}
}

type DatabaseManager struct {
	DB       *gorm.DB
	SqlDB    *sql.DB
	LogLevel LogLevel
}

// Dialector picks the GORM dialector for a configured driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "", "mysql":
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// New creates the pool for driver/dsn with at most maxConnection
// connections.
func New(driver, dsn string, maxConnection int, level LogLevel) (*DatabaseManager, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	return Open(dialector, maxConnection, level)
}

// Open wraps an already constructed dialector. Tests use it with SQLite.
func Open(dialector gorm.Dialector, maxConnection int, level LogLevel) (*DatabaseManager, error) {
	// Map local LogLevel to GORM LogLevel
	gormLogLevel := logger.Warn
	switch level {
	case LogLevelError:
		gormLogLevel = logger.Error
	case LogLevelWarn:
		gormLogLevel = logger.Warn
	case LogLevelInfo:
		gormLogLevel = logger.Info
	case LogLevelSilent:
		gormLogLevel = logger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormLogLevel,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	if maxConnection > 0 {
		sqlDB.SetMaxOpenConns(maxConnection)
		sqlDB.SetMaxIdleConns(maxConnection)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping pool: %w", err)
	}

	return &DatabaseManager{DB: db, SqlDB: sqlDB, LogLevel: level}, nil
}

// Close closes the global pool
func (dm *DatabaseManager) Close() error {
	return dm.SqlDB.Close()
}

// Exec runs fn with a session bound to ctx.
func (dm *DatabaseManager) Exec(ctx context.Context, fn func(db *gorm.DB) error) error {
	return fn(dm.DB.WithContext(ctx))
}

// Transaction runs fn inside a database transaction bound to ctx; any
// returned error rolls it back.
func (dm *DatabaseManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return dm.DB.WithContext(ctx).Transaction(fn)
}

// Migrate creates or updates the tables owned by this service.
func (dm *DatabaseManager) Migrate() error {
	models := []interface{}{
		&User{},
		&model.AttendanceSession{},
	}

	for _, m := range models {
		if err := dm.DB.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}
	return nil
}
