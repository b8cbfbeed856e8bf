package db

import (
	"expense_tracker/internal/config" // Custom package for configuration
	"fmt"                             // Error formatting
	"os"                              // Data directory
	"path/filepath"                   // Data directory

	"github.com/glebarez/sqlite" // Pure-Go SQLite driver for GORM
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM query logger
)

// Open connects to the configured database engine
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector // Engine-specific dialector
	switch cfg.DBDriver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.MySQLDSN()) // Setup Data Source Name (DSN) for MySQL
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath)) // File-backed SQLite
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	level := logger.Warn // Only slow queries and errors in production
	if !cfg.IsProd {
		level = logger.Info // Full query log while developing
	}
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,                          // Surface unique violations as gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(level), // Query logging
	})
}

// SQLiteDSN enables foreign keys so cascades behave like MySQL
func SQLiteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
