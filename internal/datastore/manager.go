// Package datastore opens and migrates the tonebank database.
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/tonebank/internal/conf"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
)

// slowQueryThreshold is the duration after which queries are logged as slow
const slowQueryThreshold = 200 * time.Millisecond

// Manager defines the interface for database lifecycle operations.
type Manager interface {
	// Initialize creates or migrates the schema.
	Initialize() error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host:port/db for MySQL).
	Path() string
	// Close closes the database connection.
	Close() error
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
}

// Open creates, initializes and returns the manager selected by settings
func Open(settings *conf.Settings, log logger.Logger) (Manager, error) {
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	var (
		mgr Manager
		err error
	)
	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		my := settings.Database.MySQL
		mgr, err = NewMySQLManager(&MySQLConfig{
			Host:     my.Host,
			Port:     my.Port,
			Username: my.Username,
			Password: my.Password,
			Database: my.Database,
		}, log)
	case conf.DatabaseSQLite, "":
		mgr, err = NewSQLiteManager(settings.SQLitePath(), log)
	default:
		return nil, validationError("unsupported database type", "database.type", settings.Database.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := mgr.Initialize(); err != nil {
		_ = mgr.Close()
		return nil, err
	}

	log.Info("database ready",
		logger.String("path", mgr.Path()),
		logger.Bool("mysql", mgr.IsMySQL()))
	return mgr, nil
}

// Repositories returns a repository set bound to the manager's database
func Repositories(mgr Manager) *repository.Set {
	return repository.NewSet(mgr.DB())
}

func gormConfig(log logger.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, slowQueryThreshold),
		TranslateError: true,
	}
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entities.All()...); err != nil {
		return dbError(err, "auto_migrate", errors.PriorityCritical)
	}
	return nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "get_sql_db", "")
	}
	return sqlDB.Close()
}
