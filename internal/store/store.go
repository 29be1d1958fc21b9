package store

import (
	"fmt"
	"path"
	"time"

	"github.com/ecistack/ecommerce/config"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecistack/ecommerce/internal/domain"
)

// NewDatabase opens the relational store described by cfg and configures the
// bounded connection pool. Pool exhaustion blocks callers until a connection
// frees or the acquire times out.
func NewDatabase(cfg *config.AppConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Type {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(path.Join(cfg.GetDataDir(), "ecommerce.db"))
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=%s",
			cfg.Database.Host, cfg.Database.User, cfg.Database.Passwd,
			cfg.Database.Name, cfg.Database.Port, cfg.System.Location)
		dialector = postgres.Open(dsn)
	}

	level := logger.Error
	if cfg.Database.Debug {
		level = logger.Info
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, errors.Wrap(err, "acquire sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConn)
	sqlDB.SetMaxIdleConns(cfg.Database.IdleConn)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gormDB, nil
}

// Translate maps driver/gorm errors onto the domain error taxonomy so callers
// can branch on sentinels instead of driver details.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	case errors.Is(err, gorm.ErrInvalidDB), errors.Is(err, gorm.ErrInvalidTransaction):
		return domain.ErrStoreUnavailable
	default:
		return err
	}
}
