// Package app assembles the user service from configuration. Both the HTTP
// server and the CLI start here.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"user-admin/internal/core/cache"
	"user-admin/internal/core/config"
	"user-admin/internal/core/database"
	"user-admin/internal/domain"
	"user-admin/internal/events"
	"user-admin/internal/export"
	"user-admin/internal/repo"
	"user-admin/internal/service"
)

type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Users   *service.UserService
	closers []func()
}

// New wires storage and the optional collaborators. Redis, RabbitMQ and the
// archive bucket are optional: when one is configured but unreachable the app
// logs a warning and runs without it. The database is not optional.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	users, err := a.openUsers(cfg.DB)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := service.Deps{
		Users:    users,
		CacheTTL: time.Duration(cfg.Redis.TTLSec) * time.Second,
		Log:      log,
	}
	if cfg.Redis.Enabled() {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, user cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			deps.Cache = c
			a.closers = append(a.closers, func() { _ = c.Close() })
			log.Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}
	if cfg.Events.Enabled() {
		p, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, log.Named("events"))
		if err != nil {
			log.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			deps.Events = p
			a.closers = append(a.closers, func() { _ = p.Close() })
		}
	}
	if cfg.Export.Enabled() {
		arch, err := export.NewS3Archiver(ctx, cfg.Export)
		if err != nil {
			log.Warn("export archive disabled", zap.Error(err))
		} else {
			deps.Archiver = arch
			log.Info("export archive enabled", zap.String("bucket", cfg.Export.Bucket))
		}
	}

	a.Users = service.NewUserService(deps)
	return a, nil
}

func (a *App) openUsers(c config.DB) (domain.UserRepository, error) {
	if c.Driver == "memory" {
		a.Log.Warn("using in-memory storage, data is lost on exit")
		return repo.NewMemoryUserRepo(), nil
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             c.Driver,
		DSN:                c.DSN,
		Username:           c.Username,
		Password:           c.Password,
		MaxOpenConns:       c.MaxOpenConns,
		MaxIdleConns:       c.MaxIdleConns,
		ConnMaxLifetimeMin: c.ConnMaxLifetimeMin,
		LogLevel:           c.LogLevel,
	}, a.Log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}
	a.Log.Info("database connected", zap.String("driver", c.Driver))

	if c.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		a.Log.Info("automigrate done")
	}
	return repo.NewUserRepo(db), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
