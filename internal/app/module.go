// Package app composes a full puppet instance: config, logging, session
// lock, driver, archive, and lifecycle hooks.
package app

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	puppetwhatsapp "github.com/bung87/puppet-whatsapp"
	"github.com/bung87/puppet-whatsapp/internal/archive"
	"github.com/bung87/puppet-whatsapp/internal/config"
	"github.com/bung87/puppet-whatsapp/internal/lock"
	"github.com/bung87/puppet-whatsapp/internal/logging"
	"github.com/bung87/puppet-whatsapp/internal/session"
	"github.com/bung87/puppet-whatsapp/internal/store"
	"github.com/bung87/puppet-whatsapp/memorycard"
	"github.com/bung87/puppet-whatsapp/wadriver"
)

// Params holds the resolved invocation options passed to the fx module.
type Params struct {
	// SessionName overrides the configured session when non-empty.
	SessionName string
}

// SessionName is the fully resolved session name.
type SessionName string

// Module returns the fx module composing all providers and lifecycle
// hooks for one puppet session.
func Module(p Params) fx.Option {
	return fx.Module("puppet",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideSessionName,
			provideLogger,
			provideLock,
			provideCard,
			provideDriver,
			providePuppet,
			provideStore,
			provideArchive,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	return config.Load(session.ConfigPath())
}

func provideSessionName(p Params, cfg *config.Config) (SessionName, error) {
	name := cfg.Session
	if p.SessionName != "" {
		name = p.SessionName
	}
	if err := session.ValidateName(name); err != nil {
		return "", err
	}
	return SessionName(name), nil
}

func provideLogger(name SessionName) (*zap.Logger, error) {
	logger, err := logging.New(session.LogPath(string(name)), string(name))
	if err != nil {
		return nil, err
	}
	// Distinguishes overlapping runs of the same session in the log.
	return logger.With(zap.String("instance", uuid.NewString()[:8])), nil
}

func provideLock(name SessionName, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(string(name)); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", string(name)))
	l, err := lock.Acquire(session.Dir(string(name)))
	if err != nil {
		return nil, err
	}
	return l, nil
}

func provideCard(name SessionName) memorycard.Card {
	return memorycard.NewFileCard(session.MemoryCardPath(string(name)))
}

func provideDriver(name SessionName, cfg *config.Config, logger *zap.Logger, _ *lock.Lock) (*wadriver.Adapter, error) {
	drv, err := wadriver.New(context.Background(), session.DeviceDBPath(string(name)), logger)
	if err != nil {
		return nil, err
	}
	if cfg.Proxy != "" {
		if err := drv.SetProxy(cfg.Proxy); err != nil {
			return nil, err
		}
	}
	return drv, nil
}

func providePuppet(drv *wadriver.Adapter, card memorycard.Card, cfg *config.Config, logger *zap.Logger) *puppetwhatsapp.Puppet {
	opts := []puppetwhatsapp.Option{
		puppetwhatsapp.WithLogger(logger),
		puppetwhatsapp.WithMemoryCard(card),
	}
	if cfg.CommandTimeout > 0 {
		opts = append(opts, puppetwhatsapp.WithCommandTimeout(cfg.CommandTimeout))
	}
	return puppetwhatsapp.New(drv, opts...)
}

func provideStore(name SessionName, logger *zap.Logger, _ *lock.Lock) (*store.DB, error) {
	db, err := store.Open(session.ArchiveDBPath(string(name)))
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("archive initialized", zap.Uint("version", result.Version), zap.Bool("changed", result.Changed))
	return db, nil
}

func provideArchive(db *store.DB, logger *zap.Logger) *archive.Engine {
	return archive.NewEngine(db, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	pup *puppetwhatsapp.Puppet,
	eng *archive.Engine,
	cfg *config.Config,
	db *store.DB,
	lk *lock.Lock,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Archive {
				eng.Attach(pup)
			}
			return pup.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := pup.Close(ctx); err != nil {
				logger.Warn("puppet close", zap.Error(err))
			}
			_ = db.Close()
			if err := lk.Release(); err != nil {
				logger.Warn("release lock", zap.Error(err))
			}
			logger.Info("session shut down")
			return nil
		},
	})
}
