package bootstrap

import (
	"context"
	"os"
	"path/filepath"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"blogposts/app/internal/article"
	"blogposts/app/internal/config"
	"blogposts/app/internal/db"
	apphttp "blogposts/app/internal/http"
	"blogposts/app/internal/user"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

// Store groups the migrated database and the repositories built on top of it.
type Store struct {
	Database *gorm.DB
	Articles *article.GormRepository
	Users    *user.GormRepository
}

// Close releases the underlying database connection.
func (s Store) Close() error {
	return db.Close(s.Database)
}

type Result struct {
	ArticleService article.Service
	Users          user.Repository
	HTTPServer     *apphttp.Server
	Database       *gorm.DB
	Cleanup        func() error
}

// OpenStore opens the configured database, runs migrations and builds the repositories.
func OpenStore(ctx context.Context, deps Dependencies) (Store, error) {
	cfg := deps.Config.DB

	if (cfg.Driver == "" || cfg.Driver == db.DriverSQLite) && cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return Store{}, eris.Wrapf(err, "creating database directory for %s", cfg.Path)
		}
	}

	conn, err := db.Open(db.Options{Driver: cfg.Driver, Path: cfg.Path, DSN: cfg.DSN})
	if err != nil {
		return Store{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Store, error) {
		if closeErr := db.Close(conn); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Store{}, wrapper
	}

	if err := article.Migrate(ctx, conn, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running article migrations"))
	}

	articles, err := article.NewRepository(conn, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating article repository"))
	}

	users, err := user.NewRepository(conn, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating user repository"))
	}

	return Store{Database: conn, Articles: articles, Users: users}, nil
}

// Build composes the application layers and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	store, err := OpenStore(ctx, deps)
	if err != nil {
		return Result{}, err
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := store.Close(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	articleService, err := article.NewService(store.Articles, store.Users, deps.Logger, deps.SentryHub)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating article service"))
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		ArticleService: articleService,
		Database:       store.Database,
		Logger:         deps.Logger,
		SentryHub:      deps.SentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             deps.Config.RateLimit.Burst,
			RequestsPerSecond: deps.Config.RateLimit.RequestsPerSecond,
			ClientTTL:         deps.Config.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return store.Close()
	}

	return Result{
		ArticleService: articleService,
		Users:          store.Users,
		HTTPServer:     httpServer,
		Database:       store.Database,
		Cleanup:        cleanup,
	}, nil
}
