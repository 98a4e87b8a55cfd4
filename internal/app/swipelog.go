package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KentaroHashi12/Futarigohan/internal/config"
	infra_metrics "github.com/KentaroHashi12/Futarigohan/internal/infra/metrics"
	infra_pg_init "github.com/KentaroHashi12/Futarigohan/internal/infra/postgres/init"
	infra_postgres_notify "github.com/KentaroHashi12/Futarigohan/internal/infra/postgres/notify"
	infra_postgres_swipelog "github.com/KentaroHashi12/Futarigohan/internal/infra/postgres/swipelog"
	infra_redis_init "github.com/KentaroHashi12/Futarigohan/internal/infra/redis/init"
	infra_redis_pubsub "github.com/KentaroHashi12/Futarigohan/internal/infra/redis/pubsub"
	infra_redis_swipelog "github.com/KentaroHashi12/Futarigohan/internal/infra/redis/swipelog"
	infra_sqlite_swipelog "github.com/KentaroHashi12/Futarigohan/internal/infra/sqlite/swipelog"
	storage_swipelog "github.com/KentaroHashi12/Futarigohan/internal/storage/swipelog"
)

// OpenSwipeLog builds the configured swipe log backing. Whatever goes wrong
// with a shared backing, the local SQLite file is used instead, and an
// in-memory database if even that cannot be opened. It never fails.
// localOpts only apply when the result is sqlite.
func OpenSwipeLog(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *infra_metrics.Metrics,
	localOpts ...storage_swipelog.Option,
) (*storage_swipelog.Storage, func()) {
	opts := []storage_swipelog.Option{
		storage_swipelog.WithLogger(logger.With(slog.String("component", "swipelog"))),
		storage_swipelog.WithMetrics(metrics),
	}
	session := cfg.SwipeLog.Session

	switch cfg.SwipeLog.Backend {
	case config.BackendRedis:
		st, closeFn, err := openRedis(cfg, session, logger, opts)
		if err == nil {
			return st, closeFn
		}
		logger.Warn("redis swipe log unavailable, using sqlite", slog.String("error", err.Error()))

	case config.BackendPostgres:
		st, closeFn, err := openPostgres(ctx, cfg, session, logger, opts)
		if err == nil {
			return st, closeFn
		}
		logger.Warn("postgres swipe log unavailable, using sqlite", slog.String("error", err.Error()))

	case config.BackendSQLite, "":

	default:
		logger.Warn("unknown swipe log backend, using sqlite", slog.String("backend", cfg.SwipeLog.Backend))
	}

	return openSQLite(cfg.SwipeLog.SQLitePath, session, logger, append(opts, localOpts...))
}

func openRedis(
	cfg *config.Config,
	session string,
	logger *slog.Logger,
	opts []storage_swipelog.Option,
) (*storage_swipelog.Storage, func(), error) {
	client, err := infra_redis_init.EstablishConn(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	repo := infra_redis_swipelog.New(client, session, logger)
	notifier := infra_redis_pubsub.New(client, session, logger)

	logger.Info("swipe log: redis", slog.String("session", session))
	st := storage_swipelog.New(repo, append(opts, storage_swipelog.WithNotifier(notifier))...)
	return st, func() { client.Close() }, nil
}

func openPostgres(
	ctx context.Context,
	cfg *config.Config,
	session string,
	logger *slog.Logger,
	opts []storage_swipelog.Option,
) (*storage_swipelog.Storage, func(), error) {
	db, err := infra_pg_init.EstablishConn(cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}

	repo := infra_postgres_swipelog.New(db, session, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("postgres schema: %w", err)
	}
	notifier := infra_postgres_notify.New(db, infra_pg_init.DSN(cfg.Postgres), session,
		infra_postgres_notify.WithLogger(logger))

	logger.Info("swipe log: postgres", slog.String("session", session))
	st := storage_swipelog.New(repo, append(opts, storage_swipelog.WithNotifier(notifier))...)
	return st, func() { db.Close() }, nil
}

func openSQLite(
	path string,
	session string,
	logger *slog.Logger,
	opts []storage_swipelog.Option,
) (*storage_swipelog.Storage, func()) {
	if path == "" {
		path = infra_sqlite_swipelog.InMemoryPath
	}

	driver, err := infra_sqlite_swipelog.Open(path, session, logger)
	if err != nil {
		logger.Warn("sqlite swipe log unavailable, history will not survive a restart",
			slog.String("path", path),
			slog.String("error", err.Error()))
		driver, err = infra_sqlite_swipelog.Open(infra_sqlite_swipelog.InMemoryPath, session, logger)
		if err != nil {
			// Only possible without a working sqlite3 driver at all.
			panic(fmt.Sprintf("in-memory sqlite: %v", err))
		}
	}

	logger.Info("swipe log: sqlite", slog.String("path", path), slog.String("session", session))
	return storage_swipelog.New(driver, opts...), func() { driver.Close() }
}
