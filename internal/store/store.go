// Package store opens the configured schedule backend and owns its lifecycle:
// connection, schema migrations, health pings and shutdown. Postgres and
// SQLite schemas are managed with goose; MongoDB only needs its indexes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/quickavail/backend/internal/config"
	"github.com/quickavail/backend/internal/repo"
	"github.com/quickavail/backend/migrations"
)

const (
	connectTimeout = 10 * time.Second

	// sqliteBusyTimeout is how long a writer waits on a locked database file.
	sqliteBusyTimeout = 5 * time.Second
)

// Store is an open schedule backend.
type Store struct {
	// Schedules is the repository for the configured driver.
	Schedules repo.ScheduleRepo

	driver   string
	log      *slog.Logger
	pool     *pgxpool.Pool
	sqlDB    *sql.DB
	provider *goose.Provider
	client   *mongo.Client
	mongo    *repo.MongoScheduleRepo
}

// MigrationState reports one schema migration.
type MigrationState struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// Open connects to the backend selected by cfg.StoreDriver and verifies it is
// reachable. It does not migrate; call Migrate before serving traffic.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.DatabaseURL, log)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg.DatabaseURL, log)
	case config.DriverMongo:
		return openMongo(ctx, cfg.DatabaseURL, cfg.MongoDatabase, log)
	default:
		return nil, fmt.Errorf("store.Open: unknown driver %q", cfg.StoreDriver)
	}
}

func openPostgres(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	// pgxpool.New does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store.openPostgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store.openPostgres: ping: %w", err)
	}

	// goose needs database/sql; share the pool rather than opening a second one.
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Postgres())
	if err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("store.openPostgres: goose provider: %w", err)
	}

	return &Store{
		Schedules: repo.NewScheduleRepo(pool),
		driver:    config.DriverPostgres,
		log:       log,
		pool:      pool,
		sqlDB:     db,
		provider:  provider,
	}, nil
}

func openSQLite(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	db, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("store.openSQLite: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store.openSQLite: goose provider: %w", err)
	}
	return &Store{
		Schedules: repo.NewSQLiteScheduleRepo(db),
		driver:    config.DriverSQLite,
		log:       log,
		sqlDB:     db,
		provider:  provider,
	}, nil
}

// OpenSQLite opens the database file at path with the connection pragmas the
// schedule repo expects. Pragmas travel in the DSN so that every pooled
// connection gets them, not only the first.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// SQLiteDSN turns a file path or file: URI into a DSN carrying the pragmas.
func SQLiteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join([]string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", sqliteBusyTimeout.Milliseconds()),
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
	}, "&")
}

func openMongo(ctx context.Context, uri, database string, log *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store.openMongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("store.openMongo: ping: %w", err)
	}
	schedules := repo.NewMongoScheduleRepo(client.Database(database))
	return &Store{
		Schedules: schedules,
		driver:    config.DriverMongo,
		log:       log,
		client:    client,
		mongo:     schedules,
	}, nil
}

// Driver returns the configured driver name.
func (s *Store) Driver() string { return s.driver }

// NativeTTL reports whether the backend expires documents on its own. Stores
// without it rely on the background sweep.
func (s *Store) NativeTTL() bool { return s.driver == config.DriverMongo }

// Migrate brings the schema up to date. For MongoDB it creates the indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if s.mongo != nil {
		if err := s.mongo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("store.Store.Migrate: %w", err)
		}
		s.log.InfoContext(ctx, "mongo indexes ensured", "collection", repo.ScheduleCollection)
		return nil
	}

	results, err := s.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("store.Store.Migrate: %w", err)
	}
	for _, r := range results {
		s.log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}
	if len(results) == 0 {
		s.log.InfoContext(ctx, "schema up to date", "driver", s.driver)
	}
	return nil
}

// Status lists the known migrations and whether each is applied. MongoDB has
// none.
func (s *Store) Status(ctx context.Context) ([]MigrationState, error) {
	if s.provider == nil {
		return []MigrationState{}, nil
	}
	statuses, err := s.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.Store.Status: %w", err)
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, MigrationState{
			Version:   st.Source.Version,
			Path:      st.Source.Path,
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}

// Ping checks that the backend answers.
func (s *Store) Ping(ctx context.Context) error {
	switch {
	case s.pool != nil:
		return s.pool.Ping(ctx)
	case s.client != nil:
		return s.client.Ping(ctx, nil)
	case s.sqlDB != nil:
		return s.sqlDB.PingContext(ctx)
	default:
		return errors.New("store: not open")
	}
}

// Close releases every connection.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			errs = append(errs, err)
		}
	} else if s.sqlDB != nil {
		errs = append(errs, s.sqlDB.Close())
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.client != nil {
		errs = append(errs, s.client.Disconnect(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("store.Store.Close: %w", err)
	}
	return nil
}
