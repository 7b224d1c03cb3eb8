package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkoPoloResearchLab/venmo/internal/journal"
	"github.com/MarkoPoloResearchLab/venmo/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/venmo/internal/store/pgstore"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	// BackendGorm stores the journal through GORM (postgres or sqlite).
	BackendGorm = "gorm"
	// BackendPgx stores the journal through a pgx pool (postgres only).
	BackendPgx = "pgx"

	driverPostgres    = "postgres"
	driverSQLite      = "sqlite"
	defaultSQLiteFile = "venmo-journal.db"
)

// OpenJournal opens the journal store described by dsn. The returned cleanup
// releases the underlying connections.
func OpenJournal(ctx context.Context, dsn string, backend string) (journal.Store, func() error, error) {
	driver, sqlitePath, err := ResolveDriver(dsn)
	if err != nil {
		return nil, nil, err
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendGorm:
		return openGormJournal(ctx, dsn, driver, sqlitePath)
	case BackendPgx:
		if driver != driverPostgres {
			return nil, nil, fmt.Errorf("backend %q requires a postgres url", BackendPgx)
		}
		return openPgxJournal(ctx, dsn)
	default:
		return nil, nil, fmt.Errorf("unsupported journal backend %q", backend)
	}
}

func openGormJournal(ctx context.Context, dsn string, driver string, sqlitePath string) (journal.Store, func() error, error) {
	var (
		db  *gorm.DB
		err error
	)
	cfg := &gorm.Config{}
	switch driver {
	case driverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case driverSQLite:
		db, err = gorm.Open(sqlite.Open(sqlitePath), cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	journalStore := gormstore.New(db.WithContext(ctx))
	if err := journalStore.AutoMigrate(); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}
	return journalStore, cleanup, nil
}

func openPgxJournal(ctx context.Context, dsn string) (journal.Store, func() error, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error {
		pool.Close()
		return nil
	}
	journalStore := pgstore.New(pool, nil)
	if err := journalStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return journalStore, cleanup, nil
}

// ResolveDriver maps a database url to a driver name and, for sqlite, a file path.
func ResolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = defaultSQLiteFile
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return driverSQLite, sqlitePath, err
	}
	if strings.TrimSpace(dsn) == "" {
		return "", "", fmt.Errorf("database url is required")
	}
	// Anything else is a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return driverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
