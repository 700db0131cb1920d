package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/samber/do"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("not found")

// DB is the sqlite handle shared by the stores.
type DB struct {
	*sqlx.DB
}

func NewDB(i *do.Injector) (*DB, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return Open(context.Background(), cfg.DatabasePath)
}

// Open migrates the database at path and connects to it.
func Open(ctx context.Context, path string) (*DB, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("history").With("path", path)

	if err := Migrate(path); err != nil {
		return nil, err
	}
	log.Info("database migrated")

	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return &DB{db}, nil
}

// dsn applies the pragmas on every connection the pool opens.
func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate applies the embedded migrations. It uses its own connection since
// the migrator closes the one it is given.
func Migrate(path string) error {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	driver, err := sqlite.WithInstance(conn, &sqlite.Config{DatabaseName: "main"})
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating migration driver: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		conn.Close()
		return fmt.Errorf("reading migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (db *DB) Shutdown() error {
	return db.Close()
}
