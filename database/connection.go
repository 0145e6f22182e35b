package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
)

// DB is an open database handle that remembers which dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect

	pool *pgxpool.Pool
}

// InferDialect returns the dialect named by the URL scheme.
func InferDialect(dbURL string) (Dialect, error) {
	i := strings.Index(dbURL, ":")
	if i <= 0 {
		return "", errors.Wrapf(ErrInvalidURL, "%q has no scheme", dbURL)
	}

	switch scheme := strings.ToLower(dbURL[:i]); scheme {
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", errors.Wrap(ErrUnknownDialect, scheme)
	}
}

// Open connects to dbURL and verifies the connection with a ping.
func Open(ctx context.Context, dbURL string) (*DB, error) {
	dialect, err := InferDialect(dbURL)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case Postgres:
		return openPostgres(ctx, dbURL)
	case MySQL:
		return openMySQL(ctx, dbURL)
	default:
		return openSQLite(ctx, dbURL)
	}
}

func openPostgres(ctx context.Context, dbURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %v", err)
	}

	return &DB{DB: stdlib.OpenDBFromPool(pool), Dialect: Postgres, pool: pool}, nil
}

func openMySQL(ctx context.Context, dbURL string) (*DB, error) {
	cfg, err := MySQLConfig(dbURL)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to configure mysql: %v", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %v", err)
	}
	return &DB{DB: db, Dialect: MySQL}, nil
}

func openSQLite(ctx context.Context, dbURL string) (*DB, error) {
	if SQLitePath(dbURL) == "" {
		return nil, errors.Wrapf(ErrInvalidURL, "%q names no database file", dbURL)
	}

	db, err := sql.Open("sqlite", SQLiteDSN(dbURL))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %v", err)
	}
	// A single connection keeps DDL and the migration transaction on one handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %v", err)
	}
	return &DB{DB: db, Dialect: SQLite}, nil
}

// MySQLConfig converts a mysql:// URL into a driver configuration.
func MySQLConfig(dbURL string) (*mysql.Config, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidURL, err.Error())
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.MultiStatements = true
	cfg.ParseTime = true

	if cfg.DBName == "" {
		return nil, errors.Wrapf(ErrInvalidURL, "%q names no database", dbURL)
	}
	return cfg, nil
}

// SQLitePath extracts the file path from sqlite:path, sqlite://path and
// sqlite:///abs/path URLs.
func SQLitePath(dbURL string) string {
	rest := dbURL[strings.Index(dbURL, ":")+1:]
	rest = strings.TrimPrefix(rest, "//")
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// SQLiteDSN is the driver name for a sqlite URL: its path plus its own query
// options, with foreign key enforcement switched on unless the URL sets it.
func SQLiteDSN(dbURL string) string {
	path := SQLitePath(dbURL)
	var options []string
	if _, query, ok := strings.Cut(dbURL, "?"); ok && query != "" {
		options = append(options, query)
	}
	if !strings.Contains(dbURL, "_pragma=foreign_keys") {
		options = append(options, "_pragma=foreign_keys(1)")
	}
	return path + "?" + strings.Join(options, "&")
}

// Placeholder returns the n-th (1-based) bind parameter marker for the dialect.
func (db *DB) Placeholder(n int) string {
	if db.Dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Close releases the handle and, for Postgres, the underlying pool.
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}
