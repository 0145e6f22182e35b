package runner

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/database"
	"github.com/ridoystarlord/rhipster/utils"
)

// TrackingTable records applied migration versions. The name is shared with
// the generated service's own migration tooling.
const TrackingTable = "__diesel_schema_migrations"

// ErrMigration marks failures caused by the database rejecting a migration.
var ErrMigration = errors.New("migration failed")

// Migration is one directory holding up.sql and down.sql.
type Migration struct {
	Version string
	Name    string
	Dir     string
}

// MigrationRecord represents an applied migration.
type MigrationRecord struct {
	Version string
	RunOn   string
}

func (m Migration) UpPath() string { return filepath.Join(m.Dir, "up.sql") }

// LoadMigrations reads the migration directories below dir, ordered by name.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %v", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seen := map[string]string{}
	var migrations []Migration
	for _, name := range names {
		m := Migration{
			Version: versionOf(name),
			Name:    name,
			Dir:     filepath.Join(dir, name),
		}
		if m.Version == "" {
			return nil, fmt.Errorf("migration directory %s has no version prefix", name)
		}
		if other, ok := seen[m.Version]; ok {
			return nil, fmt.Errorf("migrations %s and %s share version %s", other, name, m.Version)
		}
		if _, err := os.Stat(m.UpPath()); err != nil {
			return nil, fmt.Errorf("migration %s: %v", name, err)
		}
		seen[m.Version] = name
		migrations = append(migrations, m)
	}
	return migrations, nil
}

// versionOf returns the part of a directory name before the first underscore
// with dashes removed, e.g. 2024-01-02-000000_init -> 20240102000000.
func versionOf(name string) string {
	v, _, _ := strings.Cut(name, "_")
	return strings.ReplaceAll(v, "-", "")
}

func ensureMigrationsTable(ctx context.Context, db *database.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS `+TrackingTable+` (
		version VARCHAR(50) PRIMARY KEY NOT NULL,
		run_on TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create %s table: %v", TrackingTable, err)
	}
	return nil
}

func getAppliedMigrations(ctx context.Context, db *database.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM `+TrackingTable)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %v", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan version: %v", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// Applied lists applied migrations, oldest version first.
func Applied(ctx context.Context, db *database.DB) ([]MigrationRecord, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT version, run_on FROM `+TrackingTable+` ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %v", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var r MigrationRecord
		if err := rows.Scan(&r.Version, &r.RunOn); err != nil {
			return nil, fmt.Errorf("scan migration record: %v", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Pending returns the migrations in dir that have not been applied yet.
func Pending(ctx context.Context, db *database.DB, dir string) ([]Migration, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}

	applied, err := getAppliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}

	all, err := LoadMigrations(dir)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, m := range all {
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// ApplyMigrations runs every pending migration in dir, each in its own
// transaction together with its tracking row.
func ApplyMigrations(ctx context.Context, db *database.DB, dir string) error {
	pending, err := Pending(ctx, db, dir)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		utils.Info("✅ No pending migrations.")
		return nil
	}

	utils.Info("Applying %d migration(s)...", len(pending))
	for _, m := range pending {
		utils.Info("Applying: %s", m.Name)
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *database.DB, m Migration) (err error) {
	up, err := os.ReadFile(m.UpPath())
	if err != nil {
		return fmt.Errorf("read %s: %v", m.UpPath(), err)
	}

	startTime := time.Now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for %s: %v", m.Name, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if hasStatements(string(up)) {
		if _, err = tx.ExecContext(ctx, string(up)); err != nil {
			return errors.Wrapf(ErrMigration, "executing migration %s: %v", m.Name, err)
		}
	}

	if err = recordMigration(ctx, db, tx, m.Version); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrapf(ErrMigration, "committing migration %s: %v", m.Name, err)
	}
	utils.Debug("%s applied in %v", m.Name, time.Since(startTime))
	return nil
}

func recordMigration(ctx context.Context, db *database.DB, tx *sql.Tx, version string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+TrackingTable+` (version) VALUES (`+db.Placeholder(1)+`)`, version)
	if err != nil {
		return fmt.Errorf("recording migration %s: %v", version, err)
	}
	return nil
}

// hasStatements reports whether script holds anything besides blank lines and
// line comments. Some drivers reject an empty query.
func hasStatements(script string) bool {
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}
