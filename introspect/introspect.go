package introspect

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/database"
	"github.com/ridoystarlord/rhipster/runner"
)

// ErrIntrospection marks failures while reading the database catalog.
var ErrIntrospection = errors.New("introspection failed")

type ExistingTable struct {
	TableName   string
	Columns     []ExistingColumn
	PrimaryKey  []string
	ForeignKeys []ExistingForeignKey
}

type ExistingColumn struct {
	ColumnName string
	// DataType is the type as the catalog reports it.
	DataType string
	// SQLType is the schema tag DataType maps to, e.g. Nullable<Varchar>
	// without the Nullable wrapper.
	SQLType      string
	IsNullable   bool
	IsPrimaryKey bool
}

type ExistingForeignKey struct {
	ConstraintName   string
	ColumnName       string
	ReferencesTable  string
	ReferencesColumn string
}

// catalog reads one dialect's system tables.
type catalog interface {
	tableNames(ctx context.Context) ([]string, error)
	columns(ctx context.Context, table string) ([]ExistingColumn, error)
	primaryKey(ctx context.Context, table string) ([]string, error)
	foreignKeys(ctx context.Context, table string) ([]ExistingForeignKey, error)
}

func catalogFor(db *database.DB) (catalog, error) {
	switch db.Dialect {
	case database.Postgres:
		return postgresCatalog{db}, nil
	case database.MySQL:
		return mysqlCatalog{db}, nil
	case database.SQLite:
		return sqliteCatalog{db}, nil
	default:
		return nil, errors.Wrap(database.ErrUnknownDialect, string(db.Dialect))
	}
}

// IntrospectDatabase reads every user table, ordered by name. The migration
// tracking table is left out.
func IntrospectDatabase(ctx context.Context, db *database.DB) ([]ExistingTable, error) {
	cat, err := catalogFor(db)
	if err != nil {
		return nil, errors.Wrap(ErrIntrospection, err.Error())
	}

	names, err := cat.tableNames(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrIntrospection, "querying tables: %v", err)
	}
	sort.Strings(names)

	var tables []ExistingTable
	for _, tableName := range names {
		if tableName == runner.TrackingTable {
			continue
		}
		table, err := introspectTable(ctx, cat, tableName)
		if err != nil {
			return nil, errors.Wrap(ErrIntrospection, err.Error())
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func introspectTable(ctx context.Context, cat catalog, tableName string) (ExistingTable, error) {
	columns, err := cat.columns(ctx, tableName)
	if err != nil {
		return ExistingTable{}, fmt.Errorf("getting columns for table %s: %v", tableName, err)
	}

	primaryKey, err := cat.primaryKey(ctx, tableName)
	if err != nil {
		return ExistingTable{}, fmt.Errorf("getting primary key for table %s: %v", tableName, err)
	}

	foreignKeys, err := cat.foreignKeys(ctx, tableName)
	if err != nil {
		return ExistingTable{}, fmt.Errorf("getting foreign keys for table %s: %v", tableName, err)
	}

	inKey := map[string]bool{}
	for _, name := range primaryKey {
		inKey[name] = true
	}
	for i := range columns {
		columns[i].IsPrimaryKey = inKey[columns[i].ColumnName]
	}

	return ExistingTable{
		TableName:   tableName,
		Columns:     columns,
		PrimaryKey:  primaryKey,
		ForeignKeys: foreignKeys,
	}, nil
}

// queryStrings runs query and collects its single string column.
func queryStrings(ctx context.Context, db *database.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
