package introspect

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/rhipster/database"
)

type postgresCatalog struct{ db *database.DB }

func (c postgresCatalog) tableNames(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, c.db, `
	SELECT table_name::text
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	ORDER BY table_name;
	`)
}

func (c postgresCatalog) columns(ctx context.Context, tableName string) ([]ExistingColumn, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT
		c.column_name::text,
		c.udt_name::text,
		(c.is_nullable = 'YES') AS is_nullable
	FROM information_schema.columns c
	WHERE c.table_schema = 'public' AND c.table_name = $1
	ORDER BY c.ordinal_position;
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var col ExistingColumn
		if err := rows.Scan(&col.ColumnName, &col.DataType, &col.IsNullable); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}
		col.SQLType = postgresType(col.DataType)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c postgresCatalog) primaryKey(ctx context.Context, tableName string) ([]string, error) {
	return queryStrings(ctx, c.db, `
	SELECT kcu.column_name::text
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
		AND tc.table_name = kcu.table_name
	WHERE tc.constraint_type = 'PRIMARY KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1
	ORDER BY kcu.ordinal_position;
	`, tableName)
}

func (c postgresCatalog) foreignKeys(ctx context.Context, tableName string) ([]ExistingForeignKey, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT
		tc.constraint_name::text,
		kcu.column_name::text,
		ccu.table_name::text AS foreign_table_name,
		ccu.column_name::text AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1
	ORDER BY tc.constraint_name, kcu.ordinal_position;
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %v", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var fk ExistingForeignKey
		if err := rows.Scan(
			&fk.ConstraintName,
			&fk.ColumnName,
			&fk.ReferencesTable,
			&fk.ReferencesColumn,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %v", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}
	return foreignKeys, rows.Err()
}
