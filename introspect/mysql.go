package introspect

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/rhipster/database"
)

type mysqlCatalog struct{ db *database.DB }

func (c mysqlCatalog) tableNames(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, c.db, `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
	ORDER BY table_name`)
}

func (c mysqlCatalog) columns(ctx context.Context, tableName string) ([]ExistingColumn, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT column_name, data_type, column_type, is_nullable = 'YES'
	FROM information_schema.columns
	WHERE table_schema = DATABASE() AND table_name = ?
	ORDER BY ordinal_position`, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var col ExistingColumn
		var columnType string
		if err := rows.Scan(&col.ColumnName, &col.DataType, &columnType, &col.IsNullable); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}
		col.SQLType = mysqlType(col.DataType, columnType)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c mysqlCatalog) primaryKey(ctx context.Context, tableName string) ([]string, error) {
	return queryStrings(ctx, c.db, `
	SELECT column_name
	FROM information_schema.key_column_usage
	WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
	ORDER BY ordinal_position`, tableName)
}

func (c mysqlCatalog) foreignKeys(ctx context.Context, tableName string) ([]ExistingForeignKey, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
	FROM information_schema.key_column_usage
	WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL
	ORDER BY constraint_name, ordinal_position`, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %v", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var fk ExistingForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.ColumnName, &fk.ReferencesTable, &fk.ReferencesColumn); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %v", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}
	return foreignKeys, rows.Err()
}
