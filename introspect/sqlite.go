package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridoystarlord/rhipster/database"
)

type sqliteCatalog struct{ db *database.DB }

func (c sqliteCatalog) tableNames(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, c.db, `
	SELECT name
	FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name`)
}

func (c sqliteCatalog) columns(ctx context.Context, tableName string) ([]ExistingColumn, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, type, "notnull" FROM pragma_table_info(?) ORDER BY cid`, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var col ExistingColumn
		var notNull int
		if err := rows.Scan(&col.ColumnName, &col.DataType, &notNull); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}
		col.IsNullable = notNull == 0
		col.SQLType = sqliteType(col.DataType)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c sqliteCatalog) primaryKey(ctx context.Context, tableName string) ([]string, error) {
	return queryStrings(ctx, c.db,
		`SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, tableName)
}

func (c sqliteCatalog) foreignKeys(ctx context.Context, tableName string) ([]ExistingForeignKey, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, "from", "table", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %v", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var id int
		var to sql.NullString
		var fk ExistingForeignKey
		if err := rows.Scan(&id, &fk.ColumnName, &fk.ReferencesTable, &to); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %v", err)
		}
		// SQLite names no constraint and leaves "to" empty when the
		// reference targets the parent's primary key implicitly.
		fk.ConstraintName = fmt.Sprintf("%s_fk_%d", tableName, id)
		fk.ReferencesColumn = to.String
		foreignKeys = append(foreignKeys, fk)
	}
	return foreignKeys, rows.Err()
}
