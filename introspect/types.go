package introspect

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// Catalog type names that do not follow the capitalised-name rule.
var postgresRenames = map[string]string{
	"macaddr":  "MacAddr",
	"macaddr8": "MacAddr8",
	"char":     "CChar",
}

// postgresType maps an information_schema udt_name to a schema tag. Array
// udt names carry a leading underscore.
func postgresType(udt string) string {
	if elem, ok := strings.CutPrefix(udt, "_"); ok {
		return "Array<Nullable<" + postgresType(elem) + ">>"
	}
	if tag, ok := postgresRenames[udt]; ok {
		return tag
	}
	return capitalize(udt)
}

var mysqlTypes = map[string]string{
	"tinyint":    "TinyInt",
	"smallint":   "SmallInt",
	"mediumint":  "Integer",
	"int":        "Integer",
	"integer":    "Integer",
	"bigint":     "BigInt",
	"float":      "Float",
	"double":     "Double",
	"real":       "Double",
	"decimal":    "Numeric",
	"numeric":    "Numeric",
	"varchar":    "Varchar",
	"char":       "Char",
	"tinytext":   "Text",
	"text":       "Text",
	"mediumtext": "Text",
	"longtext":   "Text",
	"tinyblob":   "Blob",
	"blob":       "Blob",
	"mediumblob": "Blob",
	"longblob":   "Blob",
	"binary":     "Binary",
	"varbinary":  "Binary",
	"date":       "Date",
	"time":       "Time",
	"datetime":   "Datetime",
	"timestamp":  "Timestamp",
	"json":       "Json",
}

// mysqlType maps data_type to a schema tag. columnType is the full column
// definition, e.g. "int(10) unsigned", used for tinyint(1) and unsigned.
func mysqlType(dataType, columnType string) string {
	dataType = strings.ToLower(dataType)
	columnType = strings.ToLower(columnType)

	if strings.HasPrefix(columnType, "tinyint(1)") {
		return "Bool"
	}

	tag, ok := mysqlTypes[dataType]
	if !ok {
		return pascal(dataType)
	}
	if strings.Contains(columnType, "unsigned") {
		return "Unsigned<" + tag + ">"
	}
	return tag
}

// sqliteType applies SQLite's type affinity rules to a declared column type.
func sqliteType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch {
	case t == "bool" || t == "boolean":
		return "Bool"
	case t == "bigint" || t == "int8":
		return "BigInt"
	case t == "smallint" || t == "int2":
		return "SmallInt"
	case strings.Contains(t, "int"):
		return "Integer"
	case strings.Contains(t, "char") || strings.Contains(t, "clob") || strings.Contains(t, "text"):
		return "Text"
	case t == "" || strings.Contains(t, "blob"):
		return "Binary"
	case strings.Contains(t, "double") || strings.Contains(t, "real"):
		return "Double"
	case strings.Contains(t, "float"):
		return "Float"
	case t == "numeric" || t == "decimal":
		return "Double"
	case t == "date":
		return "Date"
	case t == "timestamp" || t == "datetime":
		return "Timestamp"
	case t == "time":
		return "Time"
	default:
		return pascal(t)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pascal turns an unknown catalog type such as "double precision" into a
// single tag so the schema parser can reject it by name.
func pascal(s string) string {
	return inflect.Camelize(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}
