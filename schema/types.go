package schema

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Import is one item a generated field type needs in scope.
type Import struct {
	Crate string
	Item  string
}

type leafType struct {
	rust    string
	imports []Import
}

var (
	chronoNaiveDate     = Import{"chrono", "NaiveDate"}
	chronoNaiveTime     = Import{"chrono", "NaiveTime"}
	chronoNaiveDateTime = Import{"chrono", "NaiveDateTime"}
	chronoDateTime      = Import{"chrono", "DateTime"}
	chronoUtc           = Import{"chrono", "Utc"}
	bigDecimal          = Import{"bigdecimal", "BigDecimal"}
	uuidUUID            = Import{"uuid", "Uuid"}
)

var leafTypes = map[string]leafType{
	"SmallInt":    {rust: "i16"},
	"Smallint":    {rust: "i16"},
	"Int2":        {rust: "i16"},
	"Integer":     {rust: "i32"},
	"Int4":        {rust: "i32"},
	"BigInt":      {rust: "i64"},
	"Bigint":      {rust: "i64"},
	"Int8":        {rust: "i64"},
	"TinyInt":     {rust: "i8"},
	"Tinyint":     {rust: "i8"},
	"Float":       {rust: "f32"},
	"Float4":      {rust: "f32"},
	"Double":      {rust: "f64"},
	"Float8":      {rust: "f64"},
	"Numeric":     {rust: "BigDecimal", imports: []Import{bigDecimal}},
	"Decimal":     {rust: "BigDecimal", imports: []Import{bigDecimal}},
	"Bool":        {rust: "bool"},
	"Text":        {rust: "String"},
	"Varchar":     {rust: "String"},
	"Bpchar":      {rust: "String"},
	"Char":        {rust: "String"},
	"Citext":      {rust: "String"},
	"Date":        {rust: "NaiveDate", imports: []Import{chronoNaiveDate}},
	"Time":        {rust: "NaiveTime", imports: []Import{chronoNaiveTime}},
	"Timestamp":   {rust: "NaiveDateTime", imports: []Import{chronoNaiveDateTime}},
	"Datetime":    {rust: "NaiveDateTime", imports: []Import{chronoNaiveDateTime}},
	"Timestamptz": {rust: "DateTime<Utc>", imports: []Import{chronoDateTime, chronoUtc}},
	"Uuid":        {rust: "Uuid", imports: []Import{uuidUUID}},
	"Bytea":       {rust: "Vec<u8>"},
	"Binary":      {rust: "Vec<u8>"},
	"Blob":        {rust: "Vec<u8>"},
	"Json":        {rust: "serde_json::Value"},
	"Jsonb":       {rust: "serde_json::Value"},
}

var unsignedTypes = map[string]string{
	"TinyInt":  "u8",
	"Tinyint":  "u8",
	"SmallInt": "u16",
	"Smallint": "u16",
	"Integer":  "u32",
	"BigInt":   "u64",
	"Bigint":   "u64",
}

const (
	nullableTag = "Nullable"
	arrayTag    = "Array"
	unsignedTag = "Unsigned"
)

// parseType reads a tag expression. Path qualifiers such as
// diesel::sql_types:: are dropped.
func parseType(expr string) (SQLType, error) {
	expr = strings.TrimSpace(expr)
	name, rest, wrapped := strings.Cut(expr, "<")
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if name == "" {
		return SQLType{}, errors.Errorf("empty type in %q", expr)
	}

	if !wrapped {
		if _, ok := leafTypes[name]; !ok {
			return SQLType{}, errors.Errorf("unknown type %s", name)
		}
		return SQLType{Name: name}, nil
	}

	if !strings.HasSuffix(rest, ">") {
		return SQLType{}, errors.Errorf("unbalanced type %q", expr)
	}
	switch name {
	case nullableTag, arrayTag, unsignedTag:
	default:
		return SQLType{}, errors.Errorf("unknown type %s", name)
	}

	inner, err := parseType(strings.TrimSuffix(rest, ">"))
	if err != nil {
		return SQLType{}, err
	}
	if name == unsignedTag {
		if _, ok := unsignedTypes[inner.Name]; !ok {
			return SQLType{}, errors.Errorf("unknown type Unsigned<%s>", inner)
		}
	}
	return SQLType{Name: name, Inner: &inner}, nil
}

// RustType renders the field type the tag maps to.
func (t SQLType) RustType() string {
	switch t.Name {
	case nullableTag:
		return "Option<" + t.Inner.RustType() + ">"
	case arrayTag:
		return "Vec<" + t.Inner.RustType() + ">"
	case unsignedTag:
		return unsignedTypes[t.Inner.Name]
	}
	return leafTypes[t.Name].rust
}

// Imports lists the items RustType needs in scope.
func (t SQLType) Imports() []Import {
	if t.Inner != nil {
		if t.Name == unsignedTag {
			return nil
		}
		return t.Inner.Imports()
	}
	return leafTypes[t.Name].imports
}

// Imports collects the imports every column in the schema needs, sorted by
// crate and item with duplicates removed.
func (s *Schema) Imports() []Import {
	seen := map[Import]bool{}
	var out []Import
	for _, t := range s.Tables {
		for _, c := range t.Columns {
			for _, imp := range c.Type.Imports() {
				if !seen[imp] {
					seen[imp] = true
					out = append(out, imp)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Crate != out[j].Crate {
			return out[i].Crate < out[j].Crate
		}
		return out[i].Item < out[j].Item
	})
	return out
}
