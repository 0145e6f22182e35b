// Package schema models a Diesel table! schema description and parses it
// from text.
package schema

import "strings"

// SQLType is a schema tag such as Int4 or Nullable<Array<Text>>. Wrapper tags
// carry their argument in Inner.
type SQLType struct {
	Name  string
	Inner *SQLType
}

func (t SQLType) String() string {
	if t.Inner == nil {
		return t.Name
	}
	return t.Name + "<" + t.Inner.String() + ">"
}

// ColumnSchema is one column of a table! block.
type ColumnSchema struct {
	// Name is the Rust field name.
	Name string
	// SQLName is the database column name when it differs from Name.
	SQLName  string
	Type     SQLType
	Nullable bool
}

// ColumnName returns the name the database knows the column by.
func (c ColumnSchema) ColumnName() string {
	if c.SQLName != "" {
		return c.SQLName
	}
	return c.Name
}

type TableSchema struct {
	Name       string
	Columns    []ColumnSchema
	PrimaryKey []string
	Doc        []string
}

// Column looks up a column by field name.
func (t TableSchema) Column(name string) (ColumnSchema, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSchema{}, false
}

func (t TableSchema) IsPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// Stem is the lexical singular of the table name: the name without its
// trailing "s". It is empty when the name does not end in "s".
func (t TableSchema) Stem() string {
	stem, ok := strings.CutSuffix(t.Name, "s")
	if !ok {
		return ""
	}
	return stem
}

// Joinable is a joinable!(child -> parent (column)) declaration.
type Joinable struct {
	Child  string
	Parent string
	Column string
}

type Schema struct {
	Tables    []TableSchema
	Joinables []Joinable
	CoQuery   []string
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*TableSchema, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// TableNames lists table names in declaration order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

var rustKeywords = map[string]bool{
	"abstract": true, "as": true, "async": true, "await": true, "become": true,
	"box": true, "break": true, "const": true, "continue": true, "crate": true,
	"do": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"false": true, "final": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "macro": true,
	"match": true, "mod": true, "move": true, "mut": true, "override": true,
	"priv": true, "pub": true, "ref": true, "return": true, "self": true,
	"Self": true, "static": true, "struct": true, "super": true, "trait": true,
	"true": true, "try": true, "type": true, "typeof": true, "unsafe": true,
	"unsized": true, "use": true, "virtual": true, "where": true, "while": true,
	"yield": true,
}

// IsRustKeyword reports whether name cannot be used as a plain identifier in
// generated code.
func IsRustKeyword(name string) bool {
	return rustKeywords[name]
}
