package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParse_Demo(t *testing.T) {
	s, err := Parse(readFixture(t, "demo.rs"))
	require.NoError(t, err)

	assert.Equal(t, []string{"patients", "practitioners"}, s.TableNames())
	assert.Equal(t, []string{"patients", "practitioners"}, s.CoQuery)
	assert.Empty(t, s.Joinables)

	patients := s.Tables[0]
	assert.Equal(t, []string{"id"}, patients.PrimaryKey)
	require.Len(t, patients.Columns, 4)
	assert.Equal(t, ColumnSchema{Name: "id", Type: SQLType{Name: "Int4"}}, patients.Columns[0])
	assert.Equal(t, "dob", patients.Columns[3].Name)
	assert.Equal(t, "NaiveDate", patients.Columns[3].Type.RustType())
	assert.Equal(t, "patient", patients.Stem())

	assert.Equal(t, []Import{{"chrono", "NaiveDate"}}, s.Imports())
}

func TestParse_ForeignKeysWithDocs(t *testing.T) {
	s, err := Parse(readFixture(t, "foreign_keys_with_docs.rs"))
	require.NoError(t, err)

	assert.Equal(t, []string{"comments", "posts", "users"}, s.TableNames())
	assert.Equal(t, []Joinable{
		{Child: "comments", Parent: "posts", Column: "post_id"},
		{Child: "posts", Parent: "users", Column: "user_id"},
	}, s.Joinables)

	comments, ok := s.Table("comments")
	require.True(t, ok)
	assert.Equal(t, []string{
		"Representation of the `comments` table.",
		"",
		"(Automatically generated by rhipster.)",
	}, comments.Doc)
	assert.Len(t, comments.Columns, 2)
}

func TestParse_WithoutDieselPrefix(t *testing.T) {
	s, err := Parse(`
table! {
    users (id) {
        id -> Integer,
        #[sql_name = "type"]
        type_ -> Nullable<Varchar>,
        tags -> Array<Nullable<Text>>,
    }
}

allow_tables_to_appear_in_same_query!(users);
`)
	require.NoError(t, err)

	users := s.Tables[0]
	require.Len(t, users.Columns, 3)
	kind := users.Columns[1]
	assert.Equal(t, "type_", kind.Name)
	assert.Equal(t, "type", kind.SQLName)
	assert.Equal(t, "type", kind.ColumnName())
	assert.True(t, kind.Nullable)
	assert.Equal(t, "Option<String>", kind.Type.RustType())
	assert.Equal(t, "Vec<Option<String>>", users.Columns[2].Type.RustType())
	assert.Equal(t, "Array<Nullable<Text>>", users.Columns[2].Type.String())
	assert.Equal(t, []string{"users"}, s.CoQuery)
}

func TestParse_CompositePrimaryKey(t *testing.T) {
	s, err := Parse(`diesel::table! {
    memberships (user_id, group_id) {
        user_id -> Int4,
        group_id -> Int4,
    }
}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "group_id"}, s.Tables[0].PrimaryKey)
	assert.True(t, s.Tables[0].IsPrimaryKey("group_id"))
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		input   string
		message string
	}{
		"unknown tag": {
			input:   "diesel::table! {\n    accounts (id) {\n        id -> Int4,\n        balance -> Money,\n    }\n}\n",
			message: "line 4",
		},
		"schema qualifier": {
			input:   "diesel::table! {\n    public.accounts (id) {\n        id -> Int4,\n    }\n}\n",
			message: "schema-qualified",
		},
		"unterminated": {
			input:   "diesel::table! {\n    accounts (id) {\n        id -> Int4,\n",
			message: "unexpected end of input",
		},
		"missing pk column": {
			input:   "diesel::table! {\n    accounts (uid) {\n        id -> Int4,\n    }\n}\n",
			message: "primary key column uid",
		},
		"garbage": {
			input:   "fn main() {}\n",
			message: "line 1",
		},
		"bad unsigned": {
			input:   "diesel::table! {\n    accounts (id) {\n        id -> Unsigned<Text>,\n    }\n}\n",
			message: "Unsigned<Text>",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestParse_UnknownTagNamed(t *testing.T) {
	_, err := Parse("diesel::table! {\n    accounts (id) {\n        id -> Int4,\n        balance -> Money,\n    }\n}\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type Money")
}

func TestSQLType_RustType(t *testing.T) {
	cases := map[string]string{
		"Int2":                       "i16",
		"BigInt":                     "i64",
		"Numeric":                    "BigDecimal",
		"Timestamptz":                "DateTime<Utc>",
		"Bytea":                      "Vec<u8>",
		"Jsonb":                      "serde_json::Value",
		"Unsigned<Integer>":          "u32",
		"Nullable<Unsigned<BigInt>>": "Option<u64>",
		"diesel::sql_types::Uuid":    "Uuid",
	}
	for tag, want := range cases {
		typ, err := parseType(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, typ.RustType(), tag)
	}
}

func TestSchema_Imports(t *testing.T) {
	s := &Schema{Tables: []TableSchema{{
		Name: "events",
		Columns: []ColumnSchema{
			{Name: "at", Type: SQLType{Name: "Timestamptz"}},
			{Name: "day", Type: SQLType{Name: "Nullable", Inner: &SQLType{Name: "Date"}}},
			{Name: "id", Type: SQLType{Name: "Uuid"}},
			{Name: "also", Type: SQLType{Name: "Date"}},
		},
	}}}

	assert.Equal(t, []Import{
		{"chrono", "DateTime"},
		{"chrono", "NaiveDate"},
		{"chrono", "Utc"},
		{"uuid", "Uuid"},
	}, s.Imports())
}

func TestTableSchema_Stem(t *testing.T) {
	assert.Equal(t, "blog_post", TableSchema{Name: "blog_posts"}.Stem())
	assert.Equal(t, "", TableSchema{Name: "person"}.Stem())
	assert.Equal(t, "", TableSchema{Name: "s"}.Stem())
}
