package generator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/rhipster/schema"
	"github.com/ridoystarlord/rhipster/sourcegen"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestStem(t *testing.T) {
	s, err := NewStem("blog_post")
	require.NoError(t, err)

	assert.Equal(t, "BlogPost", s.Pascal())
	assert.Equal(t, "NewBlogPost", s.Insertable())
	assert.Equal(t, "blog_posts", s.Plural())
	assert.Equal(t, "blog_posts_mod", s.Module())
	assert.Equal(t, []string{"get_blog_posts", "get_blog_post", "post_blog_post", "delete_blog_post"}, s.Handlers())
	assert.Equal(t, "blog_posts_mod::delete_blog_post", s.Routes()[3])
	assert.Equal(t, "/blog_posts/<id>", s.ItemPath())

	_, err = NewStem("BlogPost")
	assert.Error(t, err)
	_, err = NewStem("type")
	assert.Error(t, err)
}

func TestStem_RoundTrip(t *testing.T) {
	for _, table := range []string{"patients", "practitioners", "blog_posts", "a1s"} {
		stem, err := StemOf(schema.TableSchema{Name: table})
		require.NoError(t, err, table)
		assert.Equal(t, table, stem.Plural())
	}

	_, err := StemOf(schema.TableSchema{Name: "person"})
	assert.Error(t, err)

	for _, name := range []string{"s", "types", "Patients"} {
		_, err := StemOfPlural(name)
		assert.Error(t, err, name)
	}
}

func TestParseModels_Demo(t *testing.T) {
	text := readFixture(t, "demo_schema.rs")

	queryable, names, err := ParseModels(text, "model", true, QueryableDerives)
	require.NoError(t, err)
	assert.Equal(t, []string{"patients", "practitioners"}, names)
	assert.Equal(t, "/// Queryable model for the `patients` table.\n"+
		"#[derive(Queryable, Serialize)]\n"+
		"pub struct Patient {\n"+
		"    pub id: i32,\n"+
		"    pub first: String,\n"+
		"    pub last: String,\n"+
		"    pub dob: NaiveDate,\n"+
		"}\n\n"+
		"/// Queryable model for the `practitioners` table.\n"+
		"#[derive(Queryable, Serialize)]\n"+
		"pub struct Practitioner {\n"+
		"    pub id: i32,\n"+
		"    pub first: String,\n"+
		"    pub last: String,\n"+
		"}\n\n", queryable)

	insertable, _, err := ParseModels(text, "model", false, InsertableDerives)
	require.NoError(t, err)
	assert.Equal(t, "/// Insertable model for the `patients` table.\n"+
		"#[derive(Insertable, Deserialize)]\n"+
		"#[diesel(table_name = patients)]\n"+
		"pub struct NewPatient {\n"+
		"    pub first: String,\n"+
		"    pub last: String,\n"+
		"    pub dob: NaiveDate,\n"+
		"}\n\n"+
		"/// Insertable model for the `practitioners` table.\n"+
		"#[derive(Insertable, Deserialize)]\n"+
		"#[diesel(table_name = practitioners)]\n"+
		"pub struct NewPractitioner {\n"+
		"    pub first: String,\n"+
		"    pub last: String,\n"+
		"}\n\n", insertable)
}

func TestParseModels_FieldsFollowColumns(t *testing.T) {
	text := `diesel::table! {
    events (code) {
        happened_at -> Timestamptz,
        code -> Varchar,
        #[sql_name = "type"]
        type_ -> Nullable<Text>,
        attendees -> Nullable<Int8>,
    }
}
`
	s, err := schema.Parse(text)
	require.NoError(t, err)

	out, err := EmitModels(s, "model", false, InsertableDerives)
	require.NoError(t, err)
	assert.Equal(t, "/// Insertable model for the `events` table.\n"+
		"#[derive(Insertable, Deserialize)]\n"+
		"#[diesel(table_name = events)]\n"+
		"pub struct NewEvent {\n"+
		"    pub happened_at: DateTime<Utc>,\n"+
		"    #[serde(rename = \"type\")]\n"+
		"    pub type_: Option<String>,\n"+
		"    pub attendees: Option<i64>,\n"+
		"}\n\n", out)

	assert.Equal(t, "use chrono::{DateTime, Utc};\n", Imports(s))
}

func TestParseModels_Errors(t *testing.T) {
	text := readFixture(t, "demo_schema.rs")

	_, _, err := ParseModels(text, "", true, QueryableDerives)
	assert.Error(t, err)

	_, _, err = ParseModels("diesel::table! {\n    people (id) {\n        id -> Int4,\n    }\n}\n", "model", true, QueryableDerives)
	assert.Error(t, err)

	_, _, err = ParseModels("diesel::table! {\n    accounts (id) {\n        id -> Money,\n    }\n}\n", "model", true, QueryableDerives)
	assert.ErrorIs(t, err, schema.ErrParse)
}

func TestImports(t *testing.T) {
	s, err := schema.Parse(readFixture(t, "demo_schema.rs"))
	require.NoError(t, err)
	assert.Equal(t, "use chrono::NaiveDate;\n", Imports(s))

	assert.Equal(t, "", Imports(&schema.Schema{}))
}

func TestCrudGenerator(t *testing.T) {
	s, err := schema.Parse(readFixture(t, "demo_schema.rs"))
	require.NoError(t, err)

	g := &CrudGenerator{Schema: s}
	out, err := g.GenerateMod(map[string]string{"generator": CrudGeneratorName, "model": "patient"}, sourcegen.Module{Name: "patients_mod"})
	require.NoError(t, err)
	assert.Equal(t, readFixture(t, "patients_mod.rs"), out)
}

func TestCrudGenerator_IDType(t *testing.T) {
	s, err := schema.Parse(`diesel::table! {
    tokens (id) {
        id -> Uuid,
        value -> Text,
    }
}

diesel::table! {
    memberships (user_id, group_id) {
        user_id -> Int4,
        group_id -> Int4,
    }
}
`)
	require.NoError(t, err)
	g := &CrudGenerator{Schema: s}

	out, err := g.GenerateMod(map[string]string{"model": "token"}, sourcegen.Module{})
	require.NoError(t, err)
	assert.Contains(t, out, "pub(crate) async fn get_token(db: Database, id: Uuid)")
	assert.Contains(t, out, "pub(crate) async fn delete_token(db: Database, id: Uuid)")

	_, err = g.GenerateMod(map[string]string{"model": "membership"}, sourcegen.Module{})
	assert.ErrorContains(t, err, "composite primary key")

	_, err = g.GenerateMod(map[string]string{"model": "ghost"}, sourcegen.Module{})
	assert.Error(t, err)

	_, err = g.GenerateMod(map[string]string{}, sourcegen.Module{})
	assert.Error(t, err)
}

func TestCrudGenerator_WithoutSchema(t *testing.T) {
	out, err := (&CrudGenerator{}).GenerateMod(map[string]string{"model": "blog_post"}, sourcegen.Module{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mod blog_posts_mod {\n"))
	assert.Contains(t, out, "id: i32")
	assert.Contains(t, out, "Json<NewBlogPost>")
}

func TestCrudGenerator_ThroughDriver(t *testing.T) {
	s, err := schema.Parse(readFixture(t, "demo_schema.rs"))
	require.NoError(t, err)
	stem := Stem("patient")

	d := &sourcegen.Driver{Generators: map[string]sourcegen.Generator{CrudGeneratorName: &CrudGenerator{Schema: s}}}
	out, err := d.Expand("\n" + Skeleton(stem) + "\n")
	require.NoError(t, err)

	assert.Contains(t, out, "use schema::patients;\n#[sourcegen::sourcegen(generator = \"crud_generator\", model = \"patient\")]\n"+sourcegen.Marker+"\nmod patients_mod {\n")
	for _, h := range stem.Handlers() {
		assert.Contains(t, out, "async fn "+h+"(")
	}

	again, err := d.Expand(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}
