package templates

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/rhipster/database"
)

var tokenPattern = regexp.MustCompile(`##[A-Z_]+##`)

func TestFor_UnknownDialect(t *testing.T) {
	_, err := For(database.Dialect("oracle"))
	assert.True(t, errors.Is(err, database.ErrUnknownDialect))
}

func TestFiles(t *testing.T) {
	store, err := For(database.Postgres)
	require.NoError(t, err)

	main, err := store.Files(Main)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "Cargo.toml", "Rocket.toml", "diesel.toml", "src/main.rs"}, main)

	migrations, err := store.Files(Migrations)
	require.NoError(t, err)
	assert.Contains(t, migrations, "00000000000001_init_tables/up.sql")
	assert.Contains(t, migrations, "00000000000001_init_tables/down.sql")
	assert.Contains(t, migrations, "00000000000000_diesel_initial_setup/up.sql")
}

func TestCargoEnablesUuidRouteParams(t *testing.T) {
	for _, dialect := range []database.Dialect{database.Postgres, database.MySQL, database.SQLite} {
		store, err := For(dialect)
		require.NoError(t, err)
		assert.Equal(t, dialect, store.Dialect())

		cargo, err := store.ReadFile(Main, "Cargo.toml")
		require.NoError(t, err)
		assert.Contains(t, string(cargo), `rocket = { version = "0.5", features = ["json", "uuid"] }`, dialect)
	}
}

func TestTemplatesUseOnlyKnownTokens(t *testing.T) {
	known := map[string]bool{"##DATABASE##": true, "##NAME##": true, "##ROUTES##": true, "##MODELS##": true}

	for _, dialect := range []database.Dialect{database.Postgres, database.MySQL, database.SQLite} {
		store, err := For(dialect)
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, a := range []Archive{Main, Migrations} {
			files, err := store.Files(a)
			require.NoError(t, err)
			for _, name := range files {
				data, err := store.ReadFile(a, name)
				require.NoError(t, err)
				for _, tok := range tokenPattern.FindAllString(string(data), -1) {
					assert.True(t, known[tok], "%s: %s/%s uses unknown token %s", dialect, a, name, tok)
					seen[tok] = true
				}
			}
		}
		assert.Len(t, seen, len(known), "%s templates should use every token", dialect)
	}
}

func TestExtract(t *testing.T) {
	store, err := For(database.SQLite)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, store.Extract(Main, dir))
	require.NoError(t, store.Extract(Migrations, filepath.Join(dir, "migrations")))

	for _, p := range []string{
		"Cargo.toml",
		".gitignore",
		"src/main.rs",
		"migrations/00000000000001_init_tables/up.sql",
	} {
		assert.FileExists(t, filepath.Join(dir, p))
	}

	want, err := store.ReadFile(Main, "src/main.rs")
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "src", "main.rs"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExtract_Conflict(t *testing.T) {
	store, err := For(database.SQLite)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\n"), 0644))

	err = store.Extract(Main, dir)
	assert.True(t, errors.Is(err, ErrConflict))

	data, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	require.NoError(t, err)
	assert.Equal(t, "[package]\n", string(data))
}
