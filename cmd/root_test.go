package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/rhipster/scaffold"
	"github.com/ridoystarlord/rhipster/utils"
)

func TestMain(m *testing.M) {
	utils.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

func execute(args ...string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestRoot_ArgumentCount(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"demo"},
		{"demo", "sqlite://demo.db", "up.sql"},
		{"demo", "sqlite://demo.db", "up.sql", "down.sql", "extra"},
	} {
		err := execute(args...)
		require.Error(t, err, "%v", args)

		var serr *scaffold.Error
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, scaffold.ArgError, serr.Kind)
	}
}

func TestRoot_Generates(t *testing.T) {
	dir := t.TempDir()
	up := filepath.Join(dir, "up.sql")
	down := filepath.Join(dir, "down.sql")
	require.NoError(t, os.WriteFile(up, []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);"), 0644))
	require.NoError(t, os.WriteFile(down, []byte("DROP TABLE notes;"), 0644))
	target := filepath.Join(dir, "notes-service")

	require.NoError(t, execute(target, "sqlite://"+filepath.Join(dir, "notes.db"), up, down))

	main, err := os.ReadFile(filepath.Join(target, "src", "main.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "notes_mod::get_notes,")
	assert.Contains(t, string(main), `"notes-service".to_string()`)
}

func TestRoot_BadConfig(t *testing.T) {
	t.Setenv("RHIPSTER_TIMEOUT", "soon")

	err := execute("demo", "sqlite://demo.db", "up.sql", "down.sql")
	var serr *scaffold.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, scaffold.ArgError, serr.Kind)
	assert.Equal(t, "loading configuration", serr.Step)
}
