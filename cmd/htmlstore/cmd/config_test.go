package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjamar/htmls-to-datasette/internal/config"
)

func TestConfigInit_CreatesTemplate(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+config.ConfigFileName)

	// The written template parses as valid configuration.
	cfg, err := config.Load(".")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDatabase, cfg.Database)
}

func TestConfigInit_RefusesToOverwrite(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(config.ConfigFileName, []byte("database: mine.db\n"), 0o644))

	_, err := execute(t, "config", "init")
	assert.Error(t, err)
}

func TestConfigShow_ReflectsFileAndFlags(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(config.ConfigFileName, []byte("database: mine.db\nworkers: 3\n"), 0o644))

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "database: mine.db")
	assert.Contains(t, out, "workers: 3")

	// Flags override the file.
	out, err = execute(t, "config", "show", "-d", "flagged.db")
	require.NoError(t, err)
	assert.Contains(t, out, "database: flagged.db")
}
