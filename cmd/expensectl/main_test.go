package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "expensetracker.db")

	out, err := run(t, "migrate", "status", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no migrations applied")

	_, err = run(t, "migrate", "up", "--db", dbPath)
	require.NoError(t, err)

	out, err = run(t, "migrate", "status", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "version 1")

	_, err = run(t, "migrate", "down", "--db", dbPath, "--steps", "1")
	require.NoError(t, err)

	out, err = run(t, "migrate", "status", "--db", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "version 1\n")
}

func TestSeedAndListUsers(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "expensetracker.db"))
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("AMQP_URL", "")

	_, err := run(t, "seed")
	require.NoError(t, err)
	_, err = run(t, "seed")
	require.NoError(t, err, "seeding twice is a no-op")

	out, err := run(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "ADMIN")

	_, err = run(t, "rollover")
	assert.NoError(t, err)
}

func TestOperatorCommandsRejectMemoryBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	_, err := run(t, "users", "list")
	assert.ErrorContains(t, err, "expensectl requires DATA_BACKEND=sqlite")
}
