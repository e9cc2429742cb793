package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "schema.sqlite") + "?_foreign_keys=on"

	db, err := Open(SQLite, dsn)
	require.NoError(t, err)

	var tables []string
	require.NoError(t, db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"))
	assert.Subset(t, tables, []string{"checkin_config", "daily_checkins", "daily_questions", "push_subscriptions"})
	require.NoError(t, db.Close())

	// reopening an up to date database is a no-op
	db, err = Open(SQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "root@/together")
	assert.ErrorContains(t, err, "unsupported database driver")
}
