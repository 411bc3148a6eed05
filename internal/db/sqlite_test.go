package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, RunMigrations(database))
	return database
}

func countDocuments(t *testing.T, database *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM documents`))
	return n
}

const insertDoc = `INSERT INTO documents (id, owner_id, filename, created_at, updated_at) VALUES (?, 'u1', 'a.pdf', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

func TestRunMigrations_CreatesTables(t *testing.T) {
	database := setupDB(t)

	for _, table := range []string{"documents", "verification_records", "translated_documents", "checkout_sessions"} {
		var name string
		err := database.Get(&name, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	database := setupDB(t)
	require.NoError(t, RunMigrations(database))
}

func TestDocumentsTable_RejectsFileRefOnFailedUpload(t *testing.T) {
	database := setupDB(t)

	_, err := database.Exec(`INSERT INTO documents (id, owner_id, filename, status, file_ref, created_at, updated_at)
		VALUES ('d1', 'u1', 'a.pdf', 'upload_failed', 'u1/a.pdf', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.Error(t, err)
}

func TestNewSQLiteDB_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	database, err := NewSQLiteDB(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	assert.FileExists(t, path)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	database := setupDB(t)

	err := WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(insertDoc, "d1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countDocuments(t, database))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	database := setupDB(t)

	err := WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		_, e := tx.Exec(insertDoc, "d1")
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countDocuments(t, database))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	database := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		assert.Equal(t, 0, countDocuments(t, database))
	}()

	_ = WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		_, e := tx.Exec(insertDoc, "d1")
		require.NoError(t, e)
		panic("kaput")
	})
}
