package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *ConektDB {
	t.Helper()

	d, err := Open(filepath.Join(t.TempDir(), "db", "conekt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.EnsureSchema(context.Background()))
	return d
}

func countRows(t *testing.T, d *ConektDB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, d.SQL.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestEnsureSchemaTwice(t *testing.T) {
	d := openTestDB(t)
	assert.NoError(t, d.EnsureSchema(context.Background()))
	assert.Zero(t, countRows(t, d, "species"))
}

func TestBatchCommitsEveryN(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	b := d.NewBatch(2)
	for i, code := range []string{"ath", "osa", "zma"} {
		res, err := b.Exec(ctx, "INSERT INTO species (code, name) VALUES (?, ?)", code, code)
		require.NoError(t, err)

		id, err := res.LastInsertId()
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	assert.Equal(t, 2, b.Committed())
	require.NoError(t, b.Flush())
	assert.Equal(t, 3, b.Committed())
	assert.Equal(t, 3, countRows(t, d, "species"))

	// nothing pending
	assert.NoError(t, b.Flush())
}

func TestBatchError(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	b := d.NewBatch(10)
	_, err := b.Exec(ctx, "INSERT INTO species (code) VALUES (?)", "ath")
	require.NoError(t, err)

	// duplicate code violates the unique constraint
	_, err = b.Exec(ctx, "INSERT INTO species (code) VALUES (?)", "ath")
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Row)
	assert.Zero(t, batchErr.Committed)

	// the uncommitted first row is rolled back as well
	assert.Zero(t, countRows(t, d, "species"))
}

func TestBatchRollback(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	b := d.NewBatch(10)
	_, err := b.Exec(ctx, "INSERT INTO species (code) VALUES (?)", "ath")
	require.NoError(t, err)

	b.Rollback()
	assert.Zero(t, countRows(t, d, "species"))
	assert.NoError(t, b.Flush())
}
