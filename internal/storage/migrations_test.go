package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/the-cart-must-flow/internal/storage"
	"github.com/Veraticus/the-cart-must-flow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Storage.Migrate(ctx))

	version, err := db.Storage.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ExpectedSchemaVersion, version)
}

func TestMigrateFromEmpty(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{SkipMigrations: true})
	ctx := context.Background()

	version, err := db.Storage.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, db.Storage.Migrate(ctx))
	id := db.SeedRun(testutil.SampleRun())
	assert.Positive(t, id)
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart.db")
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.SaveProducts(ctx, testutil.SampleCatalog()))
	require.NoError(t, store.Close())

	store, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, path, store.Path())
	desc, err := store.GetProduct(ctx, "21080")
	require.NoError(t, err)
	assert.Equal(t, "SET/20 RED RETROSPOT PAPER NAPKINS", desc)

	_, err = storage.NewSQLiteStorage("")
	require.ErrorIs(t, err, storage.ErrEmptyString)
}
