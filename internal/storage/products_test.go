package storage_test

import (
	"context"
	"testing"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/storage"
	"github.com/Veraticus/the-cart-must-flow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{Catalog: testutil.SampleCatalog()})
	ctx := context.Background()

	desc, err := db.Storage.GetProduct(ctx, "21086")
	require.NoError(t, err)
	assert.Equal(t, "SET/6 RED SPOTTY PAPER CUPS", desc)

	require.NoError(t, db.Storage.SaveProducts(ctx, model.Catalog{"21086": "RED CUPS"}))
	desc, err = db.Storage.GetProduct(ctx, "21086")
	require.NoError(t, err)
	assert.Equal(t, "RED CUPS", desc)

	catalog, err := db.Storage.GetCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 3)

	_, err = db.Storage.GetProduct(ctx, "99999")
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = db.Storage.GetProduct(ctx, " ")
	require.ErrorIs(t, err, storage.ErrEmptyString)

	require.ErrorIs(t, db.Storage.SaveProducts(ctx, nil), storage.ErrNilParameter)
	require.ErrorIs(t, db.Storage.SaveProducts(ctx, model.Catalog{}), storage.ErrEmptySlice)
}
