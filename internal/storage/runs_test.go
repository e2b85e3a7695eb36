package storage_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/service"
	"github.com/Veraticus/the-cart-must-flow/internal/storage"
	"github.com/Veraticus/the-cart-must-flow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGetRun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	run := testutil.SampleRun()
	require.NoError(t, db.Storage.SaveRun(ctx, &run, testutil.SampleItemsets(), testutil.SampleRules()))
	require.Positive(t, run.ID)
	assert.Equal(t, 4, run.ItemsetCount)
	assert.Equal(t, 2, run.RuleCount)

	got, err := db.Storage.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Source, got.Source)
	assert.Equal(t, "France", got.Country)
	assert.Equal(t, "StockCode", got.KeyColumn)
	assert.InDelta(t, 0.01, got.MinSupport, 1e-12)
	assert.Equal(t, 5, got.Transactions)
	assert.Equal(t, 4, got.ItemsetCount)
	assert.Equal(t, 2, got.RuleCount)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
}

func TestGetItemsetsAndRulesRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	id := db.SeedRun(testutil.SampleRun())

	itemsets, err := db.Storage.GetItemsets(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleItemsets(), itemsets)

	rules, err := db.Storage.GetRules(ctx, id)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	want := testutil.SampleRules()
	assert.Equal(t, want[0], rules[0])
	assert.Equal(t, []string{"21080"}, rules[1].Antecedents)
	assert.True(t, math.IsInf(rules[1].Conviction, 1), "infinite conviction survives storage")
}

func TestSaveRunDefaultsCreatedAt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	run := testutil.SampleRun()
	run.CreatedAt = time.Time{}

	require.NoError(t, db.Storage.SaveRun(context.Background(), &run, nil, nil))
	assert.False(t, run.CreatedAt.IsZero())
	assert.Zero(t, run.RuleCount)
}

func TestSaveRunValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*model.MiningRun)
		rules   []model.Rule
		wantErr error
	}{
		{"missing source", func(r *model.MiningRun) { r.Source = "" }, nil, storage.ErrInvalidRun},
		{"missing metric", func(r *model.MiningRun) { r.Metric = "" }, nil, storage.ErrInvalidRun},
		{"bad support", func(r *model.MiningRun) { r.MinSupport = 0 }, nil, storage.ErrInvalidRun},
		{"empty rule side", func(*model.MiningRun) {}, []model.Rule{{Antecedents: []string{"a"}}}, storage.ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := testutil.SampleRun()
			tt.mutate(&run)
			err := db.Storage.SaveRun(ctx, &run, nil, tt.rules)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	require.ErrorIs(t, db.Storage.SaveRun(ctx, nil, nil, nil), storage.ErrNilParameter)

	runs, err := db.Storage.ListRuns(ctx, service.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestListRunsAndLatest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	first := testutil.SampleRun()
	firstID := db.SeedRun(first)

	second := testutil.SampleRun()
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	second.Country = "Germany"
	secondID := db.SeedRun(second)

	latest, err := db.Storage.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, secondID, latest.ID)

	runs, err := db.Storage.ListRuns(ctx, service.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, secondID, runs[0].ID)
	assert.Equal(t, firstID, runs[1].ID)

	runs, err = db.Storage.ListRuns(ctx, service.RunFilter{Country: "France"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, firstID, runs[0].ID)

	runs, err = db.Storage.ListRuns(ctx, service.RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestDeleteRunCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	id := db.SeedRun(testutil.SampleRun())

	require.NoError(t, db.Storage.DeleteRun(ctx, id))

	_, err := db.Storage.GetRun(ctx, id)
	require.ErrorIs(t, err, common.ErrNotFound)

	rules, err := db.Storage.GetRules(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rules)

	require.ErrorIs(t, db.Storage.DeleteRun(ctx, id), common.ErrNotFound)
}

func TestRunLookupErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := db.Storage.GetLatestRun(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = db.Storage.GetRun(ctx, 0)
	require.ErrorIs(t, err, storage.ErrInvalidID)

	//nolint:staticcheck
	_, err = db.Storage.GetRules(nil, 1)
	require.ErrorIs(t, err, storage.ErrNilContext)
}
