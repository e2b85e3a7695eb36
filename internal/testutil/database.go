// Package testutil provides shared fixtures for tests that need a database or a mined run.
package testutil

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Catalog        model.Catalog
	SkipMigrations bool
}

// SetupTestDB creates a new migrated in-memory database that is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if len(opts.Catalog) > 0 {
		if err := store.SaveProducts(ctx, opts.Catalog); err != nil {
			t.Fatalf("failed to seed products: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// SeedRun saves run with the sample itemsets and rules and returns its id.
func (db *TestDB) SeedRun(run model.MiningRun) int64 {
	db.t.Helper()
	if err := db.Storage.SaveRun(context.Background(), &run, SampleItemsets(), SampleRules()); err != nil {
		db.t.Fatalf("failed to seed run: %v", err)
	}
	return run.ID
}

// SampleRun returns a valid run description for the France stock code workflow.
func SampleRun() model.MiningRun {
	return model.MiningRun{
		CreatedAt:    time.Date(2011, 12, 9, 12, 0, 0, 0, time.UTC),
		Source:       "online_retail_II.csv",
		Country:      "France",
		KeyColumn:    "StockCode",
		Metric:       "support",
		MinSupport:   0.01,
		MinThreshold: 0.01,
		Transactions: 5,
		Items:        3,
	}
}

// SampleCatalog describes the stock codes used by the sample rules.
func SampleCatalog() model.Catalog {
	return model.Catalog{
		"21086": "SET/6 RED SPOTTY PAPER CUPS",
		"21094": "SET/6 RED SPOTTY PAPER PLATES",
		"21080": "SET/20 RED RETROSPOT PAPER NAPKINS",
	}
}

// SampleItemsets returns frequent itemsets over the sample catalog.
func SampleItemsets() []model.Itemset {
	return []model.Itemset{
		model.NewItemset(0.6, "21086"),
		model.NewItemset(0.6, "21094"),
		model.NewItemset(0.4, "21080"),
		model.NewItemset(0.4, "21086", "21094"),
	}
}

// SampleRules returns two rules, one of them certain (infinite conviction).
func SampleRules() []model.Rule {
	return []model.Rule{
		{
			Antecedents:       []string{"21086"},
			Consequents:       []string{"21094"},
			AntecedentSupport: 0.6,
			ConsequentSupport: 0.6,
			Support:           0.4,
			Confidence:        2.0 / 3.0,
			Lift:              10.0 / 9.0,
			Leverage:          0.04,
			Conviction:        1.2,
			ZhangsMetric:      0.25,
			Jaccard:           0.5,
			Certainty:         1.0 / 6.0,
			Kulczynski:        2.0 / 3.0,
		},
		{
			Antecedents:       []string{"21080"},
			Consequents:       []string{"21086"},
			AntecedentSupport: 0.4,
			ConsequentSupport: 0.6,
			Support:           0.4,
			Confidence:        1,
			Lift:              5.0 / 3.0,
			Leverage:          0.16,
			Conviction:        math.Inf(1),
			ZhangsMetric:      1,
			Jaccard:           2.0 / 3.0,
			Certainty:         1,
			Kulczynski:        5.0 / 6.0,
		},
	}
}
