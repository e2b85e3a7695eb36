// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// RunFilter limits which mining runs are listed.
type RunFilter struct {
	Country string
	Limit   int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Mining runs
	SaveRun(ctx context.Context, run *model.MiningRun, itemsets []model.Itemset, rules []model.Rule) error
	GetRun(ctx context.Context, id int64) (*model.MiningRun, error)
	GetLatestRun(ctx context.Context) (*model.MiningRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.MiningRun, error)
	DeleteRun(ctx context.Context, id int64) error
	GetItemsets(ctx context.Context, runID int64) ([]model.Itemset, error)
	GetRules(ctx context.Context, runID int64) ([]model.Rule, error)

	// Product catalog
	SaveProducts(ctx context.Context, catalog model.Catalog) error
	GetProduct(ctx context.Context, stockCode string) (string, error)
	GetCatalog(ctx context.Context) (model.Catalog, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter publishes the rules of a mining run to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, run *model.MiningRun, rules []model.Rule, catalog model.Catalog) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
