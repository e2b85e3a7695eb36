package arl

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// Engine runs the full association rule pipeline over line items.
type Engine struct {
	config Config
}

// Config holds configuration options for the engine.
type Config struct {
	Miner MinerOptions
	Rules RuleOptions
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Miner: DefaultMinerOptions(),
		Rules: DefaultRuleOptions(),
	}
}

// Validate checks every threshold before any work is done.
func (c Config) Validate() error {
	if err := c.Miner.Validate(); err != nil {
		return err
	}
	return c.Rules.Validate()
}

// Result is everything one pipeline run produces.
type Result struct {
	Matrix   *Matrix
	Itemsets []model.Itemset
	Rules    []model.Rule
	Invalid  []*InvalidRuleError
}

// New creates an engine with the default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(config Config) *Engine {
	return &Engine{config: config}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Run builds the incidence matrix, mines frequent itemsets and generates rules.
func (e *Engine) Run(ctx context.Context, lines []model.LineItem) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	matrix := BuildMatrix(lines)
	common.LogStage(ctx, "matrix", started, common.Fields{
		"transactions": matrix.Len(),
		"items":        len(matrix.items),
	})

	started = time.Now()
	itemsets, err := MineFrequentItemsets(ctx, matrix, e.config.Miner)
	if err != nil {
		return nil, fmt.Errorf("failed to mine frequent itemsets: %w", err)
	}
	common.LogStage(ctx, "apriori", started, common.Fields{"itemsets": len(itemsets)})

	result := &Result{Matrix: matrix, Itemsets: itemsets}

	ruleOpts := e.config.Rules
	onInvalid := ruleOpts.OnInvalid
	ruleOpts.OnInvalid = func(invalid *InvalidRuleError) {
		result.Invalid = append(result.Invalid, invalid)
		if onInvalid != nil {
			onInvalid(invalid)
		}
	}

	started = time.Now()
	result.Rules, err = GenerateRules(itemsets, ruleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rules: %w", err)
	}
	common.LogStage(ctx, "rules", started, common.Fields{
		"rules":   len(result.Rules),
		"invalid": len(result.Invalid),
	})

	return result, nil
}
