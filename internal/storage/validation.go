// Package storage persists association rule mining runs and the product catalog in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
	ErrInvalidID    = errors.New("id must be positive")
	ErrInvalidRun   = errors.New("invalid mining run")
	ErrInvalidRule  = errors.New("invalid rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}

// validateRun checks the fields every persisted run needs.
func validateRun(run *model.MiningRun) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.Source == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidRun)
	}
	if run.KeyColumn == "" {
		return fmt.Errorf("%w: missing key column", ErrInvalidRun)
	}
	if run.Metric == "" {
		return fmt.Errorf("%w: missing metric", ErrInvalidRun)
	}
	if run.MinSupport <= 0 || run.MinSupport > 1 {
		return fmt.Errorf("%w: min support %v outside (0, 1]", ErrInvalidRun, run.MinSupport)
	}
	return nil
}

// validateRules rejects rules that could not be read back.
func validateRules(rules []model.Rule) error {
	for i, r := range rules {
		if len(r.Antecedents) == 0 || len(r.Consequents) == 0 {
			return fmt.Errorf("rule at index %d: %w: empty side", i, ErrInvalidRule)
		}
		if math.IsNaN(r.Support) || math.IsNaN(r.Confidence) || math.IsNaN(r.Lift) {
			return fmt.Errorf("rule at index %d: %w: NaN metric", i, ErrInvalidRule)
		}
	}
	return nil
}
