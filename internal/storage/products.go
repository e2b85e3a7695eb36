package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// SaveProducts upserts the stock code descriptions of a catalog.
func (s *SQLiteStorage) SaveProducts(ctx context.Context, catalog model.Catalog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if catalog == nil {
		return fmt.Errorf("%w: catalog", ErrNilParameter)
	}
	if len(catalog) == 0 {
		return fmt.Errorf("%w: catalog", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (stock_code, description, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(stock_code) DO UPDATE SET
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare product upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	codes := make([]string, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if err := validateString(code, "stockCode"); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, code, catalog[code]); err != nil {
			return fmt.Errorf("failed to save product %s: %w", code, err)
		}
	}

	return tx.Commit()
}

// GetProduct returns the description of a stock code.
func (s *SQLiteStorage) GetProduct(ctx context.Context, stockCode string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(stockCode, "stockCode"); err != nil {
		return "", err
	}
	return getProductTx(ctx, s.db, stockCode)
}

func getProductTx(ctx context.Context, q queryable, stockCode string) (string, error) {
	var description string
	err := q.QueryRowContext(ctx, `SELECT description FROM products WHERE stock_code = ?`, stockCode).Scan(&description)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: product %s", common.ErrNotFound, stockCode)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get product: %w", err)
	}
	return description, nil
}

// GetCatalog loads every stored product.
func (s *SQLiteStorage) GetCatalog(ctx context.Context) (model.Catalog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT stock_code, description FROM products`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	catalog := model.Catalog{}
	for rows.Next() {
		var code, description string
		if err := rows.Scan(&code, &description); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		catalog[code] = description
	}
	return catalog, rows.Err()
}
