package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/service"
	"github.com/goccy/go-json"
)

const runColumns = `r.id, r.created_at, r.source, r.country, r.key_column, r.min_support, r.metric,
	r.min_threshold, r.transactions, r.items,
	(SELECT COUNT(*) FROM itemsets i WHERE i.run_id = r.id),
	(SELECT COUNT(*) FROM rules u WHERE u.run_id = r.id)`

// SaveRun stores a run with its itemsets and rules in one transaction and sets run.ID.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.MiningRun, itemsets []model.Itemset, rules []model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}
	if err := validateRules(rules); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (created_at, source, country, key_column, min_support, metric,
			min_threshold, transactions, items)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.CreatedAt, run.Source, run.Country, run.KeyColumn, run.MinSupport, run.Metric,
		run.MinThreshold, run.Transactions, run.Items)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}

	if err := saveItemsetsTx(ctx, tx, id, itemsets); err != nil {
		return err
	}
	if err := saveRulesTx(ctx, tx, id, rules); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	run.ItemsetCount = len(itemsets)
	run.RuleCount = len(rules)
	return nil
}

func saveItemsetsTx(ctx context.Context, tx *sql.Tx, runID int64, itemsets []model.Itemset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO itemsets (run_id, position, items, size, support)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare itemset insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, set := range itemsets {
		items, err := json.Marshal(set.Items)
		if err != nil {
			return fmt.Errorf("failed to encode itemset %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, string(items), set.Size(), set.Support); err != nil {
			return fmt.Errorf("failed to insert itemset %d: %w", i, err)
		}
	}
	return nil
}

func saveRulesTx(ctx context.Context, tx *sql.Tx, runID int64, rules []model.Rule) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rules (run_id, position, antecedents, consequents, antecedent_support,
			consequent_support, support, confidence, lift, leverage, conviction, zhangs_metric,
			jaccard, certainty, kulczynski)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare rule insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rules {
		ante, err := json.Marshal(r.Antecedents)
		if err != nil {
			return fmt.Errorf("failed to encode rule %d: %w", i, err)
		}
		cons, err := json.Marshal(r.Consequents)
		if err != nil {
			return fmt.Errorf("failed to encode rule %d: %w", i, err)
		}

		// SQLite has no infinity; a certain rule's conviction is stored as NULL
		var conviction sql.NullFloat64
		if !math.IsInf(r.Conviction, 0) && !math.IsNaN(r.Conviction) {
			conviction = sql.NullFloat64{Float64: r.Conviction, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, runID, i, string(ante), string(cons),
			r.AntecedentSupport, r.ConsequentSupport, r.Support, r.Confidence, r.Lift,
			r.Leverage, conviction, r.ZhangsMetric, r.Jaccard, r.Certainty, r.Kulczynski,
		); err != nil {
			return fmt.Errorf("failed to insert rule %d: %w", i, err)
		}
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStorage) GetRun(ctx context.Context, id int64) (*model.MiningRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	return getRunTx(ctx, s.db, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
}

// GetLatestRun retrieves the most recently created run.
func (s *SQLiteStorage) GetLatestRun(ctx context.Context) (*model.MiningRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getRunTx(ctx, s.db, `SELECT `+runColumns+` FROM runs r ORDER BY r.created_at DESC, r.id DESC LIMIT 1`)
}

func getRunTx(ctx context.Context, q queryable, query string, args ...any) (*model.MiningRun, error) {
	run, err := scanRun(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: mining run", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.MiningRun, error) {
	var run model.MiningRun
	if err := row.Scan(
		&run.ID,
		&run.CreatedAt,
		&run.Source,
		&run.Country,
		&run.KeyColumn,
		&run.MinSupport,
		&run.Metric,
		&run.MinThreshold,
		&run.Transactions,
		&run.Items,
		&run.ItemsetCount,
		&run.RuleCount,
	); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter service.RunFilter) ([]model.MiningRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + runColumns + ` FROM runs r`
	var args []any
	if filter.Country != "" {
		query += ` WHERE r.country = ?`
		args = append(args, filter.Country)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []model.MiningRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and, by cascade, its itemsets and rules.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: mining run %d", common.ErrNotFound, id)
	}
	return nil
}

// GetItemsets returns a run's itemsets in the order they were saved.
func (s *SQLiteStorage) GetItemsets(ctx context.Context, runID int64) ([]model.Itemset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT items, support FROM itemsets WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query itemsets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	itemsets := []model.Itemset{}
	for rows.Next() {
		var (
			items string
			set   model.Itemset
		)
		if err := rows.Scan(&items, &set.Support); err != nil {
			return nil, fmt.Errorf("failed to scan itemset: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &set.Items); err != nil {
			return nil, fmt.Errorf("failed to decode itemset: %w", err)
		}
		itemsets = append(itemsets, set)
	}
	return itemsets, rows.Err()
}

// GetRules returns a run's rules in the order they were saved.
func (s *SQLiteStorage) GetRules(ctx context.Context, runID int64) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT antecedents, consequents, antecedent_support, consequent_support, support,
			confidence, lift, leverage, conviction, zhangs_metric, jaccard, certainty, kulczynski
		FROM rules WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules := []model.Rule{}
	for rows.Next() {
		var (
			ante, cons string
			conviction sql.NullFloat64
			r          model.Rule
		)
		if err := rows.Scan(&ante, &cons, &r.AntecedentSupport, &r.ConsequentSupport, &r.Support,
			&r.Confidence, &r.Lift, &r.Leverage, &conviction, &r.ZhangsMetric,
			&r.Jaccard, &r.Certainty, &r.Kulczynski,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(ante), &r.Antecedents); err != nil {
			return nil, fmt.Errorf("failed to decode antecedents: %w", err)
		}
		if err := json.Unmarshal([]byte(cons), &r.Consequents); err != nil {
			return nil, fmt.Errorf("failed to decode consequents: %w", err)
		}
		r.Conviction = math.Inf(1)
		if conviction.Valid {
			r.Conviction = conviction.Float64
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
