package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/logging"
	"fintrack/internal/models"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// Connect opens a pool against the given URL and verifies the connection.
func Connect(ctx context.Context, url string, logger logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate creates the schema when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			date DATE NOT NULL,
			label TEXT NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			account_id TEXT NOT NULL DEFAULT '',
			tx_hash CHAR(64) NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'pending',
			category_suggested TEXT NOT NULL DEFAULT '',
			category_source TEXT NOT NULL DEFAULT 'none',
			category TEXT NOT NULL DEFAULT '',
			member TEXT NOT NULL DEFAULT '',
			beneficiary TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			is_manually_ungrouped BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions (status);

		CREATE TABLE IF NOT EXISTS learning_rules (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			pattern TEXT NOT NULL,
			category TEXT NOT NULL,
			priority INT NOT NULL DEFAULT 5,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, txHash string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE tx_hash = $1)`, txHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking transaction hash: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertPending(ctx context.Context, tx *models.TransactionRecord) (bool, error) {
	query := `
		INSERT INTO transactions (date, label, amount, account_id, tx_hash, status, category_suggested, category_source, member, beneficiary, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tx_hash) DO NOTHING
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		tx.Date, tx.Label, tx.Amount, tx.AccountID, tx.TxHash,
		models.StatusPending, tx.CategorySuggested, tx.CategorySource, tx.Member, tx.Beneficiary, tx.Tags,
	).Scan(&tx.ID)
	if err == pgx.ErrNoRows {
		// Conflict on tx_hash, the row already exists.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inserting transaction: %w", err)
	}
	tx.Status = models.StatusPending
	return true, nil
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]models.TransactionRecord, error) {
	query := `
		SELECT id, date, label, amount, account_id, tx_hash, status, category_suggested, category_source, category, member, beneficiary, tags, is_manually_ungrouped
		FROM transactions
		WHERE status = $1
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.TransactionRecord
	for rows.Next() {
		var t models.TransactionRecord
		err := rows.Scan(&t.ID, &t.Date, &t.Label, &t.Amount, &t.AccountID, &t.TxHash,
			&t.Status, &t.CategorySuggested, &t.CategorySource, &t.CategoryValidated,
			&t.Member, &t.Beneficiary, &t.Tags, &t.IsManuallyUngrouped)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id int64) (models.TransactionRecord, error) {
	query := `
		SELECT id, date, label, amount, account_id, tx_hash, status, category_suggested, category_source, category, member, beneficiary, tags, is_manually_ungrouped
		FROM transactions
		WHERE id = $1
	`
	var t models.TransactionRecord
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Date, &t.Label, &t.Amount, &t.AccountID, &t.TxHash,
		&t.Status, &t.CategorySuggested, &t.CategorySource, &t.CategoryValidated,
		&t.Member, &t.Beneficiary, &t.Tags, &t.IsManuallyUngrouped)
	if err == pgx.ErrNoRows {
		return models.TransactionRecord{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.TransactionRecord{}, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) BulkUpdateStatus(ctx context.Context, updates []StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning bulk update: %w", err)
	}
	defer dbTx.Rollback(ctx)

	query := `
		UPDATE transactions
		SET status = $1, category = $2, member = $3, beneficiary = $4, tags = $5
		WHERE id = $6
	`
	for _, u := range updates {
		cmd, err := dbTx.Exec(ctx, query, models.StatusValidated, u.Category, u.Member, u.Beneficiary, u.Tags, u.ID)
		if err != nil {
			return fmt.Errorf("updating transaction %d: %w", u.ID, err)
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("updating transaction %d: %w", u.ID, ErrNotFound)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("committing bulk update: %w", err)
	}

	s.logger.WithField(logging.FieldCount, len(updates)).Debug("Validated transactions")
	return nil
}

func (s *PostgresStore) SetManuallyUngrouped(ctx context.Context, id int64) error {
	cmd, err := s.pool.Exec(ctx,
		`UPDATE transactions SET is_manually_ungrouped = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ungrouping transaction %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("ungrouping transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListRules(ctx context.Context) ([]models.LearningRule, error) {
	query := `
		SELECT id, pattern, category, priority, created_at
		FROM learning_rules
		ORDER BY priority DESC, id ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var ruleList []models.LearningRule
	for rows.Next() {
		var r models.LearningRule
		if err := rows.Scan(&r.ID, &r.Pattern, &r.Category, &r.Priority, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		ruleList = append(ruleList, r)
	}
	return ruleList, rows.Err()
}

func (s *PostgresStore) CreateRule(ctx context.Context, rule *models.LearningRule) (*models.LearningRule, error) {
	query := `
		INSERT INTO learning_rules (pattern, category, priority)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := s.pool.QueryRow(ctx, query, rule.Pattern, rule.Category, rule.Priority).Scan(&rule.ID, &rule.CreatedAt); err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}
	return rule, nil
}

func (s *PostgresStore) DeleteRule(ctx context.Context, id int64) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM learning_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting rule %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("deleting rule %d: %w", id, ErrNotFound)
	}
	return nil
}
