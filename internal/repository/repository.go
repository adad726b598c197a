// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is shared with the domain so callers need one check.
	ErrInvalidInput = domain.ErrInvalidInput
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransaction stores a transaction with tenant isolation.
func (r *SQLRepository) SaveTransaction(ctx context.Context, tenantID string, tx *domain.Transaction) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	in := tx.Input
	query := `
		INSERT INTO transactions (
			id, tenant_id, description, amount, tx_date,
			counterparty, counterparty_key, type_hint, frequency, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tx.ID, tenantID, in.Description, in.Amount.String(), in.Date.String(),
		in.Counterparty, counterpartyKey(in.Counterparty), in.TypeHint, string(in.Frequency),
		tx.CreatedAt,
	)
	return err
}

// GetTransaction retrieves a transaction by ID with tenant isolation.
func (r *SQLRepository) GetTransaction(ctx context.Context, tenantID string, txID string) (*domain.Transaction, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, description, amount, tx_date,
			   counterparty, type_hint, frequency, created_at
		FROM transactions
		WHERE tenant_id = ? AND id = ?
	`

	var tx domain.Transaction
	var amount, date, frequency string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, txID).Scan(
		&tx.ID, &tx.TenantID, &tx.Input.Description, &amount, &date,
		&tx.Input.Counterparty, &tx.Input.TypeHint, &frequency, &tx.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if tx.Input.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("corrupt amount for transaction %s: %w", tx.ID, err)
	}
	if date != "" {
		if tx.Input.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("corrupt date for transaction %s: %w", tx.ID, err)
		}
	}
	tx.Input.Frequency = domain.Frequency(frequency)

	return &tx, nil
}

// SumPaymentsToCounterparty totals transactions to a counterparty dated in [from, to).
// Undated transactions are never counted.
func (r *SQLRepository) SumPaymentsToCounterparty(ctx context.Context, tenantID string, counterparty string, from, to time.Time) (decimal.Decimal, error) {
	if tenantID == "" {
		return decimal.Zero, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT amount
		FROM transactions
		WHERE tenant_id = ?
		  AND counterparty_key = ?
		  AND tx_date <> ''
		  AND tx_date >= ?
		  AND tx_date < ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query),
		tenantID, counterpartyKey(counterparty),
		from.Format(domain.DateLayout), to.Format(domain.DateLayout),
	)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}

	return total, rows.Err()
}

// SaveRule inserts or updates a rule. New rules are appended to the tenant's
// table; updates keep their position.
func (r *SQLRepository) SaveRule(ctx context.Context, tenantID string, rule *domain.Rule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to encode rule %s: %w", rule.ID, err)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO rules (
			id, tenant_id, position, payload, enabled, created_at, updated_at
		) VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM rules WHERE tenant_id = ?), ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			payload = excluded.payload,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, tenantID, tenantID, string(payload), enabled, now, now,
	)
	return err
}

// GetRule retrieves a rule, enabled or not, with tenant isolation.
func (r *SQLRepository) GetRule(ctx context.Context, tenantID string, ruleID string) (*domain.Rule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT payload
		FROM rules
		WHERE tenant_id = ? AND id = ?
	`

	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, ruleID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rule domain.Rule
	if err := json.Unmarshal([]byte(payload), &rule); err != nil {
		return nil, fmt.Errorf("failed to parse rule %s: %w", ruleID, err)
	}
	return &rule, nil
}

// ListRules returns the tenant's rule table in insertion order, disabled
// rules included.
func (r *SQLRepository) ListRules(ctx context.Context, tenantID string) ([]*domain.Rule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, payload
		FROM rules
		WHERE tenant_id = ?
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table []*domain.Rule
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}

		var rule domain.Rule
		if err := json.Unmarshal([]byte(payload), &rule); err != nil {
			return nil, fmt.Errorf("failed to parse rule %s: %w", id, err)
		}
		table = append(table, &rule)
	}

	return table, rows.Err()
}

// SaveEvaluation stores an evaluation result with tenant isolation.
func (r *SQLRepository) SaveEvaluation(ctx context.Context, tenantID string, eval *domain.Evaluation) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	result, err := json.Marshal(eval.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	metadata, _ := json.Marshal(eval.Metadata)

	query := `
		INSERT INTO evaluations (
			id, tenant_id, tx_id, status, timestamp,
			result, counterparty_ytd, narrative, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		eval.ID, tenantID, eval.TxID, string(eval.Result.Status), eval.Timestamp,
		string(result), eval.CounterpartyYearToDate.String(), eval.Narrative, string(metadata),
	)
	return err
}

// GetEvaluation retrieves an evaluation by ID with tenant isolation.
func (r *SQLRepository) GetEvaluation(ctx context.Context, tenantID string, evalID string) (*domain.Evaluation, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, tx_id, timestamp,
			   result, counterparty_ytd, narrative, metadata
		FROM evaluations
		WHERE tenant_id = ? AND id = ?
	`

	var eval domain.Evaluation
	var result, ytd, metadata string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, evalID).Scan(
		&eval.ID, &eval.TenantID, &eval.TxID, &eval.Timestamp,
		&result, &ytd, &eval.Narrative, &metadata,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(result), &eval.Result); err != nil {
		return nil, fmt.Errorf("failed to parse result of evaluation %s: %w", evalID, err)
	}
	eval.CounterpartyYearToDate, _ = decimal.NewFromString(ytd)
	json.Unmarshal([]byte(metadata), &eval.Metadata)

	return &eval, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// counterpartyKey normalizes a counterparty name for lookups.
func counterpartyKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = strconv.AppendInt(result, int64(n), 10)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
