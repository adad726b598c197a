// Package domain defines the core interfaces and types for LexGuard.
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, tenantID string, tx *Transaction) error
	GetTransaction(ctx context.Context, tenantID string, txID string) (*Transaction, error)

	// SumPaymentsToCounterparty totals the amounts of transactions paid to
	// counterparty dated within [from, to). Matching is case-insensitive.
	SumPaymentsToCounterparty(ctx context.Context, tenantID string, counterparty string, from, to time.Time) (decimal.Decimal, error)

	// Rule table operations
	SaveRule(ctx context.Context, tenantID string, rule *Rule) error
	GetRule(ctx context.Context, tenantID string, ruleID string) (*Rule, error)
	ListRules(ctx context.Context, tenantID string) ([]*Rule, error)

	// Evaluation results
	SaveEvaluation(ctx context.Context, tenantID string, eval *Evaluation) error
	GetEvaluation(ctx context.Context, tenantID string, evalID string) (*Evaluation, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `mapstructure:"driver"`

	// SQLite specific
	SQLitePath string `mapstructure:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `mapstructure:"postgresHost"`
	PostgresPort     int    `mapstructure:"postgresPort"`
	PostgresUser     string `mapstructure:"postgresUser"`
	PostgresPassword string `mapstructure:"postgresPassword"`
	PostgresDB       string `mapstructure:"postgresDb"`
	PostgresSSLMode  string `mapstructure:"postgresSslMode"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// GlobalTenantID owns records shared by every tenant, such as the rule table.
const GlobalTenantID = "*"
