package repository

// Schema definitions for the LexGuard database.
// Compatible with both SQLite and PostgreSQL. Money is stored as decimal text.

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    tx_date TEXT NOT NULL DEFAULT '',
    counterparty TEXT NOT NULL,
    counterparty_key TEXT NOT NULL,
    type_hint TEXT NOT NULL DEFAULT '',
    frequency TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_tenant ON transactions(tenant_id);
CREATE INDEX IF NOT EXISTS idx_transactions_counterparty ON transactions(tenant_id, counterparty_key, tx_date);
`

const schemaRules = `
CREATE TABLE IF NOT EXISTS rules (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    payload TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_rules_tenant ON rules(tenant_id, position);
`

const schemaEvaluations = `
CREATE TABLE IF NOT EXISTS evaluations (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    tx_id TEXT NOT NULL,
    status TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    result TEXT NOT NULL,
    counterparty_ytd TEXT NOT NULL DEFAULT '0',
    narrative TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_tenant ON evaluations(tenant_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_tx ON evaluations(tenant_id, tx_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_status ON evaluations(tenant_id, status);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaTransactions,
		schemaRules,
		schemaEvaluations,
	}
}
