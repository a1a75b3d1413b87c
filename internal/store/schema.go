package store

// Schema defines the SQL statements to create the ledger tables.
// Decimal amounts are stored as TEXT so no precision is lost in SQLite's REAL type.
const Schema = `
-- One row per (user, account name). Balance is always in the native currency.
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('asset', 'liability')),
    currency TEXT NOT NULL,
    display_currency TEXT NOT NULL,
    balance TEXT NOT NULL,
    initial_balance TEXT NOT NULL,
    due_date INTEGER CHECK (due_date IS NULL OR due_date BETWEEN 1 AND 31),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE(user_id, name)
);

-- Immutable ledger records. target_account is NULL unless type = 'transfer'.
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('expense', 'income', 'transfer')),
    category TEXT NOT NULL,
    account TEXT NOT NULL,
    target_account TEXT,
    date TEXT NOT NULL,                -- YYYY-MM-DD
    note TEXT NOT NULL DEFAULT '',
    degraded INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    FOREIGN KEY (user_id, account) REFERENCES accounts(user_id, name),
    FOREIGN KEY (user_id, target_account) REFERENCES accounts(user_id, name)
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date
    ON transactions(user_id, date);
`
