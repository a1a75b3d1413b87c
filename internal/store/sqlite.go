package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/fileutils"
	"fjacquet/spend-ledger/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// timestampLayout is fixed-width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is a Store backed by a SQLite database file.
// Write transactions start with BEGIN IMMEDIATE so concurrent writers are serialized by
// the database instead of failing at commit time.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens (creating if needed) the database at dbPath and applies the schema.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if err := fileutils.EnsureParentDirectory(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginAtomic starts an immediate write transaction.
func (s *SQLite) BeginAtomic(ctx context.Context, userID string) (Atomic, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqliteAtomic{tx: tx, userID: userID}, nil
}

const accountColumns = `name, type, currency, display_currency, balance, initial_balance, due_date, created_at, updated_at`

// ListAccounts returns the user's accounts in creation order.
func (s *SQLite) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	return listAccounts(ctx, s.db, userID)
}

// ListTransactions returns the user's transactions dated within [from, to].
func (s *SQLite) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT id, amount, type, category, account, target_account, date, note, degraded, created_at
		FROM transactions
		WHERE user_id = ?
	`
	args := []interface{}{userID}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, dateutils.ToISODate(from))
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, dateutils.ToISODate(to))
	}
	query += ` ORDER BY date, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			tx              models.Transaction
			txType          string
			target          sql.NullString
			date, createdAt string
		)
		if err := rows.Scan(&tx.ID, &tx.Amount, &txType, &tx.Category, &tx.Account, &target, &date, &tx.Note, &tx.Degraded, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.UserID = userID
		tx.Type = models.TransactionType(txType)
		tx.TargetAccount = target.String
		if tx.Date, err = time.Parse(dateutils.DateLayoutISO, date); err != nil {
			return nil, fmt.Errorf("transaction %s: bad date %q: %w", tx.ID, date, err)
		}
		if tx.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
			return nil, fmt.Errorf("transaction %s: bad created_at %q: %w", tx.ID, createdAt, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func listAccounts(ctx context.Context, q queryer, userID string) ([]models.Account, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func scanAccount(row rowScanner, userID string) (models.Account, error) {
	var (
		acc                  models.Account
		accType              string
		balance, initial     decimal.Decimal
		dueDate              sql.NullInt64
		createdAt, updatedAt string
	)
	if err := row.Scan(&acc.Name, &accType, &acc.Currency, &acc.DisplayCurrency, &balance, &initial, &dueDate, &createdAt, &updatedAt); err != nil {
		return models.Account{}, err
	}

	acc.UserID = userID
	acc.Type = models.AccountType(accType)
	acc.Balance = balance
	acc.InitialBalance = initial
	if dueDate.Valid {
		d := int(dueDate.Int64)
		acc.DueDate = &d
	}

	var err error
	if acc.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return models.Account{}, fmt.Errorf("account %s: bad created_at %q: %w", acc.Name, createdAt, err)
	}
	if acc.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return models.Account{}, fmt.Errorf("account %s: bad updated_at %q: %w", acc.Name, updatedAt, err)
	}
	return acc, nil
}

func nullableDueDate(d *int) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

type sqliteAtomic struct {
	tx     *sql.Tx
	userID string
	done   bool
}

func (a *sqliteAtomic) GetAccount(ctx context.Context, name string) (models.Account, error) {
	if a.done {
		return models.Account{}, ErrClosed
	}
	row := a.tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND name = ?`, a.userID, name)
	acc, err := scanAccount(row, a.userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to load account %s: %w", name, err)
	}
	return acc, nil
}

func (a *sqliteAtomic) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if a.done {
		return nil, ErrClosed
	}
	return listAccounts(ctx, a.tx, a.userID)
}

func (a *sqliteAtomic) CreateAccount(ctx context.Context, account models.Account) error {
	if a.done {
		return ErrClosed
	}
	_, err := a.tx.ExecContext(ctx, `
		INSERT INTO accounts (user_id, `+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.userID,
		account.Name,
		string(account.Type),
		account.Currency,
		account.DisplayCurrency,
		account.Balance.String(),
		account.InitialBalance.String(),
		nullableDueDate(account.DueDate),
		account.CreatedAt.UTC().Format(timestampLayout),
		account.UpdatedAt.UTC().Format(timestampLayout),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", account.Name, err)
	}
	return nil
}

// UpdateAccount writes the mutable fields of an account. Currency and InitialBalance are
// fixed at creation and ignored here.
func (a *sqliteAtomic) UpdateAccount(ctx context.Context, account models.Account) error {
	if a.done {
		return ErrClosed
	}
	res, err := a.tx.ExecContext(ctx, `
		UPDATE accounts
		SET type = ?, display_currency = ?, balance = ?, due_date = ?, updated_at = ?
		WHERE user_id = ? AND name = ?
	`,
		string(account.Type),
		account.DisplayCurrency,
		account.Balance.String(),
		nullableDueDate(account.DueDate),
		account.UpdatedAt.UTC().Format(timestampLayout),
		a.userID,
		account.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.Name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *sqliteAtomic) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	if a.done {
		return ErrClosed
	}
	var target sql.NullString
	if tx.TargetAccount != "" {
		target = sql.NullString{String: tx.TargetAccount, Valid: true}
	}

	_, err := a.tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, type, category, account, target_account, date, note, degraded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.ID,
		a.userID,
		tx.Amount.String(),
		string(tx.Type),
		tx.Category,
		tx.Account,
		target,
		dateutils.ToISODate(tx.Date),
		tx.Note,
		tx.Degraded,
		tx.CreatedAt.UTC().Format(timestampLayout),
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrDuplicate
	case isForeignKeyViolation(err):
		return ErrNotFound
	default:
		return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
	}
}

func (a *sqliteAtomic) Commit() error {
	if a.done {
		return ErrClosed
	}
	a.done = true
	if err := a.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (a *sqliteAtomic) Rollback() error {
	if a.done {
		return nil
	}
	a.done = true
	if err := a.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
