// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqlite "modernc.org/sqlite"

	"github.com/olegiv/accounts-go/internal/model"
)

// DBTX is the subset of *sql.DB used by Queries, so the same methods
// work inside transactions.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries provides typed access to the accounts table.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Account is a row in the accounts table. The password hash is never
// exposed in JSON.
type Account struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Status       model.Status `json:"status"`
	RegisteredAt time.Time    `json:"registered_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}

const accountColumns = `id, name, email, password_hash, status, registered_at, last_login_at`

// scanAccount scans one account row from a *sql.Row or *sql.Rows.
func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Status, &a.RegisteredAt, &a.LastLoginAt)
	return a, err
}

// SQLite extended result code for UNIQUE constraint violations.
const sqliteConstraintUnique = 2067

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The email uniqueness invariant is enforced here, at the
// storage layer, never by an application-level check-then-insert.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqliteConstraintUnique || code == 19 // SQLITE_CONSTRAINT
	}
	return false
}

// CreateAccountParams holds the fields for CreateAccount. Email must
// already be normalized by the caller.
type CreateAccountParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       model.Status
	RegisteredAt time.Time
}

// CreateAccount inserts a new account and returns the stored row.
func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, status, registered_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+accountColumns,
		arg.ID, arg.Name, arg.Email, arg.PasswordHash, arg.Status, arg.RegisteredAt)
	return scanAccount(row)
}

// GetAccountByID returns the account with the given id, or sql.ErrNoRows.
func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetAccountByEmail returns the account with the given normalized
// email. Should duplicates ever exist (legacy data predating the
// unique index), the most recently registered one wins.
func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE email = ?
		ORDER BY registered_at DESC
		LIMIT 1`, email)
	return scanAccount(row)
}

// ListAccountsByRecency returns all accounts ordered by last login
// descending. Accounts that never logged in sort after every account
// that has; ties break deterministically by id.
func (q *Queries) ListAccountsByRecency(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		ORDER BY last_login_at IS NULL, last_login_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccountParams holds the fields for UpdateAccount.
type UpdateAccountParams struct {
	Name         string
	Email        string
	PasswordHash string
	Status       model.Status
	ID           string
}

// UpdateAccount overwrites the mutable fields of an account.
// Last-writer-wins; there is no concurrency token.
func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, email = ?, password_hash = ?, status = ?
		WHERE id = ?`,
		arg.Name, arg.Email, arg.PasswordHash, arg.Status, arg.ID)
	return err
}

// SetAccountStatusParams holds the fields for SetAccountStatus.
type SetAccountStatusParams struct {
	Status model.Status
	ID     string
}

// SetAccountStatus updates the lifecycle status of an account. A
// missing id affects zero rows and is not an error.
func (q *Queries) SetAccountStatus(ctx context.Context, arg SetAccountStatusParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET status = ? WHERE id = ?`, arg.Status, arg.ID)
	return err
}

// UpdateAccountPasswordParams holds the fields for UpdateAccountPassword.
type UpdateAccountPasswordParams struct {
	PasswordHash string
	ID           string
}

// UpdateAccountPassword replaces an account's password hash.
func (q *Queries) UpdateAccountPassword(ctx context.Context, arg UpdateAccountPasswordParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ? WHERE id = ?`, arg.PasswordHash, arg.ID)
	return err
}

// UpdateAccountLastLoginParams holds the fields for UpdateAccountLastLogin.
type UpdateAccountLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          string
}

// UpdateAccountLastLogin records a successful login timestamp.
func (q *Queries) UpdateAccountLastLogin(ctx context.Context, arg UpdateAccountLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET last_login_at = ? WHERE id = ?`, arg.LastLoginAt, arg.ID)
	return err
}

// DeleteAccount removes an account. A missing id affects zero rows and
// is not an error.
func (q *Queries) DeleteAccount(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}

// DeleteUnverifiedAccounts removes every account whose status is
// Unverified at the time of the call and returns how many were
// deleted. A verify racing this purge is resolved by SQLite write
// ordering; the outcome is deliberately unspecified.
func (q *Queries) DeleteUnverifiedAccounts(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM accounts WHERE status = ?`, model.StatusUnverified)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountAccounts returns the total number of accounts.
func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}
