// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the account lifecycle state machine and
// credential verification on top of the store layer. All status
// transitions happen here; handlers only translate HTTP in and out.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/accounts-go/internal/auth"
	"github.com/olegiv/accounts-go/internal/model"
	"github.com/olegiv/accounts-go/internal/store"
)

// AccountService orchestrates account creation, lookup, and status
// transitions. It holds no state beyond the store handle; all
// concurrency coordination is delegated to SQLite.
type AccountService struct {
	queries *store.Queries
}

// NewAccountService creates an AccountService backed by the given
// database handle.
func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{queries: store.New(db)}
}

// Create registers a new account: normalizes the email, hashes the
// password, assigns an id and registration timestamp, and persists
// with status Unverified. A unique-constraint rejection from the store
// surfaces as ErrDuplicateEmail; any other storage fault is wrapped
// unchanged so handlers can collapse it to a generic failure.
func (s *AccountService) Create(ctx context.Context, name, email, password string) (store.Account, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return store.Account{}, fmt.Errorf("hashing password: %w", err)
	}

	account, err := s.queries.CreateAccount(ctx, store.CreateAccountParams{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        model.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Status:       model.StatusUnverified,
		RegisteredAt: time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.Account{}, ErrDuplicateEmail
		}
		return store.Account{}, fmt.Errorf("creating account: %w", err)
	}

	return account, nil
}

// GetByID returns the account with the given id, or ErrNotFound.
func (s *AccountService) GetByID(ctx context.Context, id string) (store.Account, error) {
	account, err := s.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Account{}, ErrNotFound
		}
		return store.Account{}, fmt.Errorf("getting account: %w", err)
	}
	return account, nil
}

// GetByEmail normalizes the input and returns the matching account, or
// ErrNotFound. If duplicates exist (legacy data), the most recently
// registered one is returned.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (store.Account, error) {
	account, err := s.queries.GetAccountByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Account{}, ErrNotFound
		}
		return store.Account{}, fmt.Errorf("getting account by email: %w", err)
	}
	return account, nil
}

// List returns all accounts ordered by last login descending, accounts
// that never logged in last. A non-empty filter keeps only accounts
// whose name or email contains it, case-insensitively; the filter is
// applied after retrieval, not pushed into SQL.
func (s *AccountService) List(ctx context.Context, filter string) ([]store.Account, error) {
	accounts, err := s.queries.ListAccountsByRecency(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return accounts, nil
	}

	filtered := accounts[:0]
	for _, a := range accounts {
		if strings.Contains(strings.ToLower(a.Name), filter) ||
			strings.Contains(strings.ToLower(a.Email), filter) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// Update overwrites an account's mutable fields, re-normalizing the
// email first. Full-record, last-writer-wins semantics.
func (s *AccountService) Update(ctx context.Context, account store.Account) error {
	err := s.queries.UpdateAccount(ctx, store.UpdateAccountParams{
		Name:         account.Name,
		Email:        model.NormalizeEmail(account.Email),
		PasswordHash: account.PasswordHash,
		Status:       account.Status,
		ID:           account.ID,
	})
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return nil
}

// Verify promotes an Unverified account to Active. Blocked always
// wins: a verification click never reactivates a blocked account.
// Verifying an already Active account is an idempotent no-op. Returns
// the status before and after the transition, or ErrNotFound.
func (s *AccountService) Verify(ctx context.Context, id string) (before, after model.Status, err error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}

	before = account.Status
	after = before

	if account.Status != model.StatusBlocked {
		after = model.StatusActive
		if err := s.queries.SetAccountStatus(ctx, store.SetAccountStatusParams{
			Status: after,
			ID:     id,
		}); err != nil {
			return "", "", fmt.Errorf("verifying account: %w", err)
		}
	}

	slog.Info("account verification processed", "account_id", id, "before", before, "after", after)
	return before, after, nil
}

// Block sets an account's status to Blocked. Allowed from any state.
// A no-op (not an error) when the id does not resolve to an account.
func (s *AccountService) Block(ctx context.Context, id string) error {
	if err := s.queries.SetAccountStatus(ctx, store.SetAccountStatusParams{
		Status: model.StatusBlocked,
		ID:     id,
	}); err != nil {
		return fmt.Errorf("blocking account: %w", err)
	}
	return nil
}

// Unblock sets an account's status to Active regardless of its prior
// state: even a never-verified account comes out Active. This
// asymmetry with Verify is an admin override carried over from the
// original behavior. A no-op when the id does not exist.
func (s *AccountService) Unblock(ctx context.Context, id string) error {
	if err := s.queries.SetAccountStatus(ctx, store.SetAccountStatusParams{
		Status: model.StatusActive,
		ID:     id,
	}); err != nil {
		return fmt.Errorf("unblocking account: %w", err)
	}
	return nil
}

// Delete removes an account entirely. A no-op when the id does not
// exist.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.queries.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// PurgeUnverified bulk-removes every account that is Unverified at the
// time of the call and returns the count. Not transactionally isolated
// from a concurrent Verify; whichever write SQLite orders first wins.
func (s *AccountService) PurgeUnverified(ctx context.Context) (int64, error) {
	count, err := s.queries.DeleteUnverifiedAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("purging unverified accounts: %w", err)
	}
	slog.Info("purged unverified accounts", "count", count)
	return count, nil
}

// Authenticate validates credentials for login. Check order matters:
//  1. unknown email → ErrInvalidCredentials (indistinguishable from a
//     wrong password)
//  2. Blocked → ErrAccountBlocked, before the password is verified
//  3. Unverified → ErrAccountNotActive
//  4. password mismatch → ErrInvalidCredentials
//
// On success the password hash is transparently upgraded if its cost
// parameters are outdated, last_login_at is bumped, and the fresh
// account row is returned.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (store.Account, error) {
	account, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Debug("login attempt for unknown email")
			return store.Account{}, ErrInvalidCredentials
		}
		return store.Account{}, err
	}

	if account.Status == model.StatusBlocked {
		return store.Account{}, ErrAccountBlocked
	}
	if account.Status != model.StatusActive {
		return store.Account{}, ErrAccountNotActive
	}

	valid, err := auth.CheckPassword(password, account.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "account_id", account.ID)
		return store.Account{}, ErrInvalidCredentials
	}
	if !valid {
		slog.Debug("invalid password attempt", "account_id", account.ID)
		return store.Account{}, ErrInvalidCredentials
	}

	// Re-hash if the stored hash uses outdated cost parameters.
	if auth.NeedsRehash(account.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateAccountPassword(ctx, store.UpdateAccountPasswordParams{
				PasswordHash: newHash,
				ID:           account.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "account_id", account.ID)
			} else {
				account.PasswordHash = newHash
				slog.Info("password re-hashed with updated parameters", "account_id", account.ID)
			}
		}
	}

	now := time.Now()
	if err := s.queries.UpdateAccountLastLogin(ctx, store.UpdateAccountLastLoginParams{
		LastLoginAt: sql.NullTime{Time: now, Valid: true},
		ID:          account.ID,
	}); err != nil {
		// Don't block login on this error
		slog.Error("failed to update last login time", "error", err, "account_id", account.ID)
	} else {
		account.LastLoginAt = sql.NullTime{Time: now, Valid: true}
	}

	return account, nil
}
