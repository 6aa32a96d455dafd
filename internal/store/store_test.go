// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/accounts-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "accounts-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// createTestAccount inserts an account with the given email and status.
func createTestAccount(t *testing.T, q *Queries, email string, status model.Status) Account {
	t.Helper()

	account, err := q.CreateAccount(context.Background(), CreateAccountParams{
		ID:           uuid.NewString(),
		Name:         "Test Account",
		Email:        email,
		PasswordHash: "hashed-password",
		Status:       status,
		RegisteredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return account
}

func TestCreateAccount(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	account := createTestAccount(t, q, "test@example.com", model.StatusUnverified)

	if account.ID == "" {
		t.Fatal("account ID should not be empty")
	}
	if account.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", account.Email, "test@example.com")
	}
	if account.Status != model.StatusUnverified {
		t.Errorf("Status = %q, want %q", account.Status, model.StatusUnverified)
	}
	if account.LastLoginAt.Valid {
		t.Error("new account should have no last login")
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestAccount(t, q, "dup@example.com", model.StatusUnverified)

	_, err := q.CreateAccount(context.Background(), CreateAccountParams{
		ID:           uuid.NewString(),
		Name:         "Other",
		Email:        "dup@example.com",
		PasswordHash: "other-hash",
		Status:       model.StatusUnverified,
		RegisteredAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation = false for %v", err)
	}
}

func TestIsUniqueViolation_OtherError(t *testing.T) {
	if IsUniqueViolation(errors.New("some other error")) {
		t.Fatal("plain error should not be a unique violation")
	}
	if IsUniqueViolation(nil) {
		t.Fatal("nil should not be a unique violation")
	}
}

func TestGetAccountByID(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	created := createTestAccount(t, q, "byid@example.com", model.StatusActive)

	got, err := q.GetAccountByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.Email != created.Email {
		t.Errorf("Email = %q, want %q", got.Email, created.Email)
	}

	_, err = q.GetAccountByID(context.Background(), uuid.NewString())
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetAccountByEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	created := createTestAccount(t, q, "byemail@example.com", model.StatusActive)

	got, err := q.GetAccountByEmail(context.Background(), "byemail@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}

	_, err = q.GetAccountByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListAccountsByRecency(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	never := createTestAccount(t, q, "never@example.com", model.StatusActive)
	older := createTestAccount(t, q, "older@example.com", model.StatusActive)
	newer := createTestAccount(t, q, "newer@example.com", model.StatusActive)

	base := time.Now()
	if err := q.UpdateAccountLastLogin(ctx, UpdateAccountLastLoginParams{
		LastLoginAt: sql.NullTime{Time: base.Add(-time.Hour), Valid: true},
		ID:          older.ID,
	}); err != nil {
		t.Fatalf("UpdateAccountLastLogin: %v", err)
	}
	if err := q.UpdateAccountLastLogin(ctx, UpdateAccountLastLoginParams{
		LastLoginAt: sql.NullTime{Time: base, Valid: true},
		ID:          newer.ID,
	}); err != nil {
		t.Fatalf("UpdateAccountLastLogin: %v", err)
	}

	accounts, err := q.ListAccountsByRecency(ctx)
	if err != nil {
		t.Fatalf("ListAccountsByRecency: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("len(accounts) = %d, want 3", len(accounts))
	}

	// Most recent login first, never-logged-in last
	if accounts[0].ID != newer.ID {
		t.Errorf("accounts[0] = %s, want %s", accounts[0].Email, newer.Email)
	}
	if accounts[1].ID != older.ID {
		t.Errorf("accounts[1] = %s, want %s", accounts[1].Email, older.Email)
	}
	if accounts[2].ID != never.ID {
		t.Errorf("accounts[2] = %s, want %s", accounts[2].Email, never.Email)
	}
}

func TestSetAccountStatus(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	account := createTestAccount(t, q, "status@example.com", model.StatusUnverified)

	if err := q.SetAccountStatus(ctx, SetAccountStatusParams{
		Status: model.StatusBlocked,
		ID:     account.ID,
	}); err != nil {
		t.Fatalf("SetAccountStatus: %v", err)
	}

	got, err := q.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.Status != model.StatusBlocked {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusBlocked)
	}

	// Missing id affects zero rows, not an error
	if err := q.SetAccountStatus(ctx, SetAccountStatusParams{
		Status: model.StatusActive,
		ID:     uuid.NewString(),
	}); err != nil {
		t.Fatalf("SetAccountStatus on missing id: %v", err)
	}
}

func TestUpdateAccountPassword(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	account := createTestAccount(t, q, "rehash@example.com", model.StatusActive)

	if err := q.UpdateAccountPassword(ctx, UpdateAccountPasswordParams{
		PasswordHash: "new-hash",
		ID:           account.ID,
	}); err != nil {
		t.Fatalf("UpdateAccountPassword: %v", err)
	}

	got, err := q.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "new-hash")
	}
}

func TestDeleteAccount(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	account := createTestAccount(t, q, "delete@example.com", model.StatusActive)

	if err := q.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	_, err := q.GetAccountByID(ctx, account.ID)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}

	// Deleting again is a no-op
	if err := q.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("DeleteAccount on missing id: %v", err)
	}
}

func TestDeleteUnverifiedAccounts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	createTestAccount(t, q, "u1@example.com", model.StatusUnverified)
	createTestAccount(t, q, "u2@example.com", model.StatusUnverified)
	createTestAccount(t, q, "u3@example.com", model.StatusUnverified)
	active := createTestAccount(t, q, "a1@example.com", model.StatusActive)
	blocked := createTestAccount(t, q, "b1@example.com", model.StatusBlocked)

	count, err := q.DeleteUnverifiedAccounts(ctx)
	if err != nil {
		t.Fatalf("DeleteUnverifiedAccounts: %v", err)
	}
	if count != 3 {
		t.Errorf("deleted = %d, want 3", count)
	}

	remaining, err := q.CountAccounts(ctx)
	if err != nil {
		t.Fatalf("CountAccounts: %v", err)
	}
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}

	for _, id := range []string{active.ID, blocked.ID} {
		if _, err := q.GetAccountByID(ctx, id); err != nil {
			t.Errorf("account %s should survive purge: %v", id, err)
		}
	}
}

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	// Disabled seeding does nothing
	if err := Seed(ctx, db, false); err != nil {
		t.Fatalf("Seed(false): %v", err)
	}
	if n, _ := q.CountAccounts(ctx); n != 0 {
		t.Fatalf("accounts after disabled seed = %d, want 0", n)
	}

	if err := Seed(ctx, db, true); err != nil {
		t.Fatalf("Seed(true): %v", err)
	}

	admin, err := q.GetAccountByEmail(ctx, DefaultAdminEmail)
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	if admin.Status != model.StatusActive {
		t.Errorf("seeded admin status = %q, want %q", admin.Status, model.StatusActive)
	}

	// Seeding again is idempotent
	if err := Seed(ctx, db, true); err != nil {
		t.Fatalf("Seed(true) second run: %v", err)
	}
	if n, _ := q.CountAccounts(ctx); n != 1 {
		t.Fatalf("accounts after repeated seed = %d, want 1", n)
	}
}
