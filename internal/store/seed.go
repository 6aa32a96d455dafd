// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/accounts-go/internal/auth"
	"github.com/olegiv/accounts-go/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// Seed creates the default admin account when seeding is enabled. The
// account is created Active so the admin surface is reachable on a
// fresh database without a verification round-trip.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}

	queries := New(db)

	_, err := queries.GetAccountByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin account already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin account: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	account, err := queries.CreateAccount(ctx, CreateAccountParams{
		ID:           uuid.NewString(),
		Name:         DefaultAdminName,
		Email:        model.NormalizeEmail(DefaultAdminEmail),
		PasswordHash: passwordHash,
		Status:       model.StatusActive,
		RegisteredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	slog.Info("created default admin account",
		"id", account.ID,
		"email", account.Email,
		"password", DefaultAdminPassword,
	)

	return nil
}
