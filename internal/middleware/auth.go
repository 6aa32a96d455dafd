// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// the per-request account gate, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/olegiv/accounts-go/internal/model"
	"github.com/olegiv/accounts-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAccount is the context key for the loaded account.
const ContextKeyAccount ContextKey = "account"

// Session keys for the authenticated subject. The session carries the
// subject id plus display name, email, and status snapshot.
const (
	SessionKeyAccountID     = "account_id"
	SessionKeyAccountName   = "account_name"
	SessionKeyAccountEmail  = "account_email"
	SessionKeyAccountStatus = "account_status"
)

// RouteLogin is where unauthenticated or gated-out requests land.
const RouteLogin = "/auth/login"

// Auth creates middleware that requires an authenticated session and
// redirects to the login entry point otherwise.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetString(r.Context(), SessionKeyAccountID) == "" {
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// exemptPrefixes are paths the account gate never applies to: the
// authentication endpoints themselves plus static assets.
var exemptPrefixes = []string{
	"/auth/login",
	"/auth/register",
	"/auth/verify",
	"/healthz",
	"/favicon.ico",
	"/static/",
}

// EnsureActive is the per-request account gate. For every
// non-exempt request carrying a session, it re-resolves the subject:
// if the account no longer exists or is blocked, the session is
// destroyed and the request redirected to login. A session holding a
// syntactically invalid subject id is treated the same as a missing
// account. Requests without a session pass through unchanged; loading
// the account into context is a convenience for downstream handlers,
// not an authorization decision.
func EnsureActive(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			accountID := sm.GetString(r.Context(), SessionKeyAccountID)
			if accountID == "" {
				next.ServeHTTP(w, r)
				return
			}

			rejectSession := func() {
				_ = sm.Destroy(r.Context())
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			}

			if _, err := uuid.Parse(accountID); err != nil {
				rejectSession()
				return
			}

			account, err := queries.GetAccountByID(r.Context(), accountID)
			if err != nil || account.Status == model.StatusBlocked {
				rejectSession()
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAccount, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccount retrieves the current account from the request context.
// Returns nil if no account is in context.
func GetAccount(r *http.Request) *store.Account {
	account, ok := r.Context().Value(ContextKeyAccount).(store.Account)
	if !ok {
		return nil
	}
	return &account
}

// GetAccountID returns the current account's id from context, or ""
// if not found. Safe to use in logging.
func GetAccountID(r *http.Request) string {
	if account := GetAccount(r); account != nil {
		return account.ID
	}
	return ""
}

// GetAccountEmail returns the current account's email from context, or
// an empty string if not found.
func GetAccountEmail(r *http.Request) string {
	if account := GetAccount(r); account != nil {
		return account.Email
	}
	return ""
}
