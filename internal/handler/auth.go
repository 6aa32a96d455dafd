// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP endpoints: registration and
// verification, login/logout, the admin account surface, and health.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/accounts-go/internal/mailer"
	"github.com/olegiv/accounts-go/internal/middleware"
	"github.com/olegiv/accounts-go/internal/service"
)

// AuthHandler handles registration, verification, login, and logout.
type AuthHandler struct {
	accounts       *service.AccountService
	sessionManager *scs.SessionManager
	sender         mailer.Sender
	baseURL        string
}

// NewAuthHandler creates a new AuthHandler. baseURL is the externally
// reachable origin used to build verification links.
func NewAuthHandler(accounts *service.AccountService, sm *scs.SessionManager, sender mailer.Sender, baseURL string) *AuthHandler {
	return &AuthHandler{
		accounts:       accounts,
		sessionManager: sm,
		sender:         sender,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

// Register handles POST /auth/register. The verification link is
// dispatched on a detached goroutine and, independent of delivery
// outcome, returned in the response as a fallback channel. All
// creation failures collapse into one generic message so the response
// never reveals whether an email collided.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRegisterRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	password := req.Password

	if name == "" || email == "" || password == "" {
		writeJSONError(w, http.StatusBadRequest, "Name, email and password are required.")
		return
	}

	account, err := h.accounts.Create(r.Context(), name, email, password)
	if err != nil {
		if !errors.Is(err, service.ErrDuplicateEmail) {
			slog.Error("account creation failed", "error", err)
		}
		writeJSONError(w, http.StatusBadRequest, "Registration failed. Possibly a duplicate e-mail.")
		return
	}

	verifyURL := fmt.Sprintf("%s%s?id=%s", h.baseURL, RouteAuthVerify, account.ID)

	// Fire-and-forget: registration never waits on delivery.
	mailer.Dispatch(h.sender, account.Email, verifyURL)

	slog.Info("account registered", "account_id", account.ID)

	writeJSONSuccess(w, map[string]any{
		"message":    "Registered. Verification email sent asynchronously.",
		"verify_url": verifyURL,
	})
}

// Verify handles GET /auth/verify?id={id}. Promotes Unverified to
// Active; a blocked account stays blocked, a verified one stays
// verified. Responds with the transition in plain text.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id.", http.StatusBadRequest)
		return
	}

	before, after, err := h.accounts.Verify(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "Account not found.", http.StatusNotFound)
			return
		}
		logAndInternalError(w, "verification failed", "error", err, "account_id", id)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Verified. Before=%s, After=%s", before, after)
}

// Login handles POST /auth/login. Unknown email and wrong password
// produce the same response; blocked and unverified accounts get
// distinct messages. On success a renewed session is established
// carrying the subject id, name, email, and status.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentialsRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountBlocked):
			writeJSONError(w, http.StatusUnauthorized, "Account blocked.")
		case errors.Is(err, service.ErrAccountNotActive):
			writeJSONError(w, http.StatusUnauthorized, "Account is not active. Please verify your email.")
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSONError(w, http.StatusBadRequest, "Invalid credentials.")
		default:
			logAndInternalError(w, "login failed", "error", err)
		}
		return
	}

	// Regenerate the session token to prevent session fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyAccountID, account.ID)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyAccountName, account.Name)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyAccountEmail, account.Email)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyAccountStatus, string(account.Status))

	slog.Info("account logged in", "account_id", account.ID)

	writeJSONSuccess(w, map[string]any{"message": "Logged in."})
}

// Logout handles POST /auth/logout. Destroys the current session
// unconditionally; never fails, even without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID := h.sessionManager.GetString(r.Context(), middleware.SessionKeyAccountID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	if accountID != "" {
		slog.Info("account logged out", "account_id", accountID)
	}

	writeJSONSuccess(w, map[string]any{"message": "Logged out."})
}
