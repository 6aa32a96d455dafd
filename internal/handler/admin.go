// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/accounts-go/internal/model"
	"github.com/olegiv/accounts-go/internal/service"
	"github.com/olegiv/accounts-go/internal/store"
)

// AdminHandler exposes the admin account-management surface: listing,
// bulk status changes, bulk deletion, and the unverified purge. Every
// route it serves sits behind the session access gate.
type AdminHandler struct {
	accounts *service.AccountService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts *service.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// accountView is the JSON shape of an account in admin responses.
// last_login_at is null for accounts that never logged in.
type accountView struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Status       model.Status `json:"status"`
	RegisteredAt time.Time    `json:"registered_at"`
	LastLoginAt  *time.Time   `json:"last_login_at"`
}

func toAccountView(a store.Account) accountView {
	v := accountView{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Status:       a.Status,
		RegisteredAt: a.RegisteredAt,
	}
	if a.LastLoginAt.Valid {
		t := a.LastLoginAt.Time
		v.LastLoginAt = &t
	}
	return v
}

// List handles GET /admin/accounts?q=. Accounts come back ordered by
// last login, most recent first, never-logged-in last. A non-empty q
// keeps only accounts whose name or email contains it.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		logAndInternalError(w, "listing accounts failed", "error", err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, toAccountView(a))
	}

	writeJSONSuccess(w, map[string]any{
		"accounts": views,
		"total":    len(views),
	})
}

// bulk runs op over a de-duplicated id list. Unknown ids are silent
// no-ops; a storage fault on one id does not abort the rest.
func (h *AdminHandler) bulk(w http.ResponseWriter, r *http.Request, action string, op func(r *http.Request, id string) error) {
	ids, err := decodeIDsRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}
	if len(ids) == 0 {
		writeJSONError(w, http.StatusBadRequest, "No ids given.")
		return
	}

	processed := 0
	for _, id := range ids {
		if err := op(r, id); err != nil {
			slog.Error("bulk account operation failed",
				"action", action, "account_id", id, "error", err)
			continue
		}
		processed++
	}

	slog.Info("bulk account operation", "action", action, "requested", len(ids), "processed", processed)

	writeJSONSuccess(w, map[string]any{"processed": processed})
}

// Block handles POST /admin/accounts/block. Blocking is allowed from
// any state, including accounts that never verified.
func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "block", func(r *http.Request, id string) error {
		return h.accounts.Block(r.Context(), id)
	})
}

// Unblock handles POST /admin/accounts/unblock. The result is always
// Active, whatever the account was before.
func (h *AdminHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "unblock", func(r *http.Request, id string) error {
		return h.accounts.Unblock(r.Context(), id)
	})
}

// Delete handles POST /admin/accounts/delete.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "delete", func(r *http.Request, id string) error {
		return h.accounts.Delete(r.Context(), id)
	})
}

// PurgeUnverified handles POST /admin/accounts/purge-unverified and
// reports how many accounts were removed.
func (h *AdminHandler) PurgeUnverified(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.accounts.PurgeUnverified(r.Context())
	if err != nil {
		logAndInternalError(w, "purging unverified accounts failed", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"deleted": deleted})
}
