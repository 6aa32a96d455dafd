// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import "errors"

// Sentinel errors returned by the account service. Handlers compare
// with errors.Is and translate into user-facing messages; anything
// else is an internal fault.
var (
	// ErrDuplicateEmail is returned by Create when the storage layer
	// rejects the insert on the email unique constraint.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidCredentials covers both unknown email and wrong
	// password. The two cases are deliberately indistinguishable to
	// callers to prevent user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountBlocked is returned by Authenticate for blocked
	// accounts, before the password is even checked.
	ErrAccountBlocked = errors.New("account blocked")

	// ErrAccountNotActive is returned by Authenticate for accounts
	// that exist but have not completed verification.
	ErrAccountNotActive = errors.New("account not active")
)
