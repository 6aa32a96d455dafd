// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain types shared across the application,
// most importantly the account status set and email normalization.
package model

import "strings"

// Status is the lifecycle state of an account.
type Status string

// Account lifecycle states. New accounts start as Unverified; a
// verification click promotes them to Active unless an administrator
// has blocked them first.
const (
	StatusUnverified Status = "unverified"
	StatusActive     Status = "active"
	StatusBlocked    Status = "blocked"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusUnverified, StatusActive, StatusBlocked:
		return true
	}
	return false
}

// NormalizeEmail lowercases and trims an email address. Every read,
// write, and comparison goes through this; the uniqueness constraint
// on accounts.email only holds for normalized values.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
