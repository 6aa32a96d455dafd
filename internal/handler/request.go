// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
)

// The original clients submit either JSON or classic form encoding.
// Everything funnels through one decode boundary per request shape so
// the core logic only ever sees a typed record.

// errUnsupportedPayload is returned when the request body is neither
// JSON nor a form, or cannot be parsed.
var errUnsupportedPayload = errors.New("unsupported or malformed payload")

// registerRequest is the typed registration payload.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// credentialsRequest is the typed login payload.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// idsRequest is the typed bulk-operation payload.
type idsRequest struct {
	IDs []string `json:"ids"`
}

// isJSONRequest reports whether the request declares a JSON body.
func isJSONRequest(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(strings.ToLower(ct), "application/json")
	}
	return mediaType == "application/json"
}

// decodeRegisterRequest reads a registration payload from JSON or form
// encoding.
func decodeRegisterRequest(r *http.Request) (registerRequest, error) {
	var req registerRequest

	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return registerRequest{}, errUnsupportedPayload
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return registerRequest{}, errUnsupportedPayload
	}
	req.Name = r.PostFormValue("name")
	req.Email = r.PostFormValue("email")
	req.Password = r.PostFormValue("password")
	return req, nil
}

// decodeCredentialsRequest reads a login payload from JSON or form
// encoding.
func decodeCredentialsRequest(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest

	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return credentialsRequest{}, errUnsupportedPayload
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return credentialsRequest{}, errUnsupportedPayload
	}
	req.Email = r.PostFormValue("email")
	req.Password = r.PostFormValue("password")
	return req, nil
}

// decodeIDsRequest reads a bulk id list from JSON ({"ids": [...]}) or
// form encoding (repeated ids fields), de-duplicating while preserving
// order.
func decodeIDsRequest(r *http.Request) ([]string, error) {
	var ids []string

	if isJSONRequest(r) {
		var req idsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errUnsupportedPayload
		}
		ids = req.IDs
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, errUnsupportedPayload
		}
		ids = r.PostForm["ids"]
	}

	seen := make(map[string]bool, len(ids))
	deduped := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}
	return deduped, nil
}
