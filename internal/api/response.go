// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package api exposes the read-only Query API (C9): the latest run's
// projections and group clusters, a voter's bubble assignment, a cluster's
// voting patterns, and the lineage window between recent runs. It also
// exposes the one write operation, a manual run trigger, behind bearer
// authentication.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// Response is the uniform envelope every handler replies with, success or
// failure, so clients never need to branch on shape.
type Response struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// APIError is the error half of Response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata carries response-level bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, status int, logger zerolog.Logger, resp Response) {
	resp.Metadata.Timestamp = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Error().Err(err).Msg("failed to write response")
	}
}

func respondOK(w http.ResponseWriter, logger zerolog.Logger, data interface{}) {
	respondJSON(w, http.StatusOK, logger, Response{Status: "success", Data: data})
}

func respondError(w http.ResponseWriter, logger zerolog.Logger, status int, code, message string) {
	respondJSON(w, status, logger, Response{Status: "error", Error: &APIError{Code: code, Message: message}})
}
