// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// triggerClaims is the minimal claim set a bearer token must carry to reach
// the trigger endpoint: a role of "operator" or "admin".
type triggerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey int

const ctxKeyRole ctxKey = iota

// requireOperator parses and validates the bearer token with signingKey,
// rejecting anything but HS256 and a role of "operator" or "admin". It
// exists only to guard the one write operation this API exposes -- the
// manual run trigger.
func requireOperator(signingKey string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractBearer(r)
			if tokenStr == "" {
				respondError(w, logger, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims := &triggerClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(signingKey), nil
			})
			if err != nil || !token.Valid {
				respondError(w, logger, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
				return
			}
			if claims.Role != "operator" && claims.Role != "admin" {
				respondError(w, logger, http.StatusForbidden, "forbidden", "token lacks operator role")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
