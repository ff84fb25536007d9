// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package testinfra holds the Docker/testcontainers helpers shared by the
// handful of integration tests that need a real broker or database rather
// than an in-process fake. Nothing in the main binary imports this package.
package testinfra

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfNoDocker skips the calling test when no Docker daemon is reachable,
// so `go test ./...` still passes on a machine without Docker installed.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if !dockerAvailable() {
		t.Skip("skipping: docker not available")
	}
}

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// CleanupContainer terminates a container and logs (rather than fails) any
// teardown error, matching the rest of this suite's fire-and-forget
// tolerance for infrastructure noise that doesn't bear on the assertion.
func CleanupContainer(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()
	if container == nil {
		return
	}
	if err := container.Terminate(ctx); err != nil {
		t.Logf("warning: failed to terminate container: %v", err)
	}
}
