// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clustering.WindowDays != 30 {
		t.Fatalf("WindowDays = %d, want 30", cfg.Clustering.WindowDays)
	}
	if cfg.Clustering.KGroupMin != 2 || cfg.Clustering.KGroupMax != 5 {
		t.Fatalf("unexpected k group bounds: %+v", cfg.Clustering)
	}
	if cfg.API.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q, want :8080", cfg.API.ListenAddr)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "clustering:\n  window_days: 7\n  min_voters: 10\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clustering.WindowDays != 7 {
		t.Fatalf("WindowDays = %d, want 7 (file override)", cfg.Clustering.WindowDays)
	}
	if cfg.Clustering.MinVoters != 10 {
		t.Fatalf("MinVoters = %d, want 10 (file override)", cfg.Clustering.MinVoters)
	}
	// Fields the file didn't set keep their compiled-in default.
	if cfg.Clustering.KGroupMax != 5 {
		t.Fatalf("KGroupMax = %d, want 5 (unset, default)", cfg.Clustering.KGroupMax)
	}
}

func TestEnvOverridesFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "clustering:\n  window_days: 7\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("BURBUJAS_CLUSTERING_WINDOW_DAYS", "14")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clustering.WindowDays != 14 {
		t.Fatalf("WindowDays = %d, want 14 (env override)", cfg.Clustering.WindowDays)
	}
}

func TestConfigPathEnvVarWinsOverExplicitPath(t *testing.T) {
	dir := t.TempDir()

	explicitPath := filepath.Join(dir, "explicit.yaml")
	if err := os.WriteFile(explicitPath, []byte("clustering:\n  window_days: 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile explicit: %v", err)
	}
	envPath := filepath.Join(dir, "env.yaml")
	if err := os.WriteFile(envPath, []byte("clustering:\n  window_days: 2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile env: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, envPath)

	cfg, err := Load(explicitPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clustering.WindowDays != 2 {
		t.Fatalf("WindowDays = %d, want 2 (CONFIG_PATH must win over the explicit path)", cfg.Clustering.WindowDays)
	}
}
