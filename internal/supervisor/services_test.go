// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package supervisor

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/models"
)

type countingRunner struct {
	calls atomic.Int32
}

func (r *countingRunner) Run(ctx context.Context, params models.RunParameters) (models.RunSummary, error) {
	r.calls.Add(1)
	return models.RunSummary{Run: models.Run{Status: models.RunStatusCompleted}}, nil
}

func TestScheduleService_RunsOnStartupAndTicks(t *testing.T) {
	runner := &countingRunner{}
	svc := &ScheduleService{
		Runner:       runner,
		Interval:     20 * time.Millisecond,
		RunOnStartup: true,
		Logger:       zerolog.Nop(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 65*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)

	if got := runner.calls.Load(); got < 2 {
		t.Fatalf("expected at least 2 runs (startup + tick), got %d", got)
	}
}

func TestHTTPService_ServesAndShutsDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	server := &http.Server{Addr: "127.0.0.1:0", Handler: mux}

	svc := &HTTPService{Server: server, ShutdownTimeout: 2 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("HTTPService did not shut down in time")
	}
}
